package portfolio

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/mux"
	"github.com/sonsunin65/portfolio-lugsana/pkg/consistency"
	"github.com/sonsunin65/portfolio-lugsana/pkg/models"
	"github.com/sonsunin65/portfolio-lugsana/pkg/store"
)

// OutcomeResponse is the body of every admin write that goes through the consistency
// routines. Report is the routine's report (DeleteReport, UpdateReport or SyncReport).
type OutcomeResponse struct {
	Outcome consistency.Outcome `json:"outcome"`
	Report  any                 `json:"report,omitempty"`
}

// OrderRequest is the body of PUT /api/admin/{collection}/order and /replace.
type OrderRequest struct {
	IDs      []string       `json:"ids,omitempty"`
	Rows     []store.Row    `json:"rows,omitempty"`
	Strategy string         `json:"strategy,omitempty"`
	Scope    map[string]any `json:"scope,omitempty"`
}

// collection resolves the {collection} route variable, answering 404 for unknown names.
func (a *App) collection(w http.ResponseWriter, r *http.Request) (*Collection, bool) {
	name := mux.Vars(r)["collection"]
	coll, ok := a.collections[name]
	if !ok {
		respondError(w, http.StatusNotFound, "Unknown collection: "+name)
		return nil, false
	}
	return coll, true
}

// listQuery is the collection's list order, scoped to ?<parent_field>= when given.
func listQuery(coll *Collection, r *http.Request) store.Query {
	q := store.Query{OrderBy: coll.OrderBy}
	if coll.ParentField != "" {
		if parent := r.URL.Query().Get(coll.ParentField); parent != "" {
			q.Filters = []store.Filter{store.Eq(coll.ParentField, parent)}
		}
	}
	return q
}

func (a *App) handlePublicList(w http.ResponseWriter, r *http.Request) {
	coll, ok := a.collection(w, r)
	if !ok {
		return
	}
	if !coll.Public {
		respondError(w, http.StatusNotFound, "Unknown collection: "+coll.Name)
		return
	}
	a.list(w, r, coll)
}

// handlePublicGet serves one row of a public collection, the detail pages of works,
// activities and certificates.
func (a *App) handlePublicGet(w http.ResponseWriter, r *http.Request) {
	coll, ok := a.collection(w, r)
	if !ok {
		return
	}
	if !coll.Public {
		respondError(w, http.StatusNotFound, "Unknown collection: "+coll.Name)
		return
	}
	id := mux.Vars(r)["id"]
	rows, err := a.table.Select(r.Context(), coll.Name, store.Where(store.Eq(store.IDField, id)))
	if err == nil && len(rows) == 0 {
		err = fmt.Errorf("%s %s: %w", coll.Name, id, store.ErrNotFound)
	}
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, rows[0])
}

func (a *App) handleAdminList(w http.ResponseWriter, r *http.Request) {
	coll, ok := a.collection(w, r)
	if !ok {
		return
	}
	a.list(w, r, coll)
}

func (a *App) list(w http.ResponseWriter, r *http.Request, coll *Collection) {
	rows, err := a.table.Select(r.Context(), coll.Name, listQuery(coll, r))
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (a *App) handleCreate(w http.ResponseWriter, r *http.Request) {
	coll, ok := a.collection(w, r)
	if !ok {
		return
	}
	var row store.Row
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil || row == nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	delete(row, "created_at")

	ctx := r.Context()
	if coll.Reorderable() {
		if _, set := row[coll.PositionField]; !set {
			// New rows go to the end of their list.
			q := store.Query{}
			if coll.ParentField != "" {
				q = store.Where(store.Eq(coll.ParentField, row[coll.ParentField]))
			}
			existing, err := a.table.Select(ctx, coll.Name, q)
			if err != nil {
				respondError(w, statusFor(err), err.Error())
				return
			}
			row[coll.PositionField] = len(existing) + 1
		}
	}

	created, err := a.table.Insert(ctx, coll.Name, []store.Row{row})
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, created[0])
}

func (a *App) handleUpdate(w http.ResponseWriter, r *http.Request) {
	coll, ok := a.collection(w, r)
	if !ok {
		return
	}
	var fields store.Row
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	delete(fields, store.IDField)
	delete(fields, "created_at")
	if len(fields) == 0 {
		respondError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	id := mux.Vars(r)["id"]
	report, err := a.sync.UpdateWithCleanup(r.Context(), coll.Name, id, fields, coll.BlobFields())
	respondOutcome(w, statusFor(err), report.Outcome(err), report)
}

func (a *App) handleDelete(w http.ResponseWriter, r *http.Request) {
	coll, ok := a.collection(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	report, err := a.sync.CascadeDelete(r.Context(), coll.Tree, id)
	respondOutcome(w, statusFor(err), report.Outcome(err), report)
}

func (a *App) handleReorder(w http.ResponseWriter, r *http.Request) {
	a.syncOrder(w, r, false)
}

func (a *App) handleReplace(w http.ResponseWriter, r *http.Request) {
	a.syncOrder(w, r, true)
}

func (a *App) syncOrder(w http.ResponseWriter, r *http.Request, replace bool) {
	coll, ok := a.collection(w, r)
	if !ok {
		return
	}
	if !coll.Reorderable() {
		respondError(w, http.StatusBadRequest, coll.Name+" has no display order")
		return
	}
	var body OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	strategy := coll.Strategy
	switch {
	case replace:
		strategy = consistency.ReplaceAll
	case body.Strategy != "":
		s, err := consistency.ParseStrategy(body.Strategy)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		strategy = s
	}

	if strategy == consistency.ReplaceAll {
		if !coll.Replaceable {
			respondError(w, http.StatusBadRequest, coll.Name+" cannot be replaced, save its order instead")
			return
		}
		if _, ok := body.Scope[coll.ParentField]; coll.ParentField != "" && !ok {
			respondError(w, http.StatusBadRequest, "replacing "+coll.Name+" requires a "+coll.ParentField+" scope")
			return
		}
	}

	scope, err := scopeFilters(coll, body.Scope)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := a.sync.SyncOrder(r.Context(), consistency.OrderRequest{
		Collection:    coll.Name,
		PositionField: coll.PositionField,
		Scope:         scope,
		Strategy:      strategy,
		IDs:           body.IDs,
		Rows:          body.Rows,
		BlobFields:    coll.BlobFields(),
	})
	var syncErr *consistency.SyncError
	if err != nil && !errors.As(err, &syncErr) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOutcome(w, statusFor(err), report.Outcome(err), report)
}

// scopeFilters turns a replace scope into filters. Only the collection's parent field
// may scope it.
func scopeFilters(coll *Collection, scope map[string]any) ([]store.Filter, error) {
	var filters []store.Filter
	for k, v := range scope {
		if k != coll.ParentField {
			return nil, errors.New("invalid scope field: " + k)
		}
		filters = append(filters, store.Eq(k, v))
	}
	slices.SortFunc(filters, func(x, y store.Filter) int {
		switch {
		case x.Field < y.Field:
			return -1
		case x.Field > y.Field:
			return 1
		}
		return 0
	})
	return filters, nil
}

// handleCreateMessage stores a contact form submission.
func (a *App) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var msg models.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		respondError(w, http.StatusBadRequest, "name, email and message are required")
		return
	}

	rows, err := a.table.Insert(r.Context(), models.CollectionMessages, []store.Row{{
		"name":    msg.Name,
		"email":   msg.Email,
		"message": msg.Message,
		"is_read": false,
	}})
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, rows[0])
}

func (a *App) handleSetReadOnly(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ReadOnly *bool `json:"read_only"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ReadOnly == nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	a.SetReadOnly(*body.ReadOnly)
	respondJSON(w, http.StatusOK, map[string]bool{"read_only": a.IsReadOnly()})
}

// statusFor maps a store or consistency error to an HTTP status. A nil error is 200,
// including partial outcomes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrReadOnly):
		return http.StatusServiceUnavailable
	case errors.Is(err, consistency.ErrDuplicateID):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondJSON sends payload as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

// respondError sends {"error": message}.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondOutcome(w http.ResponseWriter, status int, outcome consistency.Outcome, report any) {
	respondJSON(w, status, OutcomeResponse{Outcome: outcome, Report: report})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":    "healthy",
		"backend":   a.config.Backend,
		"read_only": a.IsReadOnly(),
		"time":      time.Now().Unix(),
	}
	respondJSON(w, http.StatusOK, response)
}
