package consistency

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sonsunin65/portfolio-lugsana/pkg/store"
	"golang.org/x/sync/errgroup"
)

// DefaultPositionField is the position column of the flat portfolio collections.
const DefaultPositionField = "display_order"

// Strategy selects how SyncOrder persists an order.
type Strategy int

const (
	// FieldUpdate writes each row's position in order and stops at the first failure.
	FieldUpdate Strategy = iota
	// Parallel writes positions concurrently and reports every failure.
	Parallel
	// ReplaceAll deletes the scope and re-inserts the rows with fresh ids. Only for
	// small collections nothing else references.
	ReplaceAll
)

func (s Strategy) String() string {
	switch s {
	case FieldUpdate:
		return "field-update"
	case Parallel:
		return "parallel"
	case ReplaceAll:
		return "replace-all"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy parses the String form of a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "field-update":
		return FieldUpdate, nil
	case "parallel":
		return Parallel, nil
	case "replace-all":
		return ReplaceAll, nil
	}
	return 0, fmt.Errorf("unknown order strategy %q", name)
}

// OrderRequest is the complete desired order of a collection, or of the part of it
// selected by Scope.
type OrderRequest struct {
	Collection string
	// PositionField defaults to DefaultPositionField.
	PositionField string
	// Scope restricts ReplaceAll's delete and is stamped onto the inserted rows.
	// FieldUpdate and Parallel address rows by id and ignore it.
	Scope    []store.Filter
	Strategy Strategy
	// IDs is the order for FieldUpdate and Parallel. When empty, the ids of Rows are
	// used.
	IDs []string
	// Rows is the full content for ReplaceAll, in the desired order.
	Rows []store.Row
	// BlobFields lists the blob references of the collection. ReplaceAll releases the
	// blobs of replaced rows that the new rows no longer reference.
	BlobFields []FieldSpec
}

// SyncReport describes a successful SyncOrder.
type SyncReport struct {
	Collection string      `json:"collection"`
	Strategy   string      `json:"strategy"`
	Updated    []string    `json:"updated,omitempty"`
	Inserted   []store.Row `json:"inserted,omitempty"`
	// Retried is set when the ReplaceAll insert succeeded on its second attempt.
	Retried   bool                       `json:"retried,omitempty"`
	Malformed []*MalformedReferenceError `json:"-"`
	Blobs     BlobReport                 `json:"blobs"`
}

// Partial reports whether the order was saved but some replaced files were not removed.
func (r *SyncReport) Partial() bool {
	return len(r.Blobs.Failed) > 0 || len(r.Malformed) > 0
}

// SyncOrder persists req's order as 1-based, contiguous positions. Positions are
// recomputed from list index on every call.
//
// On failure the error is a *SyncError, except for invalid requests.
func (s *Synchronizer) SyncOrder(ctx context.Context, req OrderRequest) (*SyncReport, error) {
	if req.Collection == "" {
		return nil, errors.New("order request has no collection")
	}
	if req.PositionField == "" {
		req.PositionField = DefaultPositionField
	}
	report := &SyncReport{Collection: req.Collection, Strategy: req.Strategy.String()}

	switch req.Strategy {
	case FieldUpdate, Parallel:
		ids := req.IDs
		if len(ids) == 0 {
			for _, r := range req.Rows {
				ids = append(ids, r.ID())
			}
		}
		if err := checkIDs(ids); err != nil {
			return nil, err
		}
		if req.Strategy == Parallel {
			return report, s.updateParallel(ctx, req, ids, report)
		}
		return report, s.updateSequential(ctx, req, ids, report)
	case ReplaceAll:
		if len(req.Rows) == 0 && len(req.IDs) > 0 {
			return nil, errors.New("replace-all needs the full rows, not only ids")
		}
		return report, s.replaceAll(ctx, req, report)
	}
	return nil, fmt.Errorf("unknown order strategy %v", req.Strategy)
}

func checkIDs(ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			return errors.New("order contains an empty id")
		}
		if seen[id] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		seen[id] = true
	}
	return nil
}

func (s *Synchronizer) updateSequential(ctx context.Context, req OrderRequest, ids []string, report *SyncReport) error {
	for i, id := range ids {
		if err := s.table.Update(ctx, req.Collection, id, store.Row{req.PositionField: i + 1}); err != nil {
			s.logger.Error().Err(err).Str("collection", req.Collection).Str("id", id).Int("remaining", len(ids)-i).Msg("order update failed")
			return &SyncError{
				Collection: req.Collection,
				Strategy:   req.Strategy,
				Remaining:  append([]string(nil), ids[i:]...),
				Err:        err,
			}
		}
		report.Updated = append(report.Updated, id)
	}
	s.logger.Info().Str("collection", req.Collection).Int("rows", len(ids)).Msg("order updated")
	return nil
}

func (s *Synchronizer) updateParallel(ctx context.Context, req OrderRequest, ids []string, report *SyncReport) error {
	errs := make([]error, len(ids))
	var g errgroup.Group
	g.SetLimit(s.updateConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			errs[i] = s.table.Update(ctx, req.Collection, id, store.Row{req.PositionField: i + 1})
			return nil
		})
	}
	_ = g.Wait()

	var failed []FailedUpdate
	var remaining []string
	var joined []error
	for i, id := range ids {
		if errs[i] != nil {
			failed = append(failed, FailedUpdate{ID: id, Err: errs[i]})
			remaining = append(remaining, id)
			joined = append(joined, errs[i])
			continue
		}
		report.Updated = append(report.Updated, id)
	}
	if len(failed) > 0 {
		s.logger.Error().Str("collection", req.Collection).Int("failed", len(failed)).Msg("order update failed")
		return &SyncError{
			Collection: req.Collection,
			Strategy:   req.Strategy,
			Remaining:  remaining,
			Failed:     failed,
			Err:        errors.Join(joined...),
		}
	}
	s.logger.Info().Str("collection", req.Collection).Int("rows", len(ids)).Msg("order updated")
	return nil
}

func (s *Synchronizer) replaceAll(ctx context.Context, req OrderRequest, report *SyncReport) error {
	var old []store.Row
	if len(req.BlobFields) > 0 {
		rows, err := s.table.Select(ctx, req.Collection, store.Where(req.Scope...))
		if err != nil {
			return &SyncError{Collection: req.Collection, Strategy: req.Strategy, Err: err}
		}
		old = rows
	}

	if err := s.table.DeleteWhere(ctx, req.Collection, req.Scope...); err != nil {
		return &SyncError{Collection: req.Collection, Strategy: req.Strategy, Err: err}
	}
	if len(req.Rows) == 0 {
		s.logger.Info().Str("collection", req.Collection).Msg("order replaced with empty list")
		s.releaseReplaced(ctx, req, old, nil, report)
		return nil
	}

	payload := make([]store.Row, 0, len(req.Rows))
	for i, r := range req.Rows {
		row := r.Clone()
		delete(row, store.IDField)
		delete(row, "created_at")
		for _, f := range req.Scope {
			row[f.Field] = f.Value
		}
		row[req.PositionField] = i + 1
		payload = append(payload, row)
	}

	inserted, err := s.table.Insert(ctx, req.Collection, payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("collection", req.Collection).Msg("insert after replace failed, retrying once")
		report.Retried = true
		inserted, err = s.table.Insert(ctx, req.Collection, payload)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("collection", req.Collection).Int("rows", len(payload)).Msg("replace-all left the collection empty")
		return &SyncError{
			Collection:      req.Collection,
			Strategy:        req.Strategy,
			DeleteSucceeded: true,
			DataLoss:        true,
			Err:             err,
		}
	}
	report.Inserted = inserted
	s.logger.Info().Str("collection", req.Collection).Int("rows", len(inserted)).Msg("order replaced")
	s.releaseReplaced(ctx, req, old, payload, report)
	return nil
}

// releaseReplaced removes the blobs referenced by the replaced rows and by none of the
// rows that took their place.
func (s *Synchronizer) releaseReplaced(ctx context.Context, req OrderRequest, old, current []store.Row, report *SyncReport) {
	if len(old) == 0 {
		return
	}
	var malformed malformedCollector
	onMalformed := malformed.report(req.Collection, s.logger)
	var before, after []string
	for _, r := range old {
		before = append(before, slices.Collect(ExtractBlobURLs(r, req.BlobFields, onMalformed))...)
	}
	for _, r := range current {
		after = append(after, slices.Collect(ExtractBlobURLs(r, req.BlobFields, onMalformed))...)
	}
	report.Malformed = malformed.errs
	if removed := RemovedURLs(before, after); len(removed) > 0 {
		report.Blobs = s.RemoveBlobs(ctx, removed)
	}
}
