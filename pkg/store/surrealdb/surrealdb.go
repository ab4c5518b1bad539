// Package surrealdb provides a SurrealDB implementation of the
// [github.com/sonsunin65/portfolio-lugsana/pkg/store.Table] interface using SurrealQL.
//
// Each collection is a SurrealDB table and each row a record whose record id is the
// row's string id, so `stats:⟨uuid⟩` in SurrealDB is `{"id": "uuid"}` to callers.
// Every statement is parameterized; collection names go through type::table and
// type::thing, and the only identifiers spliced into query text are filter and order
// columns, which are checked against [validField] first.
//
// SurrealDB is schemaless, so Migrate is a no-op.
//
// # Usage Example
//
//	table, err := surrealdb.NewSurrealTable(ctx, surrealdb.Config{
//		URL:       "ws://localhost:8000/rpc",
//		Namespace: "portfolio",
//		Database:  "portfolio",
//		Username:  "root",
//		Password:  "root",
//	}, logger)
//	if err != nil {
//		return err
//	}
//	defer table.Close()
package surrealdb

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sonsunin65/portfolio-lugsana/pkg/store"
	surrealdb "github.com/surrealdb/surrealdb.go"
	sdbmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

var validField = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds the connection settings.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
}

// SurrealTable implements the Table interface using SurrealDB.
type SurrealTable struct {
	db     *surrealdb.DB
	logger zerolog.Logger
}

// NewSurrealTable connects, signs in when credentials are given and selects the
// namespace and database.
func NewSurrealTable(ctx context.Context, cfg Config, logger zerolog.Logger) (*SurrealTable, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if cfg.Username != "" && cfg.Password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": cfg.Username,
			"pass": cfg.Password,
		}); err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return &SurrealTable{
		db:     db,
		logger: logger.With().Str("store", "surrealdb").Logger(),
	}, nil
}

// Migrate is a no-op: SurrealDB creates tables on first write.
func (s *SurrealTable) Migrate(ctx context.Context) error {
	return nil
}

// Close closes the database connection
func (s *SurrealTable) Close() error {
	return s.db.Close(context.Background())
}

func (s *SurrealTable) Select(ctx context.Context, collection string, q store.Query) ([]store.Row, error) {
	where, params, err := buildWhere(collection, q.Filters)
	if err != nil {
		return nil, err
	}
	orderBy, err := buildOrder(q.OrderBy)
	if err != nil {
		return nil, err
	}

	sql := "SELECT * FROM type::table($tb)" + where + orderBy
	rows, err := s.query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", collection, err)
	}
	return rows, nil
}

func (s *SurrealTable) Insert(ctx context.Context, collection string, rows []store.Row) ([]store.Row, error) {
	out := make([]store.Row, 0, len(rows))
	for _, r := range rows {
		content := r.Clone()
		id := content.ID()
		if id == "" {
			id = uuid.NewString()
		}
		delete(content, store.IDField)
		if _, ok := content["created_at"]; !ok {
			content["created_at"] = sdbmodels.CustomDateTime{Time: time.Now().UTC()}
		}

		created, err := s.query(ctx, "CREATE type::thing($tb, $id) CONTENT $content", map[string]any{
			"tb":      collection,
			"id":      id,
			"content": map[string]any(content),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to insert into %s: %w", collection, err)
		}
		if len(created) == 0 {
			return nil, fmt.Errorf("failed to insert into %s: no record returned", collection)
		}
		out = append(out, created[0])
	}
	return out, nil
}

func (s *SurrealTable) Update(ctx context.Context, collection, id string, fields store.Row) error {
	merge := fields.Clone()
	delete(merge, store.IDField)

	updated, err := s.query(ctx,
		"UPDATE type::table($tb) MERGE $fields WHERE id = type::thing($tb, $id) RETURN AFTER",
		map[string]any{"tb": collection, "id": id, "fields": map[string]any(merge)},
	)
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", collection, id, err)
	}
	if len(updated) == 0 {
		return fmt.Errorf("failed to update %s %s: %w", collection, id, store.ErrNotFound)
	}
	return nil
}

func (s *SurrealTable) Delete(ctx context.Context, collection, id string) error {
	deleted, err := s.query(ctx,
		"DELETE type::table($tb) WHERE id = type::thing($tb, $id) RETURN BEFORE",
		map[string]any{"tb": collection, "id": id},
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", collection, id, err)
	}
	if len(deleted) == 0 {
		return fmt.Errorf("failed to delete %s %s: %w", collection, id, store.ErrNotFound)
	}
	return nil
}

func (s *SurrealTable) DeleteWhere(ctx context.Context, collection string, filters ...store.Filter) error {
	where, params, err := buildWhere(collection, filters)
	if err != nil {
		return err
	}
	deleted, err := s.query(ctx, "DELETE type::table($tb)"+where+" RETURN BEFORE", params)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", collection, err)
	}
	s.logger.Debug().Str("collection", collection).Int("rows", len(deleted)).Msg("deleted rows")
	return nil
}

// query runs a single statement and flattens its result set into rows.
func (s *SurrealTable) query(ctx context.Context, sql string, params map[string]any) ([]store.Row, error) {
	results, err := surrealdb.Query[[]map[string]any](ctx, s.db, sql, params)
	if err != nil {
		return nil, err
	}
	rows := []store.Row{}
	if results == nil {
		return rows, nil
	}
	for _, res := range *results {
		if res.Status != "OK" {
			return nil, fmt.Errorf("query failed with status %s", res.Status)
		}
		for _, raw := range res.Result {
			rows = append(rows, fromRecord(raw))
		}
	}
	return rows, nil
}

// buildWhere renders filters as a WHERE clause with one parameter per filter. Filters on
// the id column compare against the record id.
func buildWhere(collection string, filters []store.Filter) (string, map[string]any, error) {
	params := map[string]any{"tb": collection}
	if len(filters) == 0 {
		return "", params, nil
	}
	conds := make([]string, 0, len(filters))
	for i, f := range filters {
		if !validField.MatchString(f.Field) {
			return "", nil, fmt.Errorf("invalid filter field %q", f.Field)
		}
		name := fmt.Sprintf("f%d", i)
		params[name] = f.Value
		if f.Field == store.IDField {
			conds = append(conds, fmt.Sprintf("id = type::thing($tb, $%s)", name))
			continue
		}
		conds = append(conds, fmt.Sprintf("%s = $%s", f.Field, name))
	}
	return " WHERE " + strings.Join(conds, " AND "), params, nil
}

// buildOrder renders an ORDER BY clause. Ties fall back to insertion order.
func buildOrder(orders []store.Order) (string, error) {
	if len(orders) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(orders)+2)
	for _, o := range orders {
		if !validField.MatchString(o.Field) {
			return "", fmt.Errorf("invalid order field %q", o.Field)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, o.Field+" "+dir)
	}
	parts = append(parts, "created_at ASC", "id ASC")
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// fromRecord converts a decoded SurrealDB record to a Row: the record id becomes its
// bare string key and datetimes become time.Time.
func fromRecord(raw map[string]any) store.Row {
	row := make(store.Row, len(raw))
	for k, v := range raw {
		row[k] = normalize(v)
	}
	if id, ok := raw[store.IDField]; ok {
		row[store.IDField] = recordKey(id)
	}
	return row
}

func normalize(v any) any {
	switch val := v.(type) {
	case sdbmodels.CustomDateTime:
		return val.Time
	case *sdbmodels.CustomDateTime:
		if val == nil {
			return nil
		}
		return val.Time
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	}
	return v
}

func recordKey(id any) string {
	switch val := id.(type) {
	case sdbmodels.RecordID:
		return fmt.Sprint(val.ID)
	case *sdbmodels.RecordID:
		if val == nil {
			return ""
		}
		return fmt.Sprint(val.ID)
	case string:
		// "table:key" or "table:⟨key⟩"
		if _, key, ok := strings.Cut(val, ":"); ok {
			return strings.TrimSuffix(strings.TrimPrefix(key, "⟨"), "⟩")
		}
		return val
	}
	return fmt.Sprint(id)
}

var _ store.Table = (*SurrealTable)(nil)
