package consistency

import (
	"context"
	"fmt"

	"github.com/sonsunin65/portfolio-lugsana/pkg/store"
)

// UpdateReport describes what UpdateWithCleanup did.
type UpdateReport struct {
	Collection string                     `json:"collection"`
	ID         string                     `json:"id"`
	Malformed  []*MalformedReferenceError `json:"-"`
	Blobs      BlobReport                 `json:"blobs"`
}

// Partial reports whether the update went through but some cleanup did not.
func (r *UpdateReport) Partial() bool {
	return len(r.Blobs.Failed) > 0 || len(r.Malformed) > 0
}

// UpdateWithCleanup updates a record and then deletes the blobs its blob fields no
// longer reference. Blobs are touched only after the update succeeded; a blob the new
// values still reference is never deleted.
func (s *Synchronizer) UpdateWithCleanup(ctx context.Context, collection, id string, fields store.Row, specs []FieldSpec) (*UpdateReport, error) {
	report := &UpdateReport{Collection: collection, ID: id}

	rows, err := s.table.Select(ctx, collection, store.Where(store.Eq(store.IDField, id)))
	if err != nil {
		return report, fmt.Errorf("failed to fetch %s %s: %w", collection, id, err)
	}
	if len(rows) == 0 {
		return report, fmt.Errorf("failed to update %s %s: %w", collection, id, store.ErrNotFound)
	}
	before := rows[0]

	if err := s.table.Update(ctx, collection, id, fields); err != nil {
		return report, err
	}

	after := before.Clone()
	for k, v := range fields {
		after[k] = v
	}

	var malformed malformedCollector
	onMalformed := malformed.report(collection, s.logger)
	oldURLs := Dedupe(ExtractBlobURLs(before, specs, onMalformed))
	newURLs := Dedupe(ExtractBlobURLs(after, specs, onMalformed))
	report.Malformed = malformed.errs

	if removed := RemovedURLs(oldURLs, newURLs); len(removed) > 0 {
		report.Blobs = s.RemoveBlobs(ctx, removed)
		s.logger.Info().Str("collection", collection).Str("id", id).
			Int("blobs_removed", len(report.Blobs.Removed)).
			Int("blobs_failed", len(report.Blobs.Failed)).
			Msg("released replaced blobs")
	}
	return report, nil
}
