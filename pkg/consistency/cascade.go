package consistency

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sonsunin65/portfolio-lugsana/pkg/store"
)

// Node describes one collection in a parent/child hierarchy. ForeignKey is the column of
// Collection that holds the parent's id; it is empty on the root.
type Node struct {
	Collection string
	ForeignKey string
	BlobFields []FieldSpec
	Children   []Node
}

// RecordRef identifies a record.
type RecordRef struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

// DeleteReport describes what CascadeDelete did.
type DeleteReport struct {
	Collection string `json:"collection"`
	RootID     string `json:"root_id"`
	// NotFound is set when the root did not exist; nothing else was touched.
	NotFound bool `json:"not_found,omitempty"`
	// Deleted lists the deleted records in deletion order, the root last.
	Deleted []RecordRef `json:"deleted,omitempty"`
	// Kept lists records left in place because a descendant could not be deleted.
	Kept []RecordRef `json:"kept,omitempty"`
	// Failed lists the record deletions the table rejected.
	Failed    []*RecordDeleteError       `json:"-"`
	Malformed []*MalformedReferenceError `json:"-"`
	Blobs     BlobReport                 `json:"blobs"`
}

// Partial reports whether the records are gone but some cleanup was not.
func (r *DeleteReport) Partial() bool {
	return len(r.Blobs.Failed) > 0 || len(r.Malformed) > 0
}

// fetched is a record loaded during the walk, with its loaded children.
type fetched struct {
	node     *Node
	row      store.Row
	parent   *fetched
	children []*fetched
	urls     []string
	deleted  bool
	blocked  bool
}

func (f *fetched) ref() RecordRef {
	return RecordRef{Collection: f.node.Collection, ID: f.row.ID()}
}

// CascadeDelete deletes the root record with the given id, every record below it in the
// hierarchy, and every blob those records reference.
//
// The whole tree is read before anything is deleted. Records are then deleted level by
// level, deepest first, so no record outlives its parent. A record whose deletion fails
// keeps all its ancestors alive, including the root; sibling branches still proceed.
// Blobs are removed only after the records referencing them are gone, and a blob still
// referenced by a record that survived is kept. Blob failures do not fail the call; they
// are listed in the report.
//
// A root that does not exist is not an error: the report has NotFound set. The returned
// error is a *RecordDeleteError when the root could not be deleted.
func (s *Synchronizer) CascadeDelete(ctx context.Context, root Node, rootID string) (*DeleteReport, error) {
	report := &DeleteReport{Collection: root.Collection, RootID: rootID}
	if err := validateTree(&root, true); err != nil {
		return report, err
	}

	rows, err := s.table.Select(ctx, root.Collection, store.Where(store.Eq(store.IDField, rootID)))
	if err != nil {
		return report, fmt.Errorf("failed to fetch %s %s: %w", root.Collection, rootID, err)
	}
	if len(rows) == 0 {
		report.NotFound = true
		s.logger.Info().Str("collection", root.Collection).Str("id", rootID).Msg("cascade delete: record already gone")
		return report, nil
	}

	var levels [][]*fetched
	tree, err := s.fetchTree(ctx, &root, rows[0], nil, 0, &levels)
	if err != nil {
		return report, err
	}

	var malformed malformedCollector
	for _, level := range levels {
		for _, f := range level {
			f.urls = slices.Collect(ExtractBlobURLs(f.row, f.node.BlobFields, malformed.report(f.node.Collection, s.logger)))
		}
	}
	report.Malformed = malformed.errs

	for depth := len(levels) - 1; depth >= 0; depth-- {
		for _, f := range levels[depth] {
			s.deleteOne(ctx, f, report)
		}
	}

	var gone, kept []string
	for _, level := range levels {
		for _, f := range level {
			if f.deleted {
				gone = append(gone, f.urls...)
			} else {
				kept = append(kept, f.urls...)
			}
		}
	}
	report.Blobs = s.RemoveBlobs(ctx, RemovedURLs(gone, kept))

	event := s.logger.Info()
	if !tree.deleted || report.Partial() {
		event = s.logger.Warn()
	}
	event.Str("collection", root.Collection).
		Str("id", rootID).
		Int("records_deleted", len(report.Deleted)).
		Int("records_kept", len(report.Kept)).
		Int("blobs_removed", len(report.Blobs.Removed)).
		Int("blobs_failed", len(report.Blobs.Failed)).
		Msg("cascade delete finished")

	if !tree.deleted {
		if len(report.Failed) > 0 {
			return report, report.Failed[0]
		}
		return report, &RecordDeleteError{Collection: root.Collection, ID: rootID, Err: errors.New("descendant deletion failed")}
	}
	return report, nil
}

func validateTree(n *Node, isRoot bool) error {
	if n.Collection == "" {
		return errors.New("cascade node has no collection")
	}
	if !isRoot && n.ForeignKey == "" {
		return fmt.Errorf("cascade node %s has no foreign key", n.Collection)
	}
	for i := range n.Children {
		if err := validateTree(&n.Children[i], false); err != nil {
			return err
		}
	}
	return nil
}

// fetchTree loads row's descendants depth first and appends every record to levels by
// depth.
func (s *Synchronizer) fetchTree(ctx context.Context, node *Node, row store.Row, parent *fetched, depth int, levels *[][]*fetched) (*fetched, error) {
	f := &fetched{node: node, row: row, parent: parent}
	if len(*levels) <= depth {
		*levels = append(*levels, nil)
	}
	(*levels)[depth] = append((*levels)[depth], f)

	for i := range node.Children {
		child := &node.Children[i]
		rows, err := s.table.Select(ctx, child.Collection, store.Where(store.Eq(child.ForeignKey, row.ID())))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s of %s %s: %w", child.Collection, node.Collection, row.ID(), err)
		}
		for _, r := range rows {
			cf, err := s.fetchTree(ctx, child, r, f, depth+1, levels)
			if err != nil {
				return nil, err
			}
			f.children = append(f.children, cf)
		}
	}
	return f, nil
}

// deleteOne deletes f unless a descendant failed. A failure blocks f's parent.
func (s *Synchronizer) deleteOne(ctx context.Context, f *fetched, report *DeleteReport) {
	if f.blocked {
		report.Kept = append(report.Kept, f.ref())
		if f.parent != nil {
			f.parent.blocked = true
		}
		return
	}

	err := s.table.Delete(ctx, f.node.Collection, f.row.ID())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Error().Err(err).Str("collection", f.node.Collection).Str("id", f.row.ID()).Msg("failed to delete record")
		report.Failed = append(report.Failed, &RecordDeleteError{Collection: f.node.Collection, ID: f.row.ID(), Err: err})
		report.Kept = append(report.Kept, f.ref())
		if f.parent != nil {
			f.parent.blocked = true
		}
		return
	}
	f.deleted = true
	report.Deleted = append(report.Deleted, f.ref())
}
