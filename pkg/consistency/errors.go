package consistency

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateID is returned by SyncOrder when the requested order names an id twice.
var ErrDuplicateID = errors.New("duplicate id in order")

// MalformedReferenceError reports a blob reference field whose value is neither a
// string nor a list of strings. The field is skipped.
type MalformedReferenceError struct {
	Collection string
	RecordID   string
	Field      string
	Value      any
	Err        error
}

func (e *MalformedReferenceError) Error() string {
	where := e.Field
	if e.RecordID != "" {
		where = e.RecordID + "." + where
	}
	if e.Collection != "" {
		where = e.Collection + "/" + where
	}
	return fmt.Sprintf("malformed blob reference %s (%T): %v", where, e.Value, e.Err)
}

func (e *MalformedReferenceError) Unwrap() error { return e.Err }

// BlobDeleteError reports one blob that could not be removed. It never aborts the batch
// it belongs to.
type BlobDeleteError struct {
	URL    string
	Bucket string
	Path   string
	Err    error
}

func (e *BlobDeleteError) Error() string {
	return fmt.Sprintf("failed to delete blob %s: %v", e.URL, e.Err)
}

func (e *BlobDeleteError) Unwrap() error { return e.Err }

// RecordDeleteError reports a record that could not be deleted. Its ancestors are left
// in place.
type RecordDeleteError struct {
	Collection string
	ID         string
	Err        error
}

func (e *RecordDeleteError) Error() string {
	return fmt.Sprintf("failed to delete %s %s: %v", e.Collection, e.ID, e.Err)
}

func (e *RecordDeleteError) Unwrap() error { return e.Err }

// FailedUpdate is one position update that did not go through.
type FailedUpdate struct {
	ID  string
	Err error
}

// SyncError reports a failed reorder.
//
// With FieldUpdate, Remaining lists the ids whose position was not written, starting
// with the one that failed. With Parallel, Failed lists every failed update and
// Remaining their ids. With ReplaceAll, DeleteSucceeded tells whether the old rows are
// already gone; if so and the insert failed even after a retry, DataLoss is set and the
// scope is left empty.
type SyncError struct {
	Collection      string
	Strategy        Strategy
	Remaining       []string
	Failed          []FailedUpdate
	DeleteSucceeded bool
	DataLoss        bool
	Err             error
}

func (e *SyncError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to sync %s order (%s)", e.Collection, e.Strategy)
	switch {
	case e.DataLoss:
		b.WriteString(": rows were deleted but could not be re-inserted")
	case len(e.Failed) > 0:
		fmt.Fprintf(&b, ": %d of the updates failed", len(e.Failed))
	case len(e.Remaining) > 0:
		fmt.Fprintf(&b, ": %d ids not updated", len(e.Remaining))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *SyncError) Unwrap() error { return e.Err }
