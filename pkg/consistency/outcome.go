package consistency

import (
	"errors"
	"fmt"
)

// Status is the coarse result shown to the admin.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusPartial Status = "partial"
)

// Outcome is a pass/fail/partial signal with a human-readable message.
type Outcome struct {
	Status   Status   `json:"status"`
	Message  string   `json:"message"`
	Warnings []string `json:"warnings,omitempty"`
}

// Success builds a success Outcome.
func Success(format string, args ...any) Outcome {
	return Outcome{Status: StatusSuccess, Message: fmt.Sprintf(format, args...)}
}

// Failure builds a failure Outcome from err.
func Failure(err error) Outcome {
	return Outcome{Status: StatusFailure, Message: err.Error()}
}

func blobWarnings(blobs BlobReport, malformed []*MalformedReferenceError) []string {
	var w []string
	for _, e := range blobs.Failed {
		w = append(w, e.Error())
	}
	for _, e := range malformed {
		w = append(w, e.Error())
	}
	return w
}

// Outcome summarizes a CascadeDelete result.
func (r *DeleteReport) Outcome(err error) Outcome {
	var recErr *RecordDeleteError
	switch {
	case errors.As(err, &recErr):
		o := Failure(err)
		if len(r.Deleted) > 0 {
			o.Warnings = append(o.Warnings, fmt.Sprintf("%d related records were deleted before the failure", len(r.Deleted)))
		}
		o.Warnings = append(o.Warnings, blobWarnings(r.Blobs, r.Malformed)...)
		return o
	case err != nil:
		return Failure(err)
	case r.NotFound:
		return Success("%s %s was already deleted", r.Collection, r.RootID)
	case r.Partial():
		return Outcome{
			Status:   StatusPartial,
			Message:  fmt.Sprintf("deleted %s %s, but some files could not be removed", r.Collection, r.RootID),
			Warnings: blobWarnings(r.Blobs, r.Malformed),
		}
	}
	return Success("deleted %s %s with %d related records and %d files", r.Collection, r.RootID, len(r.Deleted)-1, len(r.Blobs.Removed))
}

// Outcome summarizes a SyncOrder result.
func (r *SyncReport) Outcome(err error) Outcome {
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		o := Failure(err)
		if syncErr.DataLoss {
			o.Warnings = append(o.Warnings, fmt.Sprintf("%s is now empty; save again to restore it", syncErr.Collection))
		}
		if len(syncErr.Remaining) > 0 {
			o.Warnings = append(o.Warnings, fmt.Sprintf("not updated: %v", syncErr.Remaining))
		}
		return o
	}
	if err != nil {
		return Failure(err)
	}
	n := len(r.Updated)
	if r.Inserted != nil {
		n = len(r.Inserted)
	}
	if r.Partial() {
		return Outcome{
			Status:   StatusPartial,
			Message:  fmt.Sprintf("saved order of %d %s, but some replaced files could not be removed", n, r.Collection),
			Warnings: blobWarnings(r.Blobs, r.Malformed),
		}
	}
	return Success("saved order of %d %s", n, r.Collection)
}

// Outcome summarizes an UpdateWithCleanup result.
func (r *UpdateReport) Outcome(err error) Outcome {
	if err != nil {
		return Failure(err)
	}
	if r.Partial() {
		return Outcome{
			Status:   StatusPartial,
			Message:  fmt.Sprintf("saved %s %s, but some replaced files could not be removed", r.Collection, r.ID),
			Warnings: blobWarnings(r.Blobs, r.Malformed),
		}
	}
	return Success("saved %s %s", r.Collection, r.ID)
}
