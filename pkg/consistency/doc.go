// Package consistency keeps the portfolio's records and uploaded files in step.
//
// Records reference uploaded files (blobs) by public URL, and the record holding a URL
// owns the file: when the reference is removed or the record is deleted, the file must
// go too. Nothing spans the table store and the blob store transactionally, so the
// routines here order their calls to keep the damage of a partial failure small and
// report every failure instead of swallowing it.
//
// # Routines
//
//   - [ExtractBlobURLs] lists the URLs a record holds in its single-URL and URL-list
//     fields.
//   - [Synchronizer.CascadeDelete] deletes a record, its descendants and their files,
//     records first and deepest level first, files last.
//   - [Synchronizer.UpdateWithCleanup] updates a record and deletes the files it no
//     longer references.
//   - [Synchronizer.SyncOrder] persists a new display order, either by rewriting each
//     row's position or by replacing the whole list.
//
// Every routine returns a report; [Outcome] turns a report and error into the
// success/failure/partial message shown in the admin dashboard.
//
// # Failure model
//
// Blob removals are independent and run concurrently; a failed removal is a warning
// ([BlobDeleteError]), since a leaked file is recoverable. A failed record deletion
// ([RecordDeleteError]) keeps every ancestor of that record, and no file still
// referenced by a surviving record is removed. A failed reorder ([SyncError]) says which
// ids still need their position written, or, for a replace, whether the old rows are
// already gone.
//
// The synchronizer holds no state between calls. Concurrent calls against the same rows
// are not coordinated; the store's last write wins.
package consistency
