package portfolio

import (
	"errors"
	"io"
	"net/http"

	"github.com/sonsunin65/portfolio-lugsana/pkg/blob"
	"github.com/sonsunin65/portfolio-lugsana/pkg/store"
)

// DefaultBucket receives uploads that name no bucket.
const DefaultBucket = "pa-images"

// MaxUploadSize bounds one uploaded file.
const MaxUploadSize = 32 << 20

// handleUpload stores the multipart "file" field and answers with its public URL and
// file type. The record that will reference the URL is saved separately by the
// dashboard, which owns the file from then on.
func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	if a.IsReadOnly() {
		respondError(w, http.StatusServiceUnavailable, store.ErrReadOnly.Error())
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read file")
		return
	}
	if len(data) == 0 {
		respondError(w, http.StatusBadRequest, "File is empty")
		return
	}
	if len(data) > MaxUploadSize {
		respondError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	bucket := r.URL.Query().Get("bucket")
	if bucket == "" {
		bucket = DefaultBucket
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	result, err := a.uploader.Upload(r.Context(), blob.Upload{
		Bucket:      bucket,
		Folder:      r.URL.Query().Get("folder"),
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		a.logger.Error().Err(err).Str("bucket", bucket).Str("filename", header.Filename).Msg("upload failed")
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, result)
}
