package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/akinalp/socialspace/pkg"
	"github.com/akinalp/socialspace/pkg/blob"
	"github.com/akinalp/socialspace/services"
)

// multipartMemory is how much of a form is buffered in memory; the rest
// spills to temp files.
const multipartMemory = 8 << 20

// parseForm reads a multipart body bounded by maxSize plus form overhead.
func parseForm(w http.ResponseWriter, r *http.Request, maxSize int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+(1<<20))
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return fmt.Errorf("%w: failed to parse multipart form", pkg.ErrBadRequest)
	}
	return nil
}

// formUpload returns the file in field as a services.Upload, or nil when the
// field is absent. The caller closes the returned file.
func formUpload(r *http.Request, field string) (*services.Upload, multipart.File, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid %s field", pkg.ErrBadRequest, field)
	}
	return &services.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, file, nil
}

// BlobHandler serves stored uploads.
type BlobHandler struct {
	store blob.Store
}

// NewBlobHandler builds a BlobHandler over store.
func NewBlobHandler(store blob.Store) *BlobHandler {
	return &BlobHandler{store: store}
}

// Serve godoc
// GET /api/uploads/{name}
func (h *BlobHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	f, err := h.store.Open(r.Context(), name)
	if errors.Is(err, blob.ErrNotFound) {
		pkg.ErrorWithMessage(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		pkg.Error(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, name, time.Time{}, f)
}
