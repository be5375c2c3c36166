package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/akinalp/socialspace/pkg"
	"github.com/akinalp/socialspace/pkg/blob"
)

// Upload is a file received from a multipart form.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadService stores images in the blob store and hands back public URLs.
type UploadService interface {
	SaveImage(ctx context.Context, up *Upload) (string, error)
	// Remove deletes a blob previously returned by SaveImage. Foreign or
	// missing URLs are ignored.
	Remove(ctx context.Context, url string)
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type uploadService struct {
	store   *blob.DiskStore
	maxSize int64
}

// NewUploadService returns an UploadService accepting images up to maxSize bytes.
func NewUploadService(store *blob.DiskStore, maxSize int64) UploadService {
	return &uploadService{store: store, maxSize: maxSize}
}

func (s *uploadService) SaveImage(ctx context.Context, up *Upload) (string, error) {
	if up == nil || up.Body == nil {
		return "", fmt.Errorf("%w: image required", pkg.ErrBadRequest)
	}
	if up.Size > s.maxSize {
		return "", fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrBadRequest, s.maxSize/(1024*1024))
	}

	// Trust the bytes, not the client's Content-Type header.
	head := make([]byte, 512)
	n, err := io.ReadFull(up.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	mimeType, _, _ := strings.Cut(http.DetectContentType(head), ";")
	if !allowedImageTypes[mimeType] {
		return "", fmt.Errorf("%w: file type not allowed: %s", pkg.ErrBadRequest, mimeType)
	}

	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), up.Body), s.maxSize+1)
	counted := &countingReader{r: body}

	key, err := s.store.Put(ctx, up.Name, counted)
	if err != nil {
		return "", err
	}
	if counted.n > s.maxSize {
		s.removeKey(ctx, key)
		return "", fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrBadRequest, s.maxSize/(1024*1024))
	}

	return s.store.URL(key), nil
}

func (s *uploadService) Remove(ctx context.Context, url string) {
	if key, ok := s.store.KeyFromURL(url); ok {
		s.removeKey(ctx, key)
	}
}

func (s *uploadService) removeKey(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, blob.ErrNotFound) {
		log.Printf("[upload] failed to remove %s: %v", key, err)
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
