// Package blob stores uploaded files (post images, avatars) by key.
package blob

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Open and Delete for unknown keys.
var ErrNotFound = errors.New("blob not found")

// Store persists blobs. Keys are opaque, URL-safe file names.
type Store interface {
	// Put writes r under a fresh key derived from name and returns the key.
	Put(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadSeekCloser, error)
	Delete(ctx context.Context, key string) error
	// URL returns the public path a client fetches key from.
	URL(key string) string
}

// DiskStore keeps blobs as files in one directory.
type DiskStore struct {
	dir       string
	urlPrefix string
}

// NewDiskStore creates dir if needed. urlPrefix is joined with the key to
// build public URLs, e.g. "/api/uploads/".
func NewDiskStore(dir, urlPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob dir: %w", err)
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &DiskStore{dir: dir, urlPrefix: urlPrefix}, nil
}

func (s *DiskStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	random := make([]byte, 8)
	if _, err := rand.Read(random); err != nil {
		return "", fmt.Errorf("failed to generate blob key: %w", err)
	}
	key := hex.EncodeToString(random) + "_" + SanitizeName(name)

	path := filepath.Join(s.dir, key)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create blob: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close blob: %w", err)
	}
	return key, nil
}

func (s *DiskStore) Open(_ context.Context, key string) (io.ReadSeekCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}

	if info, err := f.Stat(); err != nil || info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}
	return f, nil
}

func (s *DiskStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (s *DiskStore) URL(key string) string {
	return s.urlPrefix + key
}

// KeyFromURL is the inverse of URL; ok is false for foreign URLs.
func (s *DiskStore) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.urlPrefix)
	if !ok || key == "" || strings.Contains(key, "/") {
		return "", false
	}
	return key, true
}

// path rejects keys that could escape the directory.
func (s *DiskStore) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return "", ErrNotFound
	}
	return filepath.Join(s.dir, key), nil
}

// SanitizeName keeps the base name of an uploaded file and strips path
// separators and NUL bytes.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\x00' || r == ' ' {
			return -1
		}
		return r
	}, name)

	if name == "" || name == "." || name == ".." {
		return "unnamed"
	}
	return name
}
