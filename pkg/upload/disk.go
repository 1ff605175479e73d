package upload

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"
)

// DiskStore stores sweet images on the local filesystem. The storefront
// serves the directory under urlPrefix, so the returned URLs resolve
// against the storefront itself.
type DiskStore struct {
	dir       string
	urlPrefix string
	maxSize   int64
}

// NewDiskStore creates a DiskStore writing into dir. URLs are formed as
// urlPrefix + "/" + generated name. maxSize of 0 means no limit.
func NewDiskStore(dir, urlPrefix string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	for len(urlPrefix) > 1 && urlPrefix[len(urlPrefix)-1] == '/' {
		urlPrefix = urlPrefix[:len(urlPrefix)-1]
	}
	return &DiskStore{dir: dir, urlPrefix: urlPrefix, maxSize: maxSize}, nil
}

// Dir returns the directory images are written to.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save writes the image and returns its URL under the configured prefix.
func (s *DiskStore) Save(_ context.Context, contentType string, size int64, r io.Reader) (string, error) {
	ext := extensionFor(contentType)
	if ext == "" {
		return "", ErrNotAnImage
	}
	if s.maxSize > 0 && size > s.maxSize {
		return "", ErrTooLarge
	}

	name := generateImageID() + ext
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var reader io.Reader = r
	if s.maxSize > 0 {
		reader = io.LimitReader(r, s.maxSize+1) // +1 to detect overflow
	}
	written, err := io.Copy(f, reader)
	if err != nil {
		os.Remove(path)
		return "", err
	}
	if s.maxSize > 0 && written > s.maxSize {
		os.Remove(path)
		return "", ErrTooLarge
	}

	return s.urlPrefix + "/" + name, nil
}

// Cleanup removes images older than maxAge. Useful when drafts are
// abandoned after their image was uploaded.
func (s *DiskStore) Cleanup(_ context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(s.dir, entry.Name()))
		}
	}
	return nil
}

func generateImageID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
