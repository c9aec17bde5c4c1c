package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/ecomgo/reviews/internal/storage"
	apperrors "github.com/ecomgo/reviews/pkg/errors"
)

type object struct {
	contentType string
	data        []byte
}

// Storage implements storage.Storage in memory. Used by tests and local
// runs without a disk or bucket.
type Storage struct {
	mu      sync.RWMutex
	files   map[string]*object
	baseURL string
}

// New creates a new in-memory storage instance.
func New(baseURL string) *Storage {
	return &Storage{
		files:   make(map[string]*object),
		baseURL: baseURL,
	}
}

// Upload keeps a copy of the file.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	data, err := io.ReadAll(input.Data)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	s.mu.Lock()
	s.files[input.Key] = &object{contentType: input.ContentType, data: data}
	s.mu.Unlock()

	return &storage.UploadResult{Key: input.Key, URL: s.url(input.Key)}, nil
}

// Delete removes a file.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[key]; !ok {
		return apperrors.NotFound("file", key)
	}
	delete(s.files, key)
	return nil
}

// GetURL returns the URL for key.
func (s *Storage) GetURL(_ context.Context, key string) (string, error) {
	return s.url(key), nil
}

// Open returns the stored bytes and content type.
func (s *Storage) Open(key string) (io.Reader, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.files[key]
	if !ok {
		return nil, "", false
	}
	return bytes.NewReader(obj.data), obj.contentType, true
}

// Handler serves stored files by key. Mount it under the path of the base
// URL with the prefix stripped.
func (s *Storage) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, contentType, ok := s.Open(strings.TrimPrefix(r.URL.Path, "/"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = io.Copy(w, body)
	})
}

// Len reports how many files are stored.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

func (s *Storage) url(key string) string {
	return s.baseURL + "/" + key
}
