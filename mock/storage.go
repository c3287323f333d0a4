package mock

import (
	"context"
	"io"
	"strings"

	"github.com/dukerupert/fleetcheck"
)

// Compile-time interface check
var _ fleetcheck.FileStorage = (*FileStorage)(nil)

const storageBaseURL = "https://mock-storage.example.com/"

// FileStorage is a mock implementation of fleetcheck.FileStorage.
type FileStorage struct {
	UploadFn     func(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
	OpenFn       func(ctx context.Context, key string) (io.ReadCloser, error)
	DeleteFn     func(ctx context.Context, key string) error
	GetURLFn     func(key string) string
	KeyFromURLFn func(url string) (string, bool)
}

func (s *FileStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	if s.UploadFn != nil {
		return s.UploadFn(ctx, key, reader, contentType)
	}
	return storageBaseURL + key, nil
}

func (s *FileStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.OpenFn != nil {
		return s.OpenFn(ctx, key)
	}
	return nil, fleetcheck.NotFound("File not found")
}

func (s *FileStorage) Delete(ctx context.Context, key string) error {
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, key)
	}
	return nil
}

func (s *FileStorage) GetURL(key string) string {
	if s.GetURLFn != nil {
		return s.GetURLFn(key)
	}
	return storageBaseURL + key
}

func (s *FileStorage) KeyFromURL(url string) (string, bool) {
	if s.KeyFromURLFn != nil {
		return s.KeyFromURLFn(url)
	}
	if key, ok := strings.CutPrefix(url, storageBaseURL); ok && key != "" {
		return key, true
	}
	return "", false
}
