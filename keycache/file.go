package keycache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/IsabellHansen/zamapp/interfaces"
)

// FileStore persists cache entries as files under a base directory, one
// file per key.
type FileStore struct {
	baseDir string
	log     *slog.Logger
}

// NewFileStore creates a file store rooted at baseDir, creating it if
// needed.
func NewFileStore(baseDir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FileStore{
		baseDir: baseDir,
		log:     log,
	}, nil
}

// Get reads the value stored for key. Returns ErrCacheMiss if the file does
// not exist.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	path := filepath.Join(s.baseDir, key)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, interfaces.ErrCacheMiss
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	s.log.Debug("Fetched cache entry from file",
		slog.String("path", path),
		slog.Int("size", len(data)))

	return data, nil
}

// Put writes the value for key, overwriting any previous value.
func (s *FileStore) Put(ctx context.Context, key string, data []byte) error {
	path := filepath.Join(s.baseDir, key)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	s.log.Debug("Stored cache entry in file",
		slog.String("path", path),
		slog.Int("size", len(data)))

	return nil
}

// Available checks that the base directory exists.
func (s *FileStore) Available(ctx context.Context) bool {
	_, err := os.Stat(s.baseDir)
	if err != nil {
		s.log.Debug("File store unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (s *FileStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(s.baseDir))
}
