package actioncache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/maheshrjl/reraharvest/api/schemas"
)

// stableJSON sorts map keys so the cache file is byte-stable across rewrites.
var stableJSON = jsoniter.Config{SortMapKeys: true, IndentionStep: 2}.Froze()

// FileStore is a file-backed ActionStore. The whole mapping is loaded at
// open and written through on every Write. The mutex serializes writers only
// to keep the file well-formed; it does not deduplicate resolution work.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]schemas.CachedAction
}

var _ schemas.ActionStore = (*FileStore)(nil)

// NewFileStore opens (or creates) the cache file at path.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		logger:  logger.Named("actioncache"),
		entries: make(map[string]schemas.CachedAction),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read action cache %q: %w", path, err)
		}
		s.logger.Info("Starting with a cold action cache.", zap.String("path", path))
		return s, nil
	}

	if err := stableJSON.Unmarshal(raw, &s.entries); err != nil {
		return nil, fmt.Errorf("action cache %q is corrupt: %w", path, err)
	}
	s.logger.Info("Loaded action cache.", zap.String("path", path), zap.Int("entries", len(s.entries)))
	return s, nil
}

// Read returns the action cached for the exact instruction text.
func (s *FileStore) Read(_ context.Context, instruction string) (schemas.CachedAction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	action, ok := s.entries[instruction]
	return action, ok, nil
}

// Write stores the action under the exact instruction text and flushes the
// full mapping to disk.
func (s *FileStore) Write(_ context.Context, instruction string, action schemas.CachedAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[instruction] = action
	return s.flushLocked()
}

// Clear removes every entry and deletes the backing file.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]schemas.CachedAction)
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove action cache %q: %w", s.path, err)
	}
	return nil
}

// Len reports the number of cached instructions.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *FileStore) flushLocked() error {
	raw, err := stableJSON.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("failed to encode action cache: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write action cache %q: %w", s.path, err)
	}
	return nil
}
