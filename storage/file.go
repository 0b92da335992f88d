package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileStore keeps one file per key inside a directory. With an empty path
// it keeps values in memory instead.
type FileStore struct {
	mu sync.RWMutex
	// Path to the storage directory
	path string
	// Map to store values when not using persistence
	inMemory map[string][]byte
}

// NewFileStore creates a file store rooted at path
func NewFileStore(path string) (*FileStore, error) {
	// Create the directory if it doesn't exist
	if path != "" {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	return &FileStore{
		path:     path,
		inMemory: make(map[string][]byte),
	}, nil
}

// NewMemoryStore creates a store that never touches the disk
func NewMemoryStore() *FileStore {
	s, _ := NewFileStore("")
	return s
}

// keys may contain characters that are not valid in file names
func (s *FileStore) file(key string) string {
	return filepath.Join(s.path, url.PathEscape(key))
}

// Set stores a key-value pair
func (s *FileStore) Set(key string, val []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		s.inMemory[key] = append([]byte(nil), val...)
		return nil
	}

	// Write to a temp file first so a crash never leaves a torn value
	tmp, err := os.CreateTemp(s.path, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(val); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.file(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Get retrieves a value by key
func (s *FileStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.path == "" {
		val, ok := s.inMemory[key]
		if !ok {
			return nil, ErrNotFound
		}
		return append([]byte(nil), val...), nil
	}

	val, err := os.ReadFile(s.file(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return val, err
}

// Delete removes a key-value pair
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		delete(s.inMemory, key)
		return nil
	}

	err := os.Remove(s.file(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Keys returns all keys in the store, sorted
func (s *FileStore) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string

	if s.path == "" {
		for k := range s.inMemory {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, nil
	}

	files, err := os.ReadDir(s.path)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if file.IsDir() || file.Name()[0] == '.' {
			continue
		}
		key, err := url.PathUnescape(file.Name())
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the store
func (s *FileStore) Close() error {
	// Nothing to close for this implementation
	return nil
}
