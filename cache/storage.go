// Package cache keeps the last good copy of documents fetched from upstream
// hosts, so they can still be served while the upstream is unreachable.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNotFound is returned by Get when no entry is stored for a key.
var ErrNotFound = errors.New("cache entry not found")

// Storage defines the interface for cache operations
type Storage interface {
	Get(key string) (*Entry, error)
	Set(key string, content []byte) error
	IsExpired(key string, ttl time.Duration) (bool, error)
}

// Entry represents a cached item with its metadata
type Entry struct {
	Content   []byte    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Age returns how long ago the entry was stored.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}

// FileStorage implements Storage using one JSON file per key.
type FileStorage struct {
	baseDir string
	now     func() time.Time
}

// NewFileStorage creates a new file-based cache storage
// It ensures the cache directory exists before returning
func NewFileStorage(baseDir string) (*FileStorage, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("cache directory cannot be empty")
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FileStorage{baseDir: baseDir, now: time.Now}, nil
}

// Get retrieves a cached entry by key
func (fs *FileStorage) Get(key string) (*Entry, error) {
	data, err := os.ReadFile(fs.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return &entry, nil
}

// Set stores content with the current timestamp. The file is written to a
// temporary name first and renamed, so readers never see a partial entry.
func (fs *FileStorage) Set(key string, content []byte) error {
	data, err := json.Marshal(Entry{Content: content, Timestamp: fs.now()})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(fs.baseDir, ".entry-*")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store cache file: %w", err)
	}
	return nil
}

// IsExpired reports whether the entry is older than ttl. Missing entries are expired.
func (fs *FileStorage) IsExpired(key string, ttl time.Duration) (bool, error) {
	return isExpired(fs, key, ttl, fs.now())
}

func (fs *FileStorage) path(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(fs.baseDir, hex.EncodeToString(hash[:])+".json")
}

// MemoryStorage is an in-process Storage for callers that need no
// persistence across restarts, such as tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]Entry
	Now     func() time.Time
}

// NewMemoryStorage creates an empty in-memory cache.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string]Entry), Now: time.Now}
}

// Get retrieves a copy of the entry for key.
func (m *MemoryStorage) Get(key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	e.Content = append([]byte(nil), e.Content...)
	return &e, nil
}

// Set stores a copy of content.
func (m *MemoryStorage) Set(key string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = Entry{Content: append([]byte(nil), content...), Timestamp: m.Now()}
	return nil
}

// IsExpired reports whether the entry is older than ttl.
func (m *MemoryStorage) IsExpired(key string, ttl time.Duration) (bool, error) {
	return isExpired(m, key, ttl, m.Now())
}

func isExpired(s Storage, key string, ttl time.Duration, now time.Time) (bool, error) {
	entry, err := s.Get(key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("failed to check expiration: %w", err)
	}
	return entry.Age(now) > ttl, nil
}

// DeriveKeyFromURL creates a cache key from a source URL, ignoring the
// fragment so "#anchor" variants share an entry.
func DeriveKeyFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	return u.String()
}
