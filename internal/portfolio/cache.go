package portfolio

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const (
	cacheFileName = "portfolio_cache.json"

	// maxEntryAge is how long an unused cache entry survives.
	maxEntryAge = 30 * 24 * time.Hour
)

// Entry is one cached extraction/validation result keyed by the document's
// content hash.
type Entry struct {
	Summary      string    `json:"summary"`
	Valid        bool      `json:"valid"`
	Message      string    `json:"message,omitempty"`
	LastAccessed time.Time `json:"last_accessed"`
}

// Cache stores extraction and validation results per document so the same
// portfolio is not re-validated on every run. Load failures are never fatal:
// the cache simply starts empty.
type Cache struct {
	path    string
	logger  *zap.Logger
	entries map[string]Entry
}

// NewCache opens the cache stored under dir, creating the directory when
// needed.
func NewCache(dir string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}

	cache := &Cache{
		path:    filepath.Join(dir, cacheFileName),
		logger:  logger,
		entries: make(map[string]Entry),
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("creating cache directory failed, cache stays in memory", zap.Error(err))
		return cache
	}

	data, err := os.ReadFile(cache.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("loading portfolio cache failed, starting empty", zap.Error(err))
		}
		return cache
	}

	if err := json.Unmarshal(data, &cache.entries); err != nil {
		logger.Warn("parsing portfolio cache failed, starting empty", zap.Error(err))
		cache.entries = make(map[string]Entry)
	}

	return cache
}

// Key derives the cache key from the document content.
func Key(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:])
}

// Get returns the cached entry for the key and refreshes its access time.
func (c *Cache) Get(key string) (Entry, bool) {
	entry, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}

	entry.LastAccessed = time.Now().UTC()
	c.entries[key] = entry

	return entry, true
}

// Put stores an entry under the key.
func (c *Cache) Put(key string, entry Entry) {
	entry.LastAccessed = time.Now().UTC()
	c.entries[key] = entry
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Save prunes entries older than maxEntryAge and persists the cache.
func (c *Cache) Save() error {
	cutoff := time.Now().UTC().Add(-maxEntryAge)
	for key, entry := range c.entries {
		if entry.LastAccessed.Before(cutoff) {
			delete(c.entries, key)
		}
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal portfolio cache: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write portfolio cache: %w", err)
	}

	return nil
}
