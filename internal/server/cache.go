package server

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ironsheep/pump-curve-digitizer/internal/imaging"
)

// chartEntry is one cached chart file.
type chartEntry struct {
	data  []byte
	image *imaging.ChartImage

	once sync.Once
	norm *imaging.Normalized
	err  error
}

// normalized preprocesses the chart with default options on first use.
func (e *chartEntry) normalized() (*imaging.Normalized, error) {
	e.once.Do(func() {
		e.norm, e.err = imaging.Preprocess(e.image, imaging.DefaultPreprocessOptions())
	})
	return e.norm, e.err
}

// Cache keeps the raw bytes and decoded image of every chart file read,
// keyed by the path as given. It is safe for concurrent use.
//
// Entries stay until Evict or Clear; the digitizer core never sees paths,
// only the cached bytes.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*chartEntry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*chartEntry)}
}

// Load returns the cached entry for path, reading and decoding the file on
// first use. Decode failures wrap imaging.ErrInvalidImage and are not
// cached.
func (c *Cache) Load(path string) (*chartEntry, error) {
	c.mu.RLock()
	e, ok := c.entries[path]
	c.mu.RUnlock()
	if ok {
		return e, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart: %w", err)
	}
	img, err := imaging.Decode(data, filepath.Base(path))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[path]; ok {
		return existing, nil
	}
	e = &chartEntry{data: data, image: img}
	c.entries[path] = e
	return e, nil
}

// Evict drops path from the cache.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*chartEntry)
	c.mu.Unlock()
}

// Len returns the number of cached charts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
