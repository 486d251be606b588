package grid

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// cacheKey identifies one channel of one file.
type cacheKey struct {
	path    string
	channel string
}

// Cache provides thread-safe caching of loaded grids to avoid redundant disk
// reads.
//
// Grids are keyed by the exact path string and channel name. Cached grids stay
// in memory until removed with Evict or Clear. Callers must not modify a
// grid returned by Load.
type Cache struct {
	mu    sync.RWMutex
	grids map[cacheKey]*Grid
}

// NewCache creates an empty grid cache.
func NewCache() *Cache {
	return &Cache{
		grids: make(map[cacheKey]*Grid),
	}
}

// Load returns the grid stored at path, reading it on the first request.
//
// Parameters:
//   - path: A grid document ending in .json, or a raster image in any format
//     bild can decode.
//   - channel: The data channel of a grid document. Ignored for rasters.
//
// Returns:
//   - *Grid: The cached grid. Callers must not modify it.
//   - error: Non-nil if the file cannot be read or decoded, or the channel is
//     absent (ErrUnknownChannel).
//
// Entries are keyed by the exact path string and channel.
func (c *Cache) Load(path, channel string) (*Grid, error) {
	if !isDocument(path) {
		channel = ""
	}
	key := cacheKey{path: path, channel: channel}

	c.mu.RLock()
	if g, ok := c.grids[key]; ok {
		c.mu.RUnlock()
		return g, nil
	}
	c.mu.RUnlock()

	g, err := load(path, channel)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.grids[key] = g
	c.mu.Unlock()

	return g, nil
}

// Evict removes every cached channel of path.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	for key := range c.grids {
		if key.path == path {
			delete(c.grids, key)
		}
	}
	c.mu.Unlock()
}

// Clear removes all grids from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.grids = make(map[cacheKey]*Grid)
	c.mu.Unlock()
}

// Len returns the number of cached grids.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.grids)
}

func isDocument(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func load(path, channel string) (*Grid, error) {
	if !isDocument(path) {
		return LoadImage(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("grid: open document: %w", err)
	}
	defer f.Close()

	return DecodeJSON(f, channel)
}
