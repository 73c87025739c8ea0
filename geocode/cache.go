package geocode

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
)

type CacheEntry struct {
	Query     string    `json:"query"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Found     bool      `json:"found"`
	Source    Source    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cache maps case-folded address keys to coordinates. It is safe for
// concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
}

type cacheFile struct {
	Entries map[string]CacheEntry `json:"entries"`
}

func NewCache() *Cache {
	return &Cache{entries: map[string]CacheEntry{}}
}

// CacheKey is the case-folded concatenation of the four address fields.
func CacheKey(addr model.NormalizedAddress) string {
	return normalizeQuery(strings.Join([]string{addr.Street, addr.City, addr.State, addr.Postcode}, "|"))
}

// LoadCache reads a cache file written by SaveCache. A missing file or empty
// path yields an empty cache.
func LoadCache(path string) (*Cache, error) {
	cache := NewCache()
	if strings.TrimSpace(path) == "" {
		return cache, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cache, nil
	}
	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, eris.Wrapf(err, "geocode: lock %s", path)
	}
	defer lock.Unlock()

	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return nil, eris.Wrapf(err, "geocode: read %s", path)
	}
	if err := cache.Import(payload); err != nil {
		return nil, err
	}
	return cache, nil
}

// SaveCache writes the cache atomically, holding an exclusive lock on
// path+".lock" so that concurrent processes do not interleave writes.
func SaveCache(path string, cache *Cache) error {
	if cache == nil {
		return nil
	}
	if strings.TrimSpace(path) == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "geocode: create %s", dir)
		}
	}
	payload, err := cache.Export()
	if err != nil {
		return err
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return eris.Wrapf(err, "geocode: lock %s", path)
	}
	defer lock.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "geocode: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "geocode: replace %s", path)
	}
	return nil
}

func (c *Cache) Get(key string) (CacheEntry, bool) {
	if c == nil {
		return CacheEntry{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[normalizeQuery(key)]
	return entry, ok
}

func (c *Cache) Set(key string, entry CacheEntry) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string]CacheEntry{}
	}
	if entry.Query == "" {
		entry.Query = key
	}
	c.entries[normalizeQuery(key)] = entry
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = map[string]CacheEntry{}
	c.mu.Unlock()
}

// Snapshot returns a copy of every entry keyed by cache key.
func (c *Cache) Snapshot() map[string]CacheEntry {
	out := map[string]CacheEntry{}
	if c == nil {
		return out
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for key, entry := range c.entries {
		out[key] = entry
	}
	return out
}

// Restore replaces the cache content with entries.
func (c *Cache) Restore(entries map[string]CacheEntry) {
	if c == nil {
		return
	}
	next := make(map[string]CacheEntry, len(entries))
	for key, entry := range entries {
		next[normalizeQuery(key)] = entry
	}
	c.mu.Lock()
	c.entries = next
	c.mu.Unlock()
}

// Export serialises the cache into an opaque blob accepted by Import.
func (c *Cache) Export() ([]byte, error) {
	payload, err := json.Marshal(cacheFile{Entries: c.Snapshot()})
	if err != nil {
		return nil, eris.Wrap(err, "geocode: export cache")
	}
	return payload, nil
}

// Import replaces the cache content with a blob produced by Export.
func (c *Cache) Import(blob []byte) error {
	var file cacheFile
	if err := json.Unmarshal(blob, &file); err != nil {
		return eris.Wrap(err, "geocode: import cache")
	}
	c.Restore(file.Entries)
	return nil
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
