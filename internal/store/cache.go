package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FreshFor is how long a cached response is served without a re-fetch.
const FreshFor = 300 * time.Second

// timestampLayout is the local-time format of requested_at.
const timestampLayout = "2006-01-02 15:04:05"

var (
	// ErrNotFound is returned when no entry exists for a provider/location.
	ErrNotFound = errors.New("no cached response for location")
)

// Entry is one cached provider response.
type Entry struct {
	RequestedAt string          `json:"requested_at"`
	Data        json.RawMessage `json:"data"`
}

// ProviderCache holds the cached responses of a single provider, keyed by
// "lat,lon".
type ProviderCache struct {
	Forecasts map[string]Entry `json:"forecasts"`
}

// FileCache is a JSON-file-backed response cache. The whole file is read and
// rewritten on every operation; concurrent processes race and the last
// write wins.
type FileCache struct {
	mu   sync.Mutex
	path string
}

// NewFileCache creates a cache persisted at path.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// Path returns the cache file location.
func (c *FileCache) Path() string {
	return c.path
}

// Fresh returns the cached response for provider/key if it was requested less
// than FreshFor before now. Missing, stale, future-stamped and unreadable
// entries all report ok=false.
func (c *FileCache) Fresh(provider, key string, now time.Time) (json.RawMessage, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, err := c.lookup(provider, key)
	if err != nil {
		return nil, time.Time{}, false
	}

	requestedAt, err := time.ParseInLocation(timestampLayout, entry.RequestedAt, time.Local)
	if err != nil {
		log.Printf("INFO: ignoring cache entry with bad timestamp %q: %v", entry.RequestedAt, err)
		return nil, time.Time{}, false
	}

	// A stamp in the future means the clock or time zone moved; the age is
	// unknown.
	if age := now.Sub(requestedAt); age < 0 || age >= FreshFor {
		return nil, time.Time{}, false
	}
	return entry.Data, requestedAt, true
}

// Get returns the cached entry for provider/key regardless of age.
func (c *FileCache) Get(provider, key string) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(provider, key)
}

// Put overwrites the entry for provider/key, stamped with now.
func (c *FileCache) Put(provider, key string, data json.RawMessage, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	all := c.read()
	pc, ok := all[provider]
	if !ok || pc.Forecasts == nil {
		pc = &ProviderCache{Forecasts: make(map[string]Entry)}
		all[provider] = pc
	}
	pc.Forecasts[key] = Entry{
		RequestedAt: now.In(time.Local).Format(timestampLayout),
		Data:        data,
	}
	return c.write(all)
}

func (c *FileCache) lookup(provider, key string) (Entry, error) {
	all := c.read()
	pc, ok := all[provider]
	if !ok || pc == nil {
		return Entry{}, ErrNotFound
	}
	entry, ok := pc.Forecasts[key]
	if !ok {
		return Entry{}, ErrNotFound
	}

	// The file is written indented; hand back the response compacted.
	var buf bytes.Buffer
	if err := json.Compact(&buf, entry.Data); err != nil {
		return Entry{}, fmt.Errorf("cached response for %s: %w", key, err)
	}
	entry.Data = buf.Bytes()
	return entry, nil
}

// read loads the cache file. A missing or corrupt file is treated as empty.
func (c *FileCache) read() map[string]*ProviderCache {
	all := make(map[string]*ProviderCache)

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("INFO: cannot read cache %s: %v", c.path, err)
		}
		return all
	}

	if err := json.Unmarshal(data, &all); err != nil {
		log.Printf("INFO: discarding unparsable cache %s: %v", c.path, err)
		return make(map[string]*ProviderCache)
	}
	return all
}

func (c *FileCache) write(all map[string]*ProviderCache) error {
	if err := EnsureDir(filepath.Dir(c.path)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}
