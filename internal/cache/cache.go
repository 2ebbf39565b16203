// Package cache implements the content-addressed response cache behind the
// upstream proxy. Entries are keyed by a SHA-256 digest of the exact request
// body, stored on disk, and expire after a fixed TTL. The cache is a
// transparent memoization layer: callers must behave identically whether an
// entry is present or not.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	appLog "racal/internal/log"
)

const DefaultTTL = 3600 * time.Second

// entryMeta holds bookkeeping for one cached response.
type entryMeta struct {
	Key      string    `json:"key"`
	StoredAt time.Time `json:"stored_at"`
}

// Cache is a disk-backed TTL cache of upstream response bodies.
// Concurrent writers for the same key store byte-identical values, so last
// writer wins without coordination.
type Cache struct {
	dir string
	ttl time.Duration

	// now is overridable for tests.
	now func() time.Time
}

// New creates a cache rooted at dir. A zero ttl means DefaultTTL.
func New(dir string, ttl time.Duration) *Cache {
	if dir == "" {
		dir = "./var/ra-cache"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{dir: dir, ttl: ttl, now: time.Now}
}

// Key returns the cache key for a request body: the hex SHA-256 of the
// exact bytes. Identical queries hash identically because the caller
// serializes requests deterministically.
func Key(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached body for key if present and unexpired.
func (c *Cache) Get(key string) ([]byte, bool) {
	dir := filepath.Join(c.dir, key)

	meta, err := loadMeta(dir)
	if err != nil {
		return nil, false
	}
	if c.now().Sub(meta.StoredAt) >= c.ttl {
		return nil, false
	}

	body, err := os.ReadFile(filepath.Join(dir, "body.json"))
	if err != nil {
		return nil, false
	}
	return body, true
}

// Put stores a response body under key. The body is written before the
// metadata so the meta file never points at a missing body.
func (c *Cache) Put(key string, body []byte) error {
	if key == "" {
		return errors.New("cache: empty key")
	}
	dir := filepath.Join(c.dir, key)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, "body.json"), body, 0o600); err != nil {
		return err
	}

	meta := entryMeta{Key: key, StoredAt: c.now().UTC()}
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o600)
}

// Prune removes expired entries and returns how many were deleted.
// Entries with unreadable metadata are treated as expired.
func (c *Cache) Prune() int {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		dir := filepath.Join(c.dir, ent.Name())
		meta, err := loadMeta(dir)
		if err == nil && c.now().Sub(meta.StoredAt) < c.ttl {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			appLog.Error("cache prune failed for entry", err, "key", ent.Name())
			continue
		}
		removed++
	}

	if removed > 0 {
		appLog.Info("cache pruned", "removed", removed)
	}
	return removed
}

func loadMeta(dir string) (entryMeta, error) {
	var meta entryMeta
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return entryMeta{}, err
	}
	return meta, nil
}
