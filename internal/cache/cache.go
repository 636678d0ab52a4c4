// Package cache stores resolved lookups between calls and, with a directory
// configured, between runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Cache is a byte-valued TTL store. A zero ttl means the store default.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
}

// Key builds a namespaced cache key. Parts are case-folded and hashed so
// "Joe's Bakery"/"SPRINGFIELD" and "joe's bakery"/"springfield" share an entry.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
		h.Write([]byte{0})
	}
	return "mapleads:v1:" + namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// New returns a memory cache, or a memory cache in front of dir when dir is set
func New(ttl time.Duration, dir string) Cache {
	mem := newMemoryTier(ttl)
	if dir == "" {
		return mem
	}
	return &tiered{memory: mem, disk: newDiskTier(dir, ttl)}
}

// tiered answers from memory and falls back to disk, promoting disk hits
type tiered struct {
	memory *memoryTier
	disk   *diskTier
}

func (t *tiered) Get(key string) ([]byte, bool) {
	if val, ok := t.memory.Get(key); ok {
		return val, true
	}
	val, ok := t.disk.Get(key)
	if !ok {
		return nil, false
	}
	_ = t.memory.Set(key, val, 0)
	return val, true
}

// Set writes through to disk. A disk failure still leaves the memory entry.
func (t *tiered) Set(key string, value []byte, ttl time.Duration) error {
	_ = t.memory.Set(key, value, ttl)
	return t.disk.Set(key, value, ttl)
}

// GetJSON decodes a cached JSON value into v. Undecodable entries are misses.
func GetJSON(c Cache, key string, v any) bool {
	data, ok := c.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		zap.L().Debug("cache: dropping undecodable entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SetJSON stores v as JSON
func SetJSON(c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "cache: marshal value")
	}
	return c.Set(key, data, ttl)
}
