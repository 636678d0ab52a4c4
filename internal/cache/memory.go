package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const memoryCleanupInterval = 10 * time.Minute

// memoryTier is the process-local layer, backed by go-cache
type memoryTier struct {
	items *gocache.Cache
}

func newMemoryTier(ttl time.Duration) *memoryTier {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &memoryTier{items: gocache.New(ttl, memoryCleanupInterval)}
}

func (m *memoryTier) Get(key string) ([]byte, bool) {
	val, ok := m.items.Get(key)
	if !ok {
		return nil, false
	}
	data, ok := val.([]byte)
	return data, ok
}

func (m *memoryTier) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	m.items.Set(key, value, ttl)
	return nil
}

// Len counts live entries
func (m *memoryTier) Len() int {
	return m.items.ItemCount()
}
