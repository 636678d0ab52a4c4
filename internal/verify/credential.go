package verify

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
)

// KeySource discovers a fresh API key
type KeySource interface {
	FetchKey(ctx context.Context) (string, error)
}

// StaticKey is a KeySource for a configured key
type StaticKey string

// FetchKey implements KeySource
func (k StaticKey) FetchKey(context.Context) (string, error) {
	if k == "" {
		return "", eris.New("verify: static key is empty")
	}
	return string(k), nil
}

// Credential is the process-wide API key holder. It starts empty, is filled
// on first use and replaced only after the service rejects it. Create one per
// process and share it.
type Credential struct {
	mu     sync.Mutex
	key    string
	source KeySource
}

// NewCredential creates an empty credential backed by source
func NewCredential(source KeySource) *Credential {
	return &Credential{source: source}
}

// Get returns the current key, acquiring one if the holder is empty.
// Concurrent callers share one acquisition.
func (c *Credential) Get(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key != "" {
		return c.key, nil
	}
	key, err := c.source.FetchKey(ctx)
	if err != nil {
		return "", eris.Wrap(err, "verify: acquire key")
	}
	if key == "" {
		return "", eris.New("verify: key source returned an empty key")
	}
	c.key = key
	return key, nil
}

// Invalidate drops the key if it is still the stale one. A key refreshed by
// another caller in the meantime is kept.
func (c *Credential) Invalidate(stale string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key == stale {
		c.key = ""
	}
}
