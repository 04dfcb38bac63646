package keyvault

import (
	"context"
	"crypto/rsa"
	"fmt"
	"sync/atomic"
)

// KeyCache holds the public key process-wide. Readers never block; Refresh
// replaces the key as a whole.
type KeyCache struct {
	provider Provider
	key      atomic.Pointer[rsa.PublicKey]
}

func NewKeyCache(p Provider) *KeyCache {
	return &KeyCache{provider: p}
}

// Load fetches the key if it is not cached yet.
func (c *KeyCache) Load(ctx context.Context) error {
	if c.key.Load() != nil {
		return nil
	}
	return c.Refresh(ctx)
}

// Refresh fetches the key again. On failure the previous key stays in place.
func (c *KeyCache) Refresh(ctx context.Context) error {
	k, err := c.provider.PublicKey(ctx)
	if err != nil {
		return fmt.Errorf("fetch public key: %w", err)
	}
	c.key.Store(k)
	return nil
}

// Key returns the cached key or ErrKeyNotLoaded.
func (c *KeyCache) Key() (*rsa.PublicKey, error) {
	k := c.key.Load()
	if k == nil {
		return nil, ErrKeyNotLoaded
	}
	return k, nil
}

func (c *KeyCache) Loaded() bool {
	return c.key.Load() != nil
}
