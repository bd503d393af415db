package flatblocks

import (
	"context"
	"time"
)

// NoopCache never stores anything, so every lookup goes to the store.
type NoopCache struct{}

// NewNoopCache creates a cache that always misses
func NewNoopCache() Cache {
	return &NoopCache{}
}

// Get always misses
func (n *NoopCache) Get(ctx context.Context, key string) (*FlatBlock, bool, error) {
	return nil, false, nil
}

// Set does nothing and returns nil
func (n *NoopCache) Set(ctx context.Context, key string, block *FlatBlock, ttl time.Duration) error {
	return nil
}
