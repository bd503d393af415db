// Package memory provides an in-process flatblocks.Cache bounded by an LRU.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks"
)

// DefaultSize is the number of entries kept when no size is configured.
const DefaultSize = 1024

type entry struct {
	block     flatblocks.FlatBlock
	expiresAt time.Time
}

// Cache is an LRU-bounded cache with a lifetime per entry. Expired entries
// are dropped lazily on Get.
type Cache struct {
	entries *lru.Cache[string, entry]
	now     func() time.Time

	// mu orders expiry removal against Set so a fresh entry stored between
	// Get's lookup and its removal survives.
	mu sync.Mutex
}

// Config options for the memory cache
type Config struct {
	Size int              // Maximum number of entries (default: DefaultSize)
	Now  func() time.Time // Clock used for expiry (default: time.Now)
}

// New creates a memory cache
func New(config Config) (*Cache, error) {
	if config.Size <= 0 {
		config.Size = DefaultSize
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	entries, err := lru.New[string, entry](config.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}

	return &Cache{entries: entries, now: config.Now}, nil
}

var _ flatblocks.Cache = (*Cache)(nil)

// Get returns a copy of the cached block if present and not expired.
func (c *Cache) Get(ctx context.Context, key string) (*flatblocks.FlatBlock, bool, error) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	now := c.now()
	if !now.Before(e.expiresAt) {
		c.removeExpired(key, now)
		return nil, false, nil
	}

	block := e.block
	return &block, true, nil
}

func (c *Cache) removeExpired(key string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries.Peek(key); ok && !now.Before(cur.expiresAt) {
		c.entries.Remove(key)
	}
}

// Set stores a copy of block for ttl. A non-positive ttl replaces any
// previous entry with nothing, which is the same as an entry that expired
// immediately.
func (c *Cache) Set(ctx context.Context, key string, block *flatblocks.FlatBlock, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl <= 0 {
		c.entries.Remove(key)
		return nil
	}
	c.entries.Add(key, entry{block: *block, expiresAt: c.now().Add(ttl)})
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.entries.Purge()
}
