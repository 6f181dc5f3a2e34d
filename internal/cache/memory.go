package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/opensource-finance/claimguard/internal/domain"
)

// DefaultLocalTTL applies when no local TTL is configured.
const DefaultLocalTTL = 5 * time.Minute

// MemoryCache is an in-process cache with per-entry expiry.
// Used as the Community tier cache and as L1 in two-phase caching.
type MemoryCache struct {
	store      *gocache.Cache
	defaultTTL time.Duration
}

// NewMemoryCache creates a memory cache whose entries default to ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultLocalTTL
	}
	return &MemoryCache{
		store:      gocache.New(ttl, 2*ttl),
		defaultTTL: ttl,
	}
}

// Get returns a copy of the stored value, or nil, nil on a miss.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, nil
	}
	stored := v.([]byte)
	out := make([]byte, len(stored))
	copy(out, stored)
	return out, nil
}

// Set stores a copy of value. A non-positive ttl selects the default.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	c.store.Set(key, stored, ttl)
	return nil
}

// Delete removes a value.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

// GetAdjudication retrieves a cached adjudication.
func (c *MemoryCache) GetAdjudication(ctx context.Context, id string) (*domain.Adjudication, error) {
	return getAdjudication(ctx, c, id)
}

// SetAdjudication caches an adjudication.
func (c *MemoryCache) SetAdjudication(ctx context.Context, adj *domain.Adjudication, ttl time.Duration) error {
	return setAdjudication(ctx, c, adj, ttl)
}

// Ping always succeeds.
func (c *MemoryCache) Ping(context.Context) error {
	return nil
}

// Flush drops every entry.
func (c *MemoryCache) Flush() {
	c.store.Flush()
}

// Close drops every entry.
func (c *MemoryCache) Close() error {
	c.Flush()
	return nil
}

// Stats returns the number of entries, including expired ones not yet
// swept.
func (c *MemoryCache) Stats() int {
	return c.store.ItemCount()
}
