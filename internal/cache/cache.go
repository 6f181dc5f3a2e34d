// Package cache provides caching implementations for ClaimGuard.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opensource-finance/claimguard/internal/domain"
)

// keyPrefix namespaces every key ClaimGuard writes to a shared store.
const keyPrefix = "claimguard:"

// New creates a new cache based on configuration.
// For Community tier: returns an in-process memory cache.
// For Pro tier with two-phase: returns TwoPhaseCache wrapping memory + Redis.
// For Pro tier without two-phase: returns Redis cache.
func New(cfg domain.CacheConfig) (domain.Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryCache(cfg.LocalTTL), nil

	case "redis":
		if cfg.EnableTwoPhase {
			return NewTwoPhaseCache(cfg)
		}
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

func adjudicationKey(id string) string {
	return "adj:" + id
}

// getAdjudication decodes an adjudication stored under its key in c.
func getAdjudication(ctx context.Context, c domain.Cache, id string) (*domain.Adjudication, error) {
	data, err := c.Get(ctx, adjudicationKey(id))
	if err != nil || data == nil {
		return nil, err
	}

	var adj domain.Adjudication
	if err := json.Unmarshal(data, &adj); err != nil {
		return nil, fmt.Errorf("failed to decode cached adjudication %s: %w", id, err)
	}
	return &adj, nil
}

// setAdjudication encodes adj and stores it under its ID in c.
func setAdjudication(ctx context.Context, c domain.Cache, adj *domain.Adjudication, ttl time.Duration) error {
	if adj == nil || adj.ID == "" {
		return fmt.Errorf("adjudication id is required")
	}
	data, err := json.Marshal(adj)
	if err != nil {
		return err
	}
	return c.Set(ctx, adjudicationKey(adj.ID), data, ttl)
}

// TwoPhaseCache implements the two-phase caching strategy.
// L1: in-process memory cache for fast reads
// L2: Redis for sharing results across replicas
type TwoPhaseCache struct {
	local  *MemoryCache
	remote domain.Cache
	l1TTL  time.Duration
}

// NewTwoPhaseCache creates a two-phase cache with memory + Redis.
func NewTwoPhaseCache(cfg domain.CacheConfig) (*TwoPhaseCache, error) {
	remote, err := NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis cache: %w", err)
	}
	return newTwoPhase(NewMemoryCache(cfg.LocalTTL), remote, cfg.LocalTTL), nil
}

func newTwoPhase(local *MemoryCache, remote domain.Cache, l1TTL time.Duration) *TwoPhaseCache {
	if l1TTL <= 0 {
		l1TTL = DefaultLocalTTL
	}
	return &TwoPhaseCache{
		local:  local,
		remote: remote,
		l1TTL:  l1TTL,
	}
}

// Get retrieves from L1 first, then L2. Populates L1 on L2 hit.
func (c *TwoPhaseCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.local.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if val != nil {
		return val, nil
	}

	val, err = c.remote.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if val != nil {
		_ = c.local.Set(ctx, key, val, c.l1TTL)
	}

	return val, nil
}

// Set writes to both L1 and L2. L1 never holds an entry longer than L2.
func (c *TwoPhaseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	l1TTL := c.l1TTL
	if ttl > 0 && ttl < l1TTL {
		l1TTL = ttl
	}
	if err := c.local.Set(ctx, key, value, l1TTL); err != nil {
		return err
	}
	return c.remote.Set(ctx, key, value, ttl)
}

// Delete removes from both L1 and L2.
func (c *TwoPhaseCache) Delete(ctx context.Context, key string) error {
	if err := c.local.Delete(ctx, key); err != nil {
		return err
	}
	return c.remote.Delete(ctx, key)
}

// GetAdjudication retrieves a cached adjudication from L1, then L2.
func (c *TwoPhaseCache) GetAdjudication(ctx context.Context, id string) (*domain.Adjudication, error) {
	return getAdjudication(ctx, c, id)
}

// SetAdjudication caches an adjudication in both L1 and L2.
func (c *TwoPhaseCache) SetAdjudication(ctx context.Context, adj *domain.Adjudication, ttl time.Duration) error {
	return setAdjudication(ctx, c, adj, ttl)
}

// Ping checks both L1 and L2 health.
func (c *TwoPhaseCache) Ping(ctx context.Context) error {
	if err := c.local.Ping(ctx); err != nil {
		return fmt.Errorf("L1 ping failed: %w", err)
	}
	if err := c.remote.Ping(ctx); err != nil {
		return fmt.Errorf("L2 ping failed: %w", err)
	}
	return nil
}

// Close closes both L1 and L2.
func (c *TwoPhaseCache) Close() error {
	_ = c.local.Close()
	return c.remote.Close()
}

// Stats returns the number of L1 entries.
func (c *TwoPhaseCache) Stats() int {
	return c.local.Stats()
}
