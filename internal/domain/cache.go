package domain

import (
	"context"
	"time"
)

// Cache defines the interface for caching adjudication results.
// Supports two-phase caching: local memory (Community) + Redis (Pro).
type Cache interface {
	// Get retrieves a value from cache.
	// Returns nil, nil if key not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, key string) error

	// GetAdjudication retrieves a cached adjudication by ID.
	GetAdjudication(ctx context.Context, id string) (*Adjudication, error)

	// SetAdjudication caches an adjudication under its ID.
	SetAdjudication(ctx context.Context, adj *Adjudication, ttl time.Duration) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string

	// Local cache settings (Community tier)
	LocalTTL time.Duration

	// Redis settings (Pro tier)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ResultTTL is how long adjudications stay cached
	ResultTTL time.Duration

	// Two-phase settings
	EnableTwoPhase bool // If true, check local first, then Redis
}
