// Package domain defines the core interfaces and types for ClaimGuard.
package domain

import (
	"context"
	"time"
)

// Repository defines the interface for adjudication persistence.
type Repository interface {
	// SaveAdjudication stores an adjudication record.
	SaveAdjudication(ctx context.Context, adj *Adjudication) error

	// GetAdjudication retrieves an adjudication by ID.
	GetAdjudication(ctx context.Context, id string) (*Adjudication, error)

	// ListAdjudications returns the most recent adjudications, newest first.
	ListAdjudications(ctx context.Context, limit int) ([]*Adjudication, error)

	// ListAdjudicationsByClaim returns the adjudications of a claim ID,
	// newest first, bounded like ListAdjudications.
	ListAdjudicationsByClaim(ctx context.Context, claimID string, limit int) ([]*Adjudication, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
