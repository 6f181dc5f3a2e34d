// Package repository persists adjudications in SQLite or PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opensource-finance/claimguard/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// List limits for ListAdjudications and ListAdjudicationsByClaim.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveAdjudication stores an adjudication record. IDs are immutable; saving
// an existing ID fails.
func (r *SQLRepository) SaveAdjudication(ctx context.Context, adj *domain.Adjudication) error {
	if adj == nil || adj.ID == "" {
		return fmt.Errorf("%w: adjudication id is required", ErrInvalidInput)
	}
	if adj.Result == nil {
		return fmt.Errorf("%w: adjudication %s has no result", ErrInvalidInput, adj.ID)
	}

	result, err := json.Marshal(adj.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	metadata, err := json.Marshal(adj.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	var claim sql.NullString
	if adj.Claim != nil {
		data, err := json.Marshal(adj.Claim)
		if err != nil {
			return fmt.Errorf("failed to encode claim: %w", err)
		}
		claim = sql.NullString{String: string(data), Valid: true}
	}

	createdAt := adj.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO adjudications (
			id, claim_id, status, total_claimed, total_approved,
			created_at, claim, result, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		adj.ID, adj.ClaimID, string(adj.Status),
		adj.Result.TotalClaimed, adj.Result.TotalApproved,
		createdAt.UTC(), claim, string(result), string(metadata),
	)
	return err
}

const selectAdjudication = `
	SELECT id, claim_id, status, created_at, claim, result, metadata
	FROM adjudications
`

// GetAdjudication retrieves an adjudication by ID.
func (r *SQLRepository) GetAdjudication(ctx context.Context, id string) (*domain.Adjudication, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}

	row := r.db.QueryRowContext(ctx, r.rebind(selectAdjudication+" WHERE id = ?"), id)
	adj, err := scanAdjudication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return adj, nil
}

// clampLimit maps a non-positive limit to DefaultListLimit and caps larger
// ones at MaxListLimit.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}

// ListAdjudications returns the most recent adjudications, newest first.
func (r *SQLRepository) ListAdjudications(ctx context.Context, limit int) ([]*domain.Adjudication, error) {
	rows, err := r.db.QueryContext(ctx,
		r.rebind(selectAdjudication+" ORDER BY created_at DESC, id DESC LIMIT ?"), clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAdjudications(rows)
}

// ListAdjudicationsByClaim returns a claim's adjudications, newest first,
// under the same limit rules as ListAdjudications.
func (r *SQLRepository) ListAdjudicationsByClaim(ctx context.Context, claimID string, limit int) ([]*domain.Adjudication, error) {
	if claimID == "" {
		return nil, fmt.Errorf("%w: claimID is required", ErrInvalidInput)
	}

	rows, err := r.db.QueryContext(ctx,
		r.rebind(selectAdjudication+" WHERE claim_id = ? ORDER BY created_at DESC, id DESC LIMIT ?"), claimID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAdjudications(rows)
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdjudication(row rowScanner) (*domain.Adjudication, error) {
	var adj domain.Adjudication
	var status, result, metadata string
	var claim sql.NullString

	if err := row.Scan(&adj.ID, &adj.ClaimID, &status, &adj.CreatedAt, &claim, &result, &metadata); err != nil {
		return nil, err
	}
	adj.Status = domain.ClaimStatus(status)

	adj.Result = &domain.AdjudicationResult{}
	if err := json.Unmarshal([]byte(result), adj.Result); err != nil {
		return nil, fmt.Errorf("failed to parse result for %s: %w", adj.ID, err)
	}
	if err := json.Unmarshal([]byte(metadata), &adj.Metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata for %s: %w", adj.ID, err)
	}
	if claim.Valid && claim.String != "" {
		adj.Claim = &domain.ClaimRecord{}
		if err := json.Unmarshal([]byte(claim.String), adj.Claim); err != nil {
			return nil, fmt.Errorf("failed to parse claim for %s: %w", adj.ID, err)
		}
	}

	return &adj, nil
}

func scanAdjudications(rows *sql.Rows) ([]*domain.Adjudication, error) {
	adjudications := []*domain.Adjudication{}
	for rows.Next() {
		adj, err := scanAdjudication(rows)
		if err != nil {
			return nil, err
		}
		adjudications = append(adjudications, adj)
	}
	return adjudications, rows.Err()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			n++
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
