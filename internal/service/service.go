// Package service orchestrates a claim adjudication: the pure policy engine,
// optional medical-necessity review, persistence, caching, event publication
// and metrics.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/opensource-finance/claimguard/internal/domain"
	"github.com/opensource-finance/claimguard/internal/extract"
	"github.com/opensource-finance/claimguard/internal/metrics"
	"github.com/opensource-finance/claimguard/internal/policy"
	"github.com/opensource-finance/claimguard/internal/review"
)

// EngineVersion is stamped on every adjudication record.
const EngineVersion = "claimguard-1.0"

// Adjudication sources recorded in metadata.
const (
	SourceAPI    = "api"
	SourceUpload = "upload"
	SourceWorker = "worker"
	SourceCLI    = "cli"
)

// ErrUnavailable is returned when an operation needs a component that was
// not configured.
var ErrUnavailable = errors.New("component not configured")

var tracer = otel.Tracer("claimguard-service")

// Options carries the optional collaborators of a Service. Any nil field
// disables the step that needs it.
type Options struct {
	Repository domain.Repository
	Cache      domain.Cache
	Bus        domain.EventBus
	Extractor  domain.ClaimExtractor
	Reviewer   domain.NecessityReviewer
	Metrics    *metrics.Metrics

	// ResultTTL is how long adjudications stay cached
	ResultTTL time.Duration

	// AsyncEnabled reports that a worker consumes the claim-submitted
	// topic. Submit refuses claims when it is false.
	AsyncEnabled bool
}

// Service adjudicates claims and records the outcome.
type Service struct {
	engine    *policy.Engine
	repo      domain.Repository
	cache     domain.Cache
	bus       domain.EventBus
	extractor domain.ClaimExtractor
	reviewer  domain.NecessityReviewer
	metrics   *metrics.Metrics
	resultTTL time.Duration
	async     bool
}

// New creates a service over engine.
func New(engine *policy.Engine, opts Options) (*Service, error) {
	if engine == nil {
		return nil, errors.New("policy engine is required")
	}
	ttl := opts.ResultTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		engine:    engine,
		repo:      opts.Repository,
		cache:     opts.Cache,
		bus:       opts.Bus,
		extractor: opts.Extractor,
		reviewer:  opts.Reviewer,
		metrics:   opts.Metrics,
		resultTTL: ttl,
		async:     opts.AsyncEnabled,
	}, nil
}

// Engine returns the underlying policy engine.
func (s *Service) Engine() *policy.Engine {
	return s.engine
}

// Input is one claim to adjudicate.
type Input struct {
	Claim   *domain.ClaimRecord
	Source  string
	TraceID string
}

// Adjudicate runs one claim through the pipeline. Only an engine error
// fails the call; review, persistence, cache and publish failures are
// logged and the adjudication is still returned.
func (s *Service) Adjudicate(ctx context.Context, in Input) (*domain.Adjudication, error) {
	start := time.Now()

	ctx, span := tracer.Start(ctx, "claimguard.adjudicate",
		trace.WithAttributes(attribute.String("claimguard.source", in.Source)),
	)
	defer span.End()

	result, err := s.engine.Adjudicate(in.Claim)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "adjudication failed")
		return nil, err
	}

	reviewed := s.review(ctx, in.Claim.Diagnosis, result)

	traceID := in.TraceID
	if sc := span.SpanContext(); sc.TraceID().IsValid() {
		traceID = sc.TraceID().String()
	}

	adj := &domain.Adjudication{
		ID:        uuid.New().String(),
		ClaimID:   result.ClaimID,
		Status:    result.Status,
		CreatedAt: time.Now().UTC(),
		Claim:     in.Claim,
		Result:    result,
		Metadata: domain.AdjudicationMetadata{
			TraceID:       traceID,
			Source:        in.Source,
			Reviewed:      reviewed,
			TotalMs:       time.Since(start).Milliseconds(),
			EngineVersion: EngineVersion,
		},
	}

	s.record(ctx, adj)
	s.metrics.ObserveAdjudication(result, time.Since(start))

	span.SetAttributes(
		attribute.String("claimguard.claim_id", result.ClaimID),
		attribute.String("claimguard.status", string(result.Status)),
		attribute.Int("claimguard.items", len(result.LineItemDecisions)),
	)

	slog.Info("claim adjudicated",
		"adjudication_id", adj.ID,
		"claim_id", adj.ClaimID,
		"status", adj.Status,
		"total_claimed", result.TotalClaimed,
		"total_approved", result.TotalApproved,
		"source", in.Source,
		"trace_id", traceID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return adj, nil
}

// review attaches necessity verdicts and reports whether any were merged.
func (s *Service) review(ctx context.Context, diagnosis string, result *domain.AdjudicationResult) bool {
	if s.reviewer == nil || len(result.LineItemDecisions) == 0 {
		return false
	}

	names := make([]string, len(result.LineItemDecisions))
	for i, d := range result.LineItemDecisions {
		names[i] = d.ItemName
	}

	start := time.Now()
	verdicts, err := s.reviewer.ReviewNecessity(ctx, diagnosis, names)
	s.metrics.ObserveReview(s.reviewer.Name(), err, time.Since(start))
	if err != nil {
		slog.Warn("necessity review failed",
			"claim_id", result.ClaimID,
			"provider", s.reviewer.Name(),
			"error", err,
		)
		return false
	}

	review.Merge(result, verdicts)
	if flagged := review.Flagged(result); len(flagged) > 0 {
		slog.Info("necessity review flagged items",
			"claim_id", result.ClaimID,
			"items", flagged,
		)
	}
	return true
}

// record persists, caches and publishes an adjudication.
func (s *Service) record(ctx context.Context, adj *domain.Adjudication) {
	if s.repo != nil {
		if err := s.repo.SaveAdjudication(ctx, adj); err != nil {
			slog.Error("failed to save adjudication",
				"adjudication_id", adj.ID,
				"claim_id", adj.ClaimID,
				"error", err,
			)
		}
	}

	if s.cache != nil {
		if err := s.cache.SetAdjudication(ctx, adj, s.resultTTL); err != nil {
			slog.Warn("failed to cache adjudication",
				"adjudication_id", adj.ID,
				"error", err,
			)
		}
	}

	if s.bus != nil {
		payload, err := json.Marshal(adj)
		if err == nil {
			err = s.bus.Publish(ctx, domain.TopicClaimAdjudicated, payload)
		}
		if err != nil {
			slog.Error("failed to publish adjudication",
				"adjudication_id", adj.ID,
				"error", err,
			)
		}
	}
}

// Analyze extracts a claim from a receipt image and adjudicates it.
func (s *Service) Analyze(ctx context.Context, image []byte, mimeType, traceID string) (*domain.Adjudication, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("claim extraction: %w", ErrUnavailable)
	}

	start := time.Now()
	claim, err := s.extractor.ExtractClaim(ctx, image, mimeType)
	if err == nil {
		err = checkExtracted(s.extractor.Name(), claim)
	}
	s.metrics.ObserveExtraction(s.extractor.Name(), err, time.Since(start))
	if err != nil {
		return nil, err
	}

	slog.Debug("claim extracted",
		"provider", s.extractor.Name(),
		"claim_id", claim.ClaimID,
		"line_items", len(claim.LineItems),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return s.Adjudicate(ctx, Input{Claim: claim, Source: SourceUpload, TraceID: traceID})
}

// checkExtracted reports a missing or invalid extracted claim as an
// extraction failure rather than a client error.
func checkExtracted(provider string, claim *domain.ClaimRecord) error {
	if claim == nil {
		return fmt.Errorf("%w: %s: no claim returned", extract.ErrExtractionFailed, provider)
	}
	if err := claim.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", extract.ErrExtractionFailed, provider, err)
	}
	return nil
}

// Get returns an adjudication by ID, reading through the cache.
func (s *Service) Get(ctx context.Context, id string) (*domain.Adjudication, error) {
	if s.cache != nil {
		adj, err := s.cache.GetAdjudication(ctx, id)
		if err != nil {
			slog.Warn("cache read failed", "adjudication_id", id, "error", err)
		} else if adj != nil {
			return adj, nil
		}
	}

	if s.repo == nil {
		return nil, fmt.Errorf("adjudication history: %w", ErrUnavailable)
	}

	adj, err := s.repo.GetAdjudication(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetAdjudication(ctx, adj, s.resultTTL); err != nil {
			slog.Warn("failed to cache adjudication", "adjudication_id", id, "error", err)
		}
	}
	return adj, nil
}

// List returns recent adjudications, newest first. A claimID narrows the
// list to that claim's history.
func (s *Service) List(ctx context.Context, claimID string, limit int) ([]*domain.Adjudication, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("adjudication history: %w", ErrUnavailable)
	}
	if claimID != "" {
		return s.repo.ListAdjudicationsByClaim(ctx, claimID, limit)
	}
	return s.repo.ListAdjudications(ctx, limit)
}

// Submission is the payload published on the claim-submitted topic.
type Submission struct {
	ID          string              `json:"id"`
	Claim       *domain.ClaimRecord `json:"claim"`
	TraceID     string              `json:"traceId,omitempty"`
	SubmittedAt time.Time           `json:"submittedAt"`
}

// Submit queues a claim for asynchronous adjudication and returns the
// submission ID. The claim is validated up front so a bad claim is
// rejected to the caller rather than dropped by a worker.
func (s *Service) Submit(ctx context.Context, claim *domain.ClaimRecord, traceID string) (string, error) {
	if s.bus == nil {
		return "", fmt.Errorf("event bus: %w", ErrUnavailable)
	}
	if !s.async {
		return "", fmt.Errorf("async adjudication: no worker is running: %w", ErrUnavailable)
	}
	if claim == nil {
		return "", fmt.Errorf("%w: claim is required", domain.ErrInvalidClaim)
	}
	if err := claim.Validate(); err != nil {
		return "", err
	}

	sub := Submission{
		ID:          uuid.New().String(),
		Claim:       claim,
		TraceID:     traceID,
		SubmittedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		return "", fmt.Errorf("failed to encode submission: %w", err)
	}
	if err := s.bus.Publish(ctx, domain.TopicClaimSubmitted, payload); err != nil {
		return "", fmt.Errorf("failed to publish submission: %w", err)
	}
	return sub.ID, nil
}

// Health pings every configured backend and returns the failures by
// component name.
func (s *Service) Health(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	if s.repo != nil {
		if err := s.repo.Ping(ctx); err != nil {
			failures["repository"] = err
		}
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			failures["cache"] = err
		}
	}
	if s.bus != nil {
		if err := s.bus.Ping(ctx); err != nil {
			failures["bus"] = err
		}
	}
	return failures
}
