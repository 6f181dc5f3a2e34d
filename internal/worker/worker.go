// Package worker adjudicates claims submitted on the event bus.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opensource-finance/claimguard/internal/domain"
	"github.com/opensource-finance/claimguard/internal/service"
)

// ErrWorkerStopped is returned for messages delivered after Stop.
var ErrWorkerStopped = errors.New("worker stopped")

// Adjudicator runs one claim through the adjudication pipeline.
type Adjudicator interface {
	Adjudicate(ctx context.Context, in service.Input) (*domain.Adjudication, error)
}

// Worker consumes claim submissions from the EventBus.
type Worker struct {
	bus         domain.EventBus
	adjudicator Adjudicator

	// mu guards subscriptions and stopped; wg.Add happens under it so
	// Stop's Wait never races a late delivery.
	mu            sync.Mutex
	subscriptions []domain.Subscription
	stopped       bool
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc

	processed atomic.Int64
	failed    atomic.Int64
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, adjudicator Adjudicator) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:         bus,
		adjudicator: adjudicator,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start subscribes to the claim-submitted topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicClaimSubmitted, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", domain.TopicClaimSubmitted, err)
	}

	w.mu.Lock()
	w.subscriptions = append(w.subscriptions, sub)
	w.mu.Unlock()

	slog.Info("worker started", "topic", domain.TopicClaimSubmitted)
	return nil
}

// handleMessage adjudicates one submission. The service publishes the
// outcome on the adjudicated topic.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	if !w.begin() {
		return ErrWorkerStopped
	}
	defer w.wg.Done()

	start := time.Now()

	var sub service.Submission
	if err := json.Unmarshal(msg.Payload, &sub); err != nil {
		w.failed.Add(1)
		slog.Error("failed to parse claim submission",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}
	if sub.Claim == nil {
		w.failed.Add(1)
		return fmt.Errorf("%w: submission %s carries no claim", domain.ErrInvalidClaim, sub.ID)
	}

	traceID := sub.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	slog.Debug("processing claim submission",
		"submission_id", sub.ID,
		"claim_id", sub.Claim.ClaimID,
		"trace_id", traceID,
	)

	adj, err := w.adjudicator.Adjudicate(ctx, service.Input{
		Claim:   sub.Claim,
		Source:  service.SourceWorker,
		TraceID: traceID,
	})
	if err != nil {
		w.failed.Add(1)
		slog.Error("claim adjudication failed",
			"submission_id", sub.ID,
			"claim_id", sub.Claim.ClaimID,
			"error", err,
		)
		return err
	}

	w.processed.Add(1)
	slog.Info("claim submission processed",
		"submission_id", sub.ID,
		"adjudication_id", adj.ID,
		"status", adj.Status,
		"queue_ms", start.Sub(sub.SubmittedAt).Milliseconds(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// begin registers an in-flight message unless the worker is stopping.
func (w *Worker) begin() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return false
	}
	w.wg.Add(1)
	return true
}

// Stop unsubscribes and waits for in-flight submissions.
func (w *Worker) Stop() error {
	w.mu.Lock()
	w.stopped = true
	subs := w.subscriptions
	w.subscriptions = nil
	w.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}

	w.cancel()
	w.wg.Wait()

	slog.Info("worker stopped",
		"processed", w.processed.Load(),
		"failed", w.failed.Load(),
	)
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
	Processed         int64    `json:"processed"`
	Failed            int64    `json:"failed"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
		Processed:         w.processed.Load(),
		Failed:            w.failed.Load(),
	}
}
