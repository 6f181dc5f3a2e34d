package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/opensource-finance/claimguard/internal/domain"
)

// DefaultBatchConcurrency bounds in-flight adjudications per batch.
const DefaultBatchConcurrency = 8

// BatchItem is the outcome for one claim of a batch. Exactly one of
// Adjudication and Err is set.
type BatchItem struct {
	Adjudication *domain.Adjudication
	Err          error
}

// AdjudicateBatch adjudicates claims concurrently. Items come back in input
// order; a failed claim does not stop the others. The returned error is
// non-nil only when ctx ends before the batch completes.
func (s *Service) AdjudicateBatch(ctx context.Context, inputs []Input) ([]BatchItem, error) {
	items := make([]BatchItem, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultBatchConcurrency)

	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			adj, err := s.Adjudicate(gctx, in)
			items[i] = BatchItem{Adjudication: adj, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}
