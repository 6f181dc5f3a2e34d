// Package review annotates adjudicated line items with a medical-necessity
// verdict for the claim's diagnosis. Verdicts are advisory: they never
// change approved amounts.
package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/opensource-finance/claimguard/internal/domain"
)

// MockReason is the verdict reason used when no model was consulted.
const MockReason = "Mock Approval"

// New creates a necessity reviewer based on configuration. An empty
// provider disables review and returns nil.
func New(cfg domain.ProviderConfig) (domain.NecessityReviewer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIReviewer(cfg)

	case "mock":
		return NewMockReviewer(), nil

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown review provider: %s (supported: openai, mock)", cfg.Provider)
	}
}

// Merge attaches verdicts to the result's decisions by exact item name.
// Items without a verdict are left unannotated.
func Merge(result *domain.AdjudicationResult, verdicts map[string]domain.NecessityVerdict) {
	if result == nil || len(verdicts) == 0 {
		return
	}
	for i := range result.LineItemDecisions {
		if v, ok := verdicts[result.LineItemDecisions[i].ItemName]; ok {
			result.LineItemDecisions[i].Necessity = &v
		}
	}
}

// Flagged returns the names of items whose verdict is not PASS.
func Flagged(result *domain.AdjudicationResult) []string {
	var out []string
	for _, d := range result.LineItemDecisions {
		if d.Necessity != nil && d.Necessity.Status != domain.NecessityPass {
			out = append(out, d.ItemName)
		}
	}
	return out
}

// MockReviewer passes every item.
type MockReviewer struct{}

// NewMockReviewer creates a reviewer that approves everything.
func NewMockReviewer() *MockReviewer {
	return &MockReviewer{}
}

// Name returns the provider name.
func (m *MockReviewer) Name() string {
	return "mock"
}

// ReviewNecessity returns PASS for every item.
func (m *MockReviewer) ReviewNecessity(_ context.Context, _ string, itemNames []string) (map[string]domain.NecessityVerdict, error) {
	return passAll(itemNames), nil
}

func passAll(itemNames []string) map[string]domain.NecessityVerdict {
	out := make(map[string]domain.NecessityVerdict, len(itemNames))
	for _, name := range itemNames {
		out[name] = domain.NecessityVerdict{Status: domain.NecessityPass, Reason: MockReason}
	}
	return out
}
