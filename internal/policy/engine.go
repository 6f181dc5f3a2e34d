package policy

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/opensource-finance/claimguard/internal/domain"
)

// Engine adjudicates claims against one catalog. It holds no mutable state
// and may be shared across goroutines.
type Engine struct {
	catalog *Catalog
	matcher *Matcher
}

// NewEngine creates an adjudication engine over catalog.
func NewEngine(catalog *Catalog) (*Engine, error) {
	if catalog == nil {
		return nil, errors.New("rule catalog is required")
	}
	return &Engine{
		catalog: catalog,
		matcher: NewMatcher(catalog),
	}, nil
}

// NewEngineFromFile loads the catalog at path and builds an engine on it.
func NewEngineFromFile(path string) (*Engine, error) {
	catalog, err := LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return NewEngine(catalog)
}

// Catalog returns the engine's rule catalog.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Matcher returns the engine's exclusion matcher.
func (e *Engine) Matcher() *Matcher {
	return e.matcher
}

// Decide produces one decision per line item, in input order, together with
// the deduction info whose ratio was applied.
func (e *Engine) Decide(claim *domain.ClaimRecord) ([]domain.LineItemDecision, domain.DeductionInfo, error) {
	deduction := e.catalog.ComputeDeduction(claim)
	ratio := deduction.ProportionateRatio

	decisions := make([]domain.LineItemDecision, 0, len(claim.LineItems))
	for i, item := range claim.LineItems {
		decision := domain.LineItemDecision{
			ItemName:      item.Name,
			ClaimedAmount: item.TotalPrice,
		}

		exclusion, err := e.matcher.MatchItem(item)
		if err != nil {
			return nil, domain.DeductionInfo{}, fmt.Errorf("line item %d (%q): %w", i, item.Name, err)
		}

		if exclusion.Excluded {
			decision.Status = domain.ItemRejected
			decision.ApprovedAmount = 0
			decision.Reason = fmt.Sprintf("Excluded: %s - %s", exclusion.Category, exclusion.Reason)
		} else {
			decision.Status = domain.ItemApproved
			decision.ApprovedAmount = roundCents(item.TotalPrice * ratio)
			decision.Reason = approvalReason(item.Name, deduction)
		}

		decisions = append(decisions, decision)
	}

	return decisions, deduction, nil
}

// Adjudicate decides every line item, aggregates the totals and renders the
// summary. It returns either a complete result or an error.
func (e *Engine) Adjudicate(claim *domain.ClaimRecord) (*domain.AdjudicationResult, error) {
	if claim == nil {
		return nil, fmt.Errorf("%w: claim is required", domain.ErrInvalidClaim)
	}
	if err := claim.Validate(); err != nil {
		return nil, err
	}

	decisions, deduction, err := e.Decide(claim)
	if err != nil {
		return nil, err
	}

	totals := Aggregate(decisions, claim.TotalAmount)

	return &domain.AdjudicationResult{
		ClaimID:                  claim.ClaimID,
		ClaimType:                claim.ClaimType,
		MerchantName:             claim.MerchantName,
		PatientName:              claim.PatientName,
		TotalClaimed:             totals.TotalClaimed,
		TotalApproved:            totals.TotalApproved,
		TotalDeducted:            totals.TotalDeducted,
		Status:                   totals.Status,
		ExcludedItemsCount:       totals.ExcludedCount,
		RoomRentDeductionApplied: deduction.DeductionApplied,
		DeductionReason:          deduction.DeductionReason,
		LineItemDecisions:        decisions,
		Summary:                  Summarize(totals.Status, totals.TotalClaimed, totals.TotalApproved, totals.ExcludedCount, deduction),
	}, nil
}

func approvalReason(itemName string, deduction domain.DeductionInfo) string {
	if !deduction.DeductionApplied {
		return "Approved - complies with policy"
	}
	if strings.Contains(strings.ToLower(itemName), "room rent") {
		return fmt.Sprintf("Room rent capped at policy limit (%s/day)", FormatRupees(deduction.AllowedRoomRent))
	}
	return fmt.Sprintf("Approved with proportionate deduction (%.2f%%)", deduction.ProportionateRatio*100)
}

// roundCents rounds half away from zero to two decimal places.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
