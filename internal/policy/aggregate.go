package policy

import (
	"github.com/opensource-finance/claimguard/internal/domain"
)

// Totals holds the claim-level figures derived from item decisions.
type Totals struct {
	TotalClaimed  float64
	TotalApproved float64
	TotalDeducted float64
	Status        domain.ClaimStatus
	ExcludedCount int
}

// Aggregate sums approved amounts and classifies the claim.
//
// totalClaimed is the source document's stated total and is never
// recomputed from the items. A claim with nothing approved, including one
// with no line items, is REJECTED.
func Aggregate(decisions []domain.LineItemDecision, totalClaimed float64) Totals {
	var approved float64
	excluded := 0
	for _, d := range decisions {
		if d.Status == domain.ItemRejected {
			excluded++
			continue
		}
		approved += d.ApprovedAmount
	}

	t := Totals{
		TotalClaimed:  roundCents(totalClaimed),
		TotalApproved: roundCents(approved),
		ExcludedCount: excluded,
	}
	t.TotalDeducted = roundCents(t.TotalClaimed - t.TotalApproved)
	t.Status = ClassifyStatus(t.TotalApproved, t.TotalClaimed)
	return t
}

// ClassifyStatus maps approved and claimed totals to a claim status.
func ClassifyStatus(totalApproved, totalClaimed float64) domain.ClaimStatus {
	switch {
	case totalApproved == 0:
		return domain.StatusRejected
	case totalApproved < totalClaimed:
		return domain.StatusPartialApproval
	default:
		return domain.StatusApproved
	}
}
