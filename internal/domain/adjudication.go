package domain

import (
	"time"
)

// ClaimStatus is the overall outcome of an adjudication.
type ClaimStatus string

const (
	StatusApproved        ClaimStatus = "APPROVED"
	StatusPartialApproval ClaimStatus = "PARTIAL_APPROVAL"
	StatusRejected        ClaimStatus = "REJECTED"
)

// ItemStatus is the binary verdict for a single line item.
type ItemStatus string

const (
	ItemApproved ItemStatus = "APPROVED"
	ItemRejected ItemStatus = "REJECTED"
)

// LineItemDecision is the per-item verdict.
type LineItemDecision struct {
	ItemName       string     `json:"item_name"`
	ClaimedAmount  float64    `json:"claimed_amount"`
	ApprovedAmount float64    `json:"approved_amount"`
	Status         ItemStatus `json:"status"`
	Reason         string     `json:"reason"`

	// Necessity is attached after adjudication by a medical reviewer.
	// It never changes ApprovedAmount.
	Necessity *NecessityVerdict `json:"medical_necessity,omitempty"`
}

// DeductionInfo describes the room-rent proportionate deduction for a claim.
type DeductionInfo struct {
	ProportionateRatio float64 `json:"proportionate_ratio"`
	DeductionApplied   bool    `json:"deduction_applied"`
	DeductionReason    *string `json:"deduction_reason"`
	AllowedRoomRent    float64 `json:"allowed_room_rent"`
	ActualRoomRent     float64 `json:"actual_room_rent"`
}

// AdjudicationResult is the complete decision for one claim.
type AdjudicationResult struct {
	ClaimID      string `json:"claim_id"`
	ClaimType    string `json:"claim_type"`
	MerchantName string `json:"merchant_name"`
	PatientName  string `json:"patient_name"`

	TotalClaimed  float64 `json:"total_claimed"`
	TotalApproved float64 `json:"total_approved"`
	TotalDeducted float64 `json:"total_deducted"`

	Status                   ClaimStatus        `json:"status"`
	ExcludedItemsCount       int                `json:"excluded_items_count"`
	RoomRentDeductionApplied bool               `json:"room_rent_deduction_applied"`
	DeductionReason          *string            `json:"deduction_reason"`
	LineItemDecisions        []LineItemDecision `json:"line_item_decisions"`
	Summary                  string             `json:"summary"`
}

// Adjudication is a persisted adjudication result.
type Adjudication struct {
	ID        string               `json:"id"`
	ClaimID   string               `json:"claimId"`
	Status    ClaimStatus          `json:"status"`
	CreatedAt time.Time            `json:"createdAt"`
	Claim     *ClaimRecord         `json:"claim,omitempty"`
	Result    *AdjudicationResult  `json:"result"`
	Metadata  AdjudicationMetadata `json:"metadata"`
}

// AdjudicationMetadata contains processing information.
type AdjudicationMetadata struct {
	TraceID       string `json:"traceId,omitempty"`
	Source        string `json:"source"` // "api", "upload", "worker", "cli"
	Reviewed      bool   `json:"reviewed"`
	TotalMs       int64  `json:"totalMs"`
	EngineVersion string `json:"engineVersion"`
}

// Fraction returns the approved share of the claimed total, or 0 for an
// empty claim.
func (r *AdjudicationResult) Fraction() float64 {
	if r.TotalClaimed <= 0 {
		return 0
	}
	return r.TotalApproved / r.TotalClaimed
}

// RejectedItems returns the decisions with status REJECTED.
func (r *AdjudicationResult) RejectedItems() []LineItemDecision {
	var out []LineItemDecision
	for _, d := range r.LineItemDecisions {
		if d.Status == ItemRejected {
			out = append(out, d)
		}
	}
	return out
}
