package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Defaults applied to claim fields the source document leaves out.
const (
	UnknownValue      = "UNKNOWN"
	DefaultSumInsured = 500000.0
)

// ErrInvalidClaim is returned when a claim document cannot be decoded or
// carries values the engine cannot adjudicate.
var ErrInvalidClaim = errors.New("invalid claim")

// ItemCategory classifies a line item as reported by the extraction step.
type ItemCategory string

const (
	CategoryMedicine   ItemCategory = "Medicine"
	CategorySupplement ItemCategory = "Supplement"
	CategoryCosmetic   ItemCategory = "Cosmetic"
	CategoryDiagnostic ItemCategory = "Diagnostic"
	CategoryService    ItemCategory = "Service"
	CategoryOther      ItemCategory = "Other"
)

var knownCategories = []ItemCategory{
	CategoryMedicine,
	CategorySupplement,
	CategoryCosmetic,
	CategoryDiagnostic,
	CategoryService,
	CategoryOther,
}

// ParseItemCategory maps a free-form category to a known one.
// Matching is case-insensitive; anything unrecognised becomes Other.
func ParseItemCategory(s string) ItemCategory {
	s = strings.TrimSpace(s)
	for _, c := range knownCategories {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return CategoryOther
}

// UnmarshalJSON normalizes the category on decode.
func (c *ItemCategory) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = CategoryOther
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = ParseItemCategory(s)
	return nil
}

// LineItem is one priced entry on a claim.
type LineItem struct {
	Name       string       `json:"name"`
	Quantity   int          `json:"quantity"`
	UnitPrice  float64      `json:"unit_price"`
	TotalPrice float64      `json:"total_price"`
	Category   ItemCategory `json:"category"`
}

// UnmarshalJSON accepts a whole-valued float quantity such as 2.0, which
// extraction models commonly emit, and rejects fractional ones.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	type lineItemDoc LineItem
	doc := struct {
		*lineItemDoc
		Quantity *float64 `json:"quantity"`
	}{lineItemDoc: (*lineItemDoc)(li)}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Quantity == nil {
		return nil
	}
	q := *doc.Quantity
	if q != math.Trunc(q) || math.Abs(q) > math.MaxInt32 {
		return fmt.Errorf("line item %q: quantity must be a whole number, got %v", li.Name, q)
	}
	li.Quantity = int(q)
	return nil
}

// FraudSignals is the extraction step's forensic opinion of the source
// document. The adjudication engine never reads it.
type FraudSignals struct {
	Suspicious      bool     `json:"suspicious"`
	FraudIndicators []string `json:"fraud_indicators,omitempty"`
	ConfidenceScore float64  `json:"confidence_score"`
	Recommendation  string   `json:"recommendation,omitempty"`
}

// ClaimRecord is the structured claim consumed by the adjudication engine.
// All optional fields hold explicit defaults after decoding.
type ClaimRecord struct {
	ClaimID      string     `json:"claim_id"`
	ClaimType    string     `json:"claim_type"`
	MerchantName string     `json:"merchant_name"`
	PatientName  string     `json:"patient_name"`
	SumInsured   float64    `json:"sum_insured"`
	TotalAmount  float64    `json:"total_amount"`
	LineItems    []LineItem `json:"line_items"`

	// Passthrough fields from extraction.
	MerchantAddress string        `json:"merchant_address,omitempty"`
	GSTNumber       string        `json:"gst_number,omitempty"`
	Date            string        `json:"date,omitempty"`
	Diagnosis       string        `json:"diagnosis,omitempty"`
	FraudDetection  *FraudSignals `json:"fraud_detection,omitempty"`
}

// claimDocument mirrors ClaimRecord with pointer fields so absent keys can
// be told apart from zero values.
type claimDocument struct {
	ClaimID         *string       `json:"claim_id"`
	ClaimType       *string       `json:"claim_type"`
	MerchantName    *string       `json:"merchant_name"`
	PatientName     *string       `json:"patient_name"`
	SumInsured      *float64      `json:"sum_insured"`
	TotalAmount     *float64      `json:"total_amount"`
	LineItems       []LineItem    `json:"line_items"`
	MerchantAddress string        `json:"merchant_address"`
	GSTNumber       string        `json:"gst_number"`
	Date            string        `json:"date"`
	Diagnosis       string        `json:"diagnosis"`
	FraudDetection  *FraudSignals `json:"fraud_detection"`
}

// UnmarshalJSON decodes a claim and resolves missing optional fields to
// their documented defaults.
func (c *ClaimRecord) UnmarshalJSON(data []byte) error {
	var doc claimDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	*c = ClaimRecord{
		ClaimID:         stringOr(doc.ClaimID, UnknownValue),
		ClaimType:       stringOr(doc.ClaimType, UnknownValue),
		MerchantName:    stringOr(doc.MerchantName, UnknownValue),
		PatientName:     stringOr(doc.PatientName, UnknownValue),
		SumInsured:      DefaultSumInsured,
		LineItems:       doc.LineItems,
		MerchantAddress: doc.MerchantAddress,
		GSTNumber:       doc.GSTNumber,
		Date:            doc.Date,
		Diagnosis:       doc.Diagnosis,
		FraudDetection:  doc.FraudDetection,
	}
	if doc.SumInsured != nil {
		c.SumInsured = *doc.SumInsured
	}
	if doc.TotalAmount != nil {
		c.TotalAmount = *doc.TotalAmount
	}
	if c.LineItems == nil {
		c.LineItems = []LineItem{}
	}
	for i := range c.LineItems {
		if c.LineItems[i].Category == "" {
			c.LineItems[i].Category = CategoryOther
		}
	}
	return nil
}

// ParseClaim decodes and validates a claim document.
func ParseClaim(data []byte) (*ClaimRecord, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidClaim)
	}

	var claim ClaimRecord
	if err := json.Unmarshal(data, &claim); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}
	if err := claim.Validate(); err != nil {
		return nil, err
	}
	return &claim, nil
}

// Validate rejects values that would break the engine's numeric invariants.
func (c *ClaimRecord) Validate() error {
	if c.SumInsured <= 0 {
		return fmt.Errorf("%w: sum_insured must be positive, got %.2f", ErrInvalidClaim, c.SumInsured)
	}
	if c.TotalAmount < 0 {
		return fmt.Errorf("%w: total_amount must not be negative", ErrInvalidClaim)
	}
	for i, item := range c.LineItems {
		if item.TotalPrice < 0 || item.UnitPrice < 0 {
			return fmt.Errorf("%w: line item %d (%q) has a negative price", ErrInvalidClaim, i, item.Name)
		}
		if item.Quantity < 0 {
			return fmt.Errorf("%w: line item %d (%q) has a negative quantity", ErrInvalidClaim, i, item.Name)
		}
	}
	return nil
}

// ItemNames returns the line item names in claim order.
func (c *ClaimRecord) ItemNames() []string {
	names := make([]string, len(c.LineItems))
	for i, item := range c.LineItems {
		names[i] = item.Name
	}
	return names
}

func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
