package domain

import (
	"context"
)

// ClaimExtractor turns a claim document image into a structured claim.
// Implementations may call out to vision models; the engine never cares
// which provider produced its input.
type ClaimExtractor interface {
	// Name returns the provider name.
	Name() string

	// ExtractClaim reads a receipt image and returns the decoded claim.
	ExtractClaim(ctx context.Context, image []byte, mimeType string) (*ClaimRecord, error)
}

// NecessityReviewer annotates line items with a clinical-appropriateness
// verdict for a diagnosis.
type NecessityReviewer interface {
	// Name returns the provider name.
	Name() string

	// ReviewNecessity maps each item name to a verdict.
	ReviewNecessity(ctx context.Context, diagnosis string, itemNames []string) (map[string]NecessityVerdict, error)
}

// NecessityStatus is the reviewer's clinical verdict.
type NecessityStatus string

const (
	NecessityPass            NecessityStatus = "PASS"
	NecessityFlag            NecessityStatus = "FLAG"
	NecessityContraindicated NecessityStatus = "CONTRAINDICATED"
)

// NecessityVerdict is one item's medical-necessity annotation.
type NecessityVerdict struct {
	Status   NecessityStatus `json:"status"`
	Reason   string          `json:"reason"`
	Severity string          `json:"severity,omitempty"`
}

// ProviderConfig holds configuration for an external model provider.
type ProviderConfig struct {
	// Provider name: "openai", "file", "mock" or "" (disabled)
	Provider string `json:"provider"`

	Model   string `json:"model"`
	APIKey  string `json:"-"`
	BaseURL string `json:"baseUrl"`

	// Timeout for a single API request, in seconds
	Timeout int `json:"timeout"`

	MaxTokens int `json:"maxTokens"`

	// RequestsPerSecond caps outbound calls; 0 disables the limiter
	RequestsPerSecond float64 `json:"requestsPerSecond"`

	// MockPath is the claim document returned by the file provider
	MockPath string `json:"mockPath"`
}
