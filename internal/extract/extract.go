// Package extract turns receipt images into structured claims.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opensource-finance/claimguard/internal/domain"
)

// ErrExtractionFailed wraps every provider failure, including replies that
// do not decode into a valid claim.
var ErrExtractionFailed = errors.New("claim extraction failed")

// New creates a claim extractor based on configuration. An empty provider
// disables extraction and returns nil.
func New(cfg domain.ProviderConfig) (domain.ClaimExtractor, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIExtractor(cfg)

	case "file", "mock":
		return NewFileExtractor(cfg.MockPath)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown extraction provider: %s (supported: openai, file, mock)", cfg.Provider)
	}
}

// decodeClaim parses a provider reply into a claim.
func decodeClaim(provider string, data []byte) (*domain.ClaimRecord, error) {
	claim, err := domain.ParseClaim(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, provider, err)
	}
	return claim, nil
}
