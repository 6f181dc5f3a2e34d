package extract

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/opensource-finance/claimguard/internal/domain"
)

// FileExtractor ignores the image and returns a claim read from disk. It
// stands in for a vision model in development and tests.
type FileExtractor struct {
	path string
}

// NewFileExtractor creates an extractor serving the claim at path.
func NewFileExtractor(path string) (*FileExtractor, error) {
	if path == "" {
		return nil, errors.New("file extractor requires a claim path")
	}
	return &FileExtractor{path: path}, nil
}

// Name returns the provider name.
func (e *FileExtractor) Name() string {
	return "file"
}

// ExtractClaim re-reads the file on every call so edits show up without a
// restart. Documents without fraud signals get a clean bill.
func (e *FileExtractor) ExtractClaim(ctx context.Context, _ []byte, _ string) (*domain.ClaimRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, fmt.Errorf("%w: file: %w", ErrExtractionFailed, err)
	}

	claim, err := decodeClaim(e.Name(), data)
	if err != nil {
		return nil, err
	}
	if claim.FraudDetection == nil {
		claim.FraudDetection = &domain.FraudSignals{
			ConfidenceScore: 1.0,
			Recommendation:  "APPROVE",
		}
	}
	return claim, nil
}
