package policy

import (
	"fmt"
	"os"

	"github.com/opensource-finance/claimguard/internal/domain"
)

// LoadClaim reads and validates a claim document from disk.
func LoadClaim(path string) (*domain.ClaimRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrInvalidClaim, path, err)
	}
	return domain.ParseClaim(data)
}
