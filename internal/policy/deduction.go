package policy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/opensource-finance/claimguard/internal/domain"
)

// isRoomRentLine reports whether a line item is the room charge that
// determines the proportionate ratio.
func isRoomRentLine(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "room rent") || strings.Contains(lower, "room charge")
}

// ComputeDeduction derives the room-rent ceiling from the claim's sum
// insured and compares it with the first room-rent line. The resulting
// ratio scales every non-excluded item on the claim.
func (c *Catalog) ComputeDeduction(claim *domain.ClaimRecord) domain.DeductionInfo {
	allowed := claim.SumInsured * (c.roomRentPct / 100)

	info := domain.DeductionInfo{
		ProportionateRatio: 1.0,
		AllowedRoomRent:    allowed,
	}

	found := false
	for _, item := range claim.LineItems {
		if isRoomRentLine(item.Name) {
			info.ActualRoomRent = item.UnitPrice
			found = true
			break
		}
	}

	if found && info.ActualRoomRent > allowed {
		info.ProportionateRatio = allowed / info.ActualRoomRent
		info.DeductionApplied = true
		reason := fmt.Sprintf(
			"Room rent of %s/day exceeds allowed limit of %s/day (%s%% of %s sum insured). Proportionate deduction ratio: %.4f",
			FormatRupees(info.ActualRoomRent),
			FormatRupees(allowed),
			strconv.FormatFloat(c.roomRentPct, 'f', -1, 64),
			FormatRupees(claim.SumInsured),
			info.ProportionateRatio,
		)
		info.DeductionReason = &reason
	}

	return info
}
