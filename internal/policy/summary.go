package policy

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/opensource-finance/claimguard/internal/domain"
)

const bullet = "   • "

// FormatRupees renders an amount with thousands separators and two decimals.
func FormatRupees(v float64) string {
	return "Rs." + humanize.FormatFloat("#,###.##", v)
}

// Summarize renders the human-readable narrative for a claim decision: a
// headline, bullet causes for partial approvals, then claimed, approved and
// deducted amounts.
func Summarize(status domain.ClaimStatus, totalClaimed, totalApproved float64, excludedCount int, deduction domain.DeductionInfo) string {
	var lines []string

	switch status {
	case domain.StatusApproved:
		lines = append(lines, "[OK] Claim FULLY APPROVED - all items comply with policy rules")
	case domain.StatusPartialApproval:
		lines = append(lines, "[WARNING] Claim PARTIALLY APPROVED - deductions applied")
		if excludedCount > 0 {
			lines = append(lines, fmt.Sprintf("%s%d excluded item(s) found and rejected", bullet, excludedCount))
		}
		if deduction.DeductionApplied {
			lines = append(lines, bullet+"Room rent exceeded policy limit - proportionate deduction applied")
		}
	default:
		lines = append(lines, "[REJECT] Claim REJECTED - does not comply with policy")
	}

	lines = append(lines,
		bullet+"Claimed: "+FormatRupees(totalClaimed),
		bullet+"Approved: "+FormatRupees(totalApproved),
		bullet+"Deducted: "+FormatRupees(roundCents(totalClaimed-totalApproved)),
	)

	return strings.Join(lines, "\n")
}
