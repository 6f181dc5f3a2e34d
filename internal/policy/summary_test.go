package policy

import (
	"strings"
	"testing"

	"github.com/opensource-finance/claimguard/internal/domain"
)

func TestFormatRupees(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "Rs.0.00"},
		{450, "Rs.450.00"},
		{5000, "Rs.5,000.00"},
		{82359.38, "Rs.82,359.38"},
		{1234567.891, "Rs.1,234,567.89"},
	}

	for _, tt := range tests {
		if got := FormatRupees(tt.in); got != tt.want {
			t.Errorf("FormatRupees(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	t.Run("Approved", func(t *testing.T) {
		s := Summarize(domain.StatusApproved, 10000, 10000, 0, domain.DeductionInfo{ProportionateRatio: 1})
		lines := strings.Split(s, "\n")
		if len(lines) != 4 {
			t.Fatalf("expected 4 lines, got %d: %q", len(lines), s)
		}
		if lines[0] != "[OK] Claim FULLY APPROVED - all items comply with policy rules" {
			t.Errorf("unexpected headline %q", lines[0])
		}
		if lines[1] != "   • Claimed: Rs.10,000.00" {
			t.Errorf("unexpected claimed line %q", lines[1])
		}
		if lines[3] != "   • Deducted: Rs.0.00" {
			t.Errorf("unexpected deducted line %q", lines[3])
		}
	})

	t.Run("PartialWithBothCauses", func(t *testing.T) {
		s := Summarize(domain.StatusPartialApproval, 80000, 45000, 1, domain.DeductionInfo{DeductionApplied: true})
		lines := strings.Split(s, "\n")
		if len(lines) != 6 {
			t.Fatalf("expected 6 lines, got %d: %q", len(lines), s)
		}
		if lines[1] != "   • 1 excluded item(s) found and rejected" {
			t.Errorf("unexpected exclusion bullet %q", lines[1])
		}
		if lines[2] != "   • Room rent exceeded policy limit - proportionate deduction applied" {
			t.Errorf("unexpected room rent bullet %q", lines[2])
		}
		if lines[5] != "   • Deducted: Rs.35,000.00" {
			t.Errorf("unexpected deducted line %q", lines[5])
		}
	})

	t.Run("Rejected", func(t *testing.T) {
		s := Summarize(domain.StatusRejected, 2949, 0, 2, domain.DeductionInfo{})
		if !strings.HasPrefix(s, "[REJECT] Claim REJECTED - does not comply with policy\n") {
			t.Errorf("unexpected summary %q", s)
		}
		if strings.Contains(s, "excluded item(s)") {
			t.Errorf("rejected summary should not list causes: %q", s)
		}
	})
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		approved, claimed float64
		want              domain.ClaimStatus
	}{
		{0, 1000, domain.StatusRejected},
		{0, 0, domain.StatusRejected},
		{500, 1000, domain.StatusPartialApproval},
		{1000, 1000, domain.StatusApproved},
		{1200, 1000, domain.StatusApproved},
	}

	for _, tt := range tests {
		if got := ClassifyStatus(tt.approved, tt.claimed); got != tt.want {
			t.Errorf("ClassifyStatus(%v, %v) = %s, want %s", tt.approved, tt.claimed, got, tt.want)
		}
	}
}
