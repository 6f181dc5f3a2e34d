package main

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/opensource-finance/claimguard/internal/domain"
)

// Scenario is the shape of a synthetic claim and determines its expected
// outcome under the stock rule catalog.
type Scenario string

const (
	ScenarioClean        Scenario = "clean"
	ScenarioMixed        Scenario = "mixed"
	ScenarioExcludedOnly Scenario = "excluded_only"
	ScenarioRoomRent     Scenario = "room_rent_over_limit"
)

var scenarios = []Scenario{ScenarioClean, ScenarioMixed, ScenarioExcludedOnly, ScenarioRoomRent}

// Expected returns the claim status the scenario should produce.
func (s Scenario) Expected() domain.ClaimStatus {
	switch s {
	case ScenarioExcludedOnly:
		return domain.StatusRejected
	case ScenarioMixed, ScenarioRoomRent:
		return domain.StatusPartialApproval
	default:
		return domain.StatusApproved
	}
}

// LabelledClaim is a synthetic claim together with its expected status.
type LabelledClaim struct {
	Scenario Scenario
	Claim    *domain.ClaimRecord
}

var (
	medicines = []string{
		"Paracetamol 500mg", "Amoxicillin 250mg", "Dolo-650", "Azithromycin 500mg",
		"Cetirizine 10mg", "Pantoprazole 40mg", "ORS Sachet", "Cough Syrup",
	}
	excludedItems = []string{
		"Whey Protein", "Protein Powder", "Multivitamin Gummies", "Moisturizer",
		"Sunscreen", "Face Wash", "Diapers", "Toothpaste",
	}
	sumInsuredChoices = []float64{100000, 200000, 300000, 500000, 1000000}
)

// Generator produces deterministic synthetic claims from a seed.
type Generator struct {
	rng *rand.Rand
	seq int
}

// NewGenerator creates a generator. The same seed yields the same claims.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate returns n claims cycling through every scenario.
func (g *Generator) Generate(n int) []LabelledClaim {
	out := make([]LabelledClaim, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.Next(scenarios[i%len(scenarios)]))
	}
	return out
}

// Next builds one claim for the given scenario.
func (g *Generator) Next(s Scenario) LabelledClaim {
	g.seq++
	sumInsured := sumInsuredChoices[g.rng.Intn(len(sumInsuredChoices))]

	var items []domain.LineItem
	switch s {
	case ScenarioClean:
		items = g.medicines(1 + g.rng.Intn(4))
	case ScenarioMixed:
		items = append(g.medicines(1+g.rng.Intn(3)), g.excluded(1+g.rng.Intn(2))...)
	case ScenarioExcludedOnly:
		items = g.excluded(1 + g.rng.Intn(3))
	case ScenarioRoomRent:
		allowed := sumInsured * 0.01
		rate := roundCents(allowed * (1.2 + g.rng.Float64()))
		days := 1 + g.rng.Intn(5)
		items = append(g.medicines(1+g.rng.Intn(3)), domain.LineItem{
			Name:       "Room Rent",
			Quantity:   days,
			UnitPrice:  rate,
			TotalPrice: roundCents(rate * float64(days)),
			Category:   domain.CategoryOther,
		})
	}

	var total float64
	for _, item := range items {
		total += item.TotalPrice
	}

	return LabelledClaim{
		Scenario: s,
		Claim: &domain.ClaimRecord{
			ClaimID:      fmt.Sprintf("CLM-BENCH-%06d", g.seq),
			ClaimType:    "pharmacy_reimbursement",
			MerchantName: "Benchmark Pharmacy",
			PatientName:  fmt.Sprintf("Patient %d", g.seq),
			SumInsured:   sumInsured,
			TotalAmount:  roundCents(total),
			LineItems:    items,
		},
	}
}

func (g *Generator) medicines(n int) []domain.LineItem {
	return g.pick(medicines, n, domain.CategoryMedicine, 20, 2000)
}

func (g *Generator) excluded(n int) []domain.LineItem {
	return g.pick(excludedItems, n, domain.CategoryOther, 100, 3000)
}

func (g *Generator) pick(names []string, n int, category domain.ItemCategory, lo, hi float64) []domain.LineItem {
	items := make([]domain.LineItem, 0, n)
	for _, idx := range g.rng.Perm(len(names))[:n] {
		qty := 1 + g.rng.Intn(3)
		price := roundCents(lo + g.rng.Float64()*(hi-lo))
		items = append(items, domain.LineItem{
			Name:       names[idx],
			Quantity:   qty,
			UnitPrice:  price,
			TotalPrice: roundCents(price * float64(qty)),
			Category:   category,
		})
	}
	return items
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
