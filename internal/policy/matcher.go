package policy

import (
	"fmt"
	"strings"

	"github.com/opensource-finance/claimguard/internal/domain"
)

// PartialMatchCategory is the category reported for keyword exclusions.
const PartialMatchCategory = "Partial Match"

// Exclusion is the outcome of matching one line item against the catalog.
type Exclusion struct {
	Excluded bool
	Category string
	Reason   string
}

// Matcher decides whether line items fall into an excluded category.
type Matcher struct {
	catalog *Catalog
}

// NewMatcher creates a matcher over catalog.
func NewMatcher(catalog *Catalog) *Matcher {
	return &Matcher{catalog: catalog}
}

// IsExcluded checks an item name against the excluded categories, then the
// partial-match keywords. Category items match in both directions: the
// listed string inside the name, or the name inside the listed string.
// The first hit wins, in catalog order.
func (m *Matcher) IsExcluded(itemName string) (bool, string, string) {
	name := strings.ToLower(itemName)

	for _, cat := range m.catalog.categories {
		for _, excluded := range cat.items {
			if strings.Contains(name, excluded) || strings.Contains(excluded, name) {
				return true, cat.name, cat.reason
			}
		}
	}

	for _, kw := range m.catalog.keywords {
		if strings.Contains(name, kw.lower) {
			return true, PartialMatchCategory, fmt.Sprintf("Contains excluded keyword: %s", kw.text)
		}
	}

	return false, "", ""
}

// MatchItem runs IsExcluded on the item name and, when nothing matched,
// the catalog's expression rules against the whole item.
func (m *Matcher) MatchItem(item domain.LineItem) (Exclusion, error) {
	if excluded, cat, reason := m.IsExcluded(item.Name); excluded {
		return Exclusion{Excluded: true, Category: cat, Reason: reason}, nil
	}

	for _, expr := range m.catalog.expressions {
		hit, err := expr.matches(item)
		if err != nil {
			return Exclusion{}, err
		}
		if hit {
			return Exclusion{Excluded: true, Category: ExpressionCategory, Reason: expr.rule.Reason}, nil
		}
	}

	return Exclusion{}, nil
}
