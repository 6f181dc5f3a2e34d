// Package policy implements the claim adjudication engine: the rule catalog,
// exclusion matching, room-rent proportionate deduction, per-item decisions,
// aggregation and summaries.
package policy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrCatalogInvalid is returned when a rule catalog is missing or malformed.
var ErrCatalogInvalid = errors.New("invalid rule catalog")

// DefaultRoomRentPercentage applies when the catalog omits room_rent_rules.
const DefaultRoomRentPercentage = 1.0

// ExcludedCategory is one group of never-reimbursable items.
type ExcludedCategory struct {
	Category string   `json:"category" yaml:"category"`
	Reason   string   `json:"reason" yaml:"reason"`
	Items    []string `json:"items" yaml:"items"`
}

// ExpressionRule excludes items matching a CEL boolean expression.
type ExpressionRule struct {
	ID         string `json:"id" yaml:"id"`
	Reason     string `json:"reason" yaml:"reason"`
	Expression string `json:"expression" yaml:"expression"`
}

// CatalogSpec is the on-disk shape of a rule catalog.
type CatalogSpec struct {
	ExcludedItems ExcludedItemsSpec `json:"excluded_items" yaml:"excluded_items"`
	RoomRentRules RoomRentSpec      `json:"room_rent_rules" yaml:"room_rent_rules"`
}

// ExcludedItemsSpec groups every exclusion mechanism.
type ExcludedItemsSpec struct {
	Categories           []ExcludedCategory `json:"categories" yaml:"categories"`
	PartialMatchKeywords []string           `json:"partial_match_keywords" yaml:"partial_match_keywords"`
	ExpressionRules      []ExpressionRule   `json:"expression_rules,omitempty" yaml:"expression_rules,omitempty"`
}

// RoomRentSpec holds the room-rent limit parameters.
type RoomRentSpec struct {
	// AllowedPercentage is the share of sum insured payable per day.
	AllowedPercentage *float64 `json:"allowed_percentage" yaml:"allowed_percentage"`
}

// Catalog is an immutable, validated rule catalog. It is safe for
// concurrent use by any number of adjudications.
type Catalog struct {
	categories  []category
	keywords    []keyword
	expressions []*compiledExpression
	roomRentPct float64
	spec        CatalogSpec
}

type category struct {
	name   string
	reason string
	items  []string // lower-cased
}

type keyword struct {
	text  string
	lower string
}

// LoadCatalog reads a rule catalog from disk. The format follows the file
// extension: .yaml/.yml is YAML, anything else is JSON.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrCatalogInvalid, path, err)
	}

	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}

	return ParseCatalog(data, format)
}

// ParseCatalog decodes a catalog document in the given format ("json" or "yaml").
func ParseCatalog(data []byte, format string) (*Catalog, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrCatalogInvalid)
	}

	var spec CatalogSpec
	var err error
	switch format {
	case "json":
		err = json.Unmarshal(data, &spec)
	case "yaml":
		err = yaml.Unmarshal(data, &spec)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrCatalogInvalid, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrCatalogInvalid, format, err)
	}

	return NewCatalog(spec)
}

// NewCatalog validates spec and builds an immutable catalog from it.
func NewCatalog(spec CatalogSpec) (*Catalog, error) {
	c := &Catalog{
		roomRentPct: DefaultRoomRentPercentage,
		spec:        cloneSpec(spec),
	}

	if p := spec.RoomRentRules.AllowedPercentage; p != nil {
		if *p <= 0 || *p > 100 {
			return nil, fmt.Errorf("%w: room_rent_rules.allowed_percentage must be in (0, 100], got %v", ErrCatalogInvalid, *p)
		}
		c.roomRentPct = *p
	}

	for i, cat := range spec.ExcludedItems.Categories {
		if strings.TrimSpace(cat.Category) == "" {
			return nil, fmt.Errorf("%w: categories[%d] has no name", ErrCatalogInvalid, i)
		}
		items := make([]string, len(cat.Items))
		for j, item := range cat.Items {
			items[j] = strings.ToLower(item)
		}
		c.categories = append(c.categories, category{
			name:   cat.Category,
			reason: cat.Reason,
			items:  items,
		})
	}

	for _, kw := range spec.ExcludedItems.PartialMatchKeywords {
		c.keywords = append(c.keywords, keyword{text: kw, lower: strings.ToLower(kw)})
	}

	if len(spec.ExcludedItems.ExpressionRules) > 0 {
		compiled, err := compileExpressions(spec.ExcludedItems.ExpressionRules)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCatalogInvalid, err)
		}
		c.expressions = compiled
	}

	return c, nil
}

// RoomRentPercentage returns the share of sum insured allowed per day.
func (c *Catalog) RoomRentPercentage() float64 {
	return c.roomRentPct
}

// CategoryCount returns the number of excluded categories.
func (c *Catalog) CategoryCount() int {
	return len(c.categories)
}

// KeywordCount returns the number of partial-match keywords.
func (c *Catalog) KeywordCount() int {
	return len(c.keywords)
}

// ExpressionCount returns the number of compiled expression rules.
func (c *Catalog) ExpressionCount() int {
	return len(c.expressions)
}

// Spec returns a copy of the document the catalog was built from, with the
// effective room-rent percentage filled in.
func (c *Catalog) Spec() CatalogSpec {
	spec := cloneSpec(c.spec)
	pct := c.roomRentPct
	spec.RoomRentRules.AllowedPercentage = &pct
	return spec
}

func cloneSpec(spec CatalogSpec) CatalogSpec {
	out := CatalogSpec{}
	for _, cat := range spec.ExcludedItems.Categories {
		out.ExcludedItems.Categories = append(out.ExcludedItems.Categories, ExcludedCategory{
			Category: cat.Category,
			Reason:   cat.Reason,
			Items:    append([]string(nil), cat.Items...),
		})
	}
	out.ExcludedItems.PartialMatchKeywords = append([]string(nil), spec.ExcludedItems.PartialMatchKeywords...)
	out.ExcludedItems.ExpressionRules = append([]ExpressionRule(nil), spec.ExcludedItems.ExpressionRules...)
	if p := spec.RoomRentRules.AllowedPercentage; p != nil {
		v := *p
		out.RoomRentRules.AllowedPercentage = &v
	}
	return out
}
