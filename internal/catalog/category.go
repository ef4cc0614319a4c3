package catalog

import (
	"fmt"
	"strings"
)

// Category is a property-type bucket.
type Category string

const (
	Office      Category = "office"
	Retail      Category = "retail"
	Industrial  Category = "industrial"
	Multifamily Category = "multifamily"
)

// Categories lists every bucket in matching precedence order.
var Categories = []Category{Office, Retail, Industrial, Multifamily}

// ParseCategory accepts one of the four bucket names.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Label is the display name used in brief headings ("Office", "Multifamily").
func (c Category) Label() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

var keywords = []struct {
	category Category
	words    []string
}{
	{Office, []string{"office", "commercial"}},
	{Retail, []string{"retail", "shop", "store"}},
	{Industrial, []string{"industrial", "warehouse", "distribution", "manufacturing"}},
	{Multifamily, []string{"multi", "apartment", "residential", "condo"}},
}

// Classify maps free text to a category by case-insensitive substring match.
// ok is false when no keyword matched and the office fallback was used.
func Classify(propertyType string) (Category, bool) {
	s := strings.ToLower(propertyType)
	for _, k := range keywords {
		for _, w := range k.words {
			if strings.Contains(s, w) {
				return k.category, true
			}
		}
	}
	return Office, false
}

// Categorize is Classify without the match flag. It is total: unmatched input is office.
func Categorize(propertyType string) Category {
	c, _ := Classify(propertyType)
	return c
}
