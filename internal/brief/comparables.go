package brief

import (
	"fmt"
	"math"

	"github.com/moestate/newsdesk/internal/catalog"
)

// MaxComparables is the most comparables attached to one record.
const MaxComparables = 2

// SizeBand is the relative size difference below which two records are comparable.
const SizeBand = 0.5

// SizeMetric returns the record's square footage when declared, else its
// monetary figure, else 0.
func SizeMetric(r catalog.Record) (float64, error) {
	switch rec := r.(type) {
	case *catalog.Permit:
		return rec.Value, nil
	case *catalog.Listing:
		if rec.SquareFeet > 0 {
			return rec.SquareFeet, nil
		}
		return rec.ListPrice, nil
	case *catalog.Sale:
		if rec.SquareFeet > 0 {
			return rec.SquareFeet, nil
		}
		return rec.SalePrice, nil
	default:
		return 0, fmt.Errorf("%w: %T", catalog.ErrUnknownKind, r)
	}
}

// FindComparables returns up to two entries from all that share the target's
// category, differ in kind, and sit within the size band, in catalog order.
// A target with size 0 has no comparables.
func FindComparables(target catalog.Entry, all []catalog.Entry) ([]catalog.Entry, error) {
	targetSize, err := SizeMetric(target.Record)
	if err != nil {
		return nil, err
	}
	if targetSize <= 0 {
		return nil, nil
	}

	var out []catalog.Entry
	for _, e := range all {
		if e.Category != target.Category || e.Kind() == target.Kind() {
			continue
		}
		size, err := SizeMetric(e.Record)
		if err != nil {
			return nil, err
		}
		if math.Abs(size-targetSize)/targetSize < SizeBand {
			out = append(out, e)
			if len(out) >= MaxComparables {
				break
			}
		}
	}
	return out, nil
}
