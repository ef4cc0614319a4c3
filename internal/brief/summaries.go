package brief

import (
	"fmt"

	"github.com/moestate/newsdesk/internal/catalog"
	"github.com/moestate/newsdesk/internal/digest"
)

// ToSummaries converts selected records into the article summaries stored on a digest.
// IDs are "{kind}-{index}" using the exported kind name.
func ToSummaries(entries []catalog.Entry) ([]digest.Article, error) {
	out := make([]digest.Article, 0, len(entries))
	for i, e := range entries {
		a := digest.Article{
			ID:   fmt.Sprintf("%s-%d", e.Kind().Wire(), i),
			Type: digest.ArticleType(e.Kind().Wire()),
		}
		switch rec := e.Record.(type) {
		case *catalog.Permit:
			a.Title = fmt.Sprintf("%s - %s", rec.PermitType, rec.PropertyAddress)
			a.Source = "County Permit Database"
			a.URL = "#permit-" + rec.PermitNumber
			a.PublishedAt = rec.IssueDate
			a.Excerpt = rec.Description
		case *catalog.Listing:
			a.Title = rec.Address
			a.Source = "MLS Feed"
			a.URL = "#mls-" + rec.MLSNumber
			a.PublishedAt = rec.ListingDate
			a.Excerpt = rec.Description
		case *catalog.Sale:
			a.Title = rec.Address + " - Sale"
			a.Source = "Public Sales Records"
			a.URL = "#sale-" + rec.ParcelNumber
			a.PublishedAt = rec.SaleDate
			a.Excerpt = "Sold for " + Dollars(rec.SalePrice)
		default:
			return nil, fmt.Errorf("%w: %T", catalog.ErrUnknownKind, e.Record)
		}
		out = append(out, a)
	}
	return out, nil
}
