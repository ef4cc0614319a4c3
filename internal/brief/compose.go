package brief

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/moestate/newsdesk/internal/catalog"
	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/errors"
)

// Request describes the brief a user asked for.
type Request struct {
	PropertyType digest.PropertyType `json:"propertyType"`
	TimeSpan     digest.TimeSpan     `json:"timeSpan"`
	DateRange    *digest.DateRange   `json:"customDateRange,omitempty"`
}

// Validate checks the enum fields and the date range.
func (r Request) Validate() error {
	fields := map[string]string{}
	if !r.PropertyType.Valid() {
		fields["propertyType"] = "propertyType must be one of: office, retail, industrial, multifamily, all"
	}
	if !r.TimeSpan.Valid() {
		fields["timeSpan"] = "timeSpan must be one of: daily, weekly, custom"
	}
	if r.DateRange != nil && (r.DateRange.Start == "" || r.DateRange.End == "") {
		fields["customDateRange"] = "customDateRange needs both start and end"
	}
	if len(fields) > 0 {
		return errors.NewValidation(fields)
	}
	return nil
}

// Filter returns the catalog category for the request, or nil for "all".
func (r Request) Filter() *catalog.Category {
	if r.PropertyType == digest.PropertyAll {
		return nil
	}
	c := catalog.Category(r.PropertyType)
	return &c
}

// Brief is a composed report.
type Brief struct {
	Title    string          `json:"title"`
	Content  string          `json:"content"`
	Selected []catalog.Entry `json:"selected"`
}

// PropertyLabel is the title label for a property type.
func PropertyLabel(p digest.PropertyType) string {
	switch p {
	case digest.PropertyOffice:
		return "Office Properties"
	case digest.PropertyRetail:
		return "Retail Properties"
	case digest.PropertyIndustrial:
		return "Industrial Properties"
	case digest.PropertyMultifamily:
		return "Multi-Family Properties"
	case digest.PropertyAll:
		return "All Property Types"
	}
	return string(p)
}

// Title renders "{span} Market Report: {label}", using "Real Estate" for all types.
func Title(p digest.PropertyType, s digest.TimeSpan) string {
	label := PropertyLabel(p)
	if p == digest.PropertyAll {
		label = "Real Estate"
	}
	return fmt.Sprintf("%s Market Report: %s", s.Label(), label)
}

// Compose selects records from entries and renders the brief. entries must be
// the date-sorted catalog for the request; comparables are drawn from all of it.
func Compose(req Request, entries []catalog.Entry, sel Selector) (*Brief, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	selected := sel.Select(entries)
	title := Title(req.PropertyType, req.TimeSpan)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	if req.DateRange != nil {
		fmt.Fprintf(&b, "**Reporting Period**: %s - %s\n\n",
			digest.FormatLongDate(req.DateRange.Start), digest.FormatLongDate(req.DateRange.End))
	}

	groups, order := groupByCategory(selected)

	fmt.Fprintf(&b, "This %s market report analyzes %d key transactions and activities across %s. ",
		strings.ToLower(req.TimeSpan.Label()), len(selected), plural(len(order), "property category", "property categories"))
	b.WriteString("The most relevant permits, MLS listings, and sales records were selected automatically from county databases and MLS feeds. ")
	b.WriteString("Each deal summary includes comparable data and market insights to help you understand current trends and opportunities.\n\n")

	for _, cat := range order {
		fmt.Fprintf(&b, "## %s Properties\n\n", cat.Label())

		for _, e := range groups[cat] {
			summary, err := renderRecord(e.Record)
			if err != nil {
				return nil, err
			}
			b.WriteString(summary)

			comps, err := FindComparables(e, entries)
			if err != nil {
				return nil, err
			}
			if len(comps) > 0 {
				fmt.Fprintf(&b, "\n\n*Comparable Activity*: Similar %s properties in the market show %s, indicating the %s sector remains active.",
					cat, plural(len(comps), "related transaction", "related transactions"), cat)
			}
			b.WriteString("\n\n")
		}
	}

	var sales, listings, permits int
	for _, e := range selected {
		switch e.Kind() {
		case catalog.KindSale:
			sales++
		case catalog.KindListing:
			listings++
		case catalog.KindPermit:
			permits++
		default:
			return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownKind, e.Kind())
		}
	}
	mood := "stable"
	if len(selected) > 6 {
		mood = "vibrant"
	}

	b.WriteString("## Market Summary\n\n")
	fmt.Fprintf(&b, "Overall, the market shows %s, %s, and %s across the analyzed property types. ",
		plural(sales, "completed sale", "completed sales"),
		plural(listings, "active or pending listing", "active or pending listings"),
		plural(permits, "significant permit", "significant permits"))
	fmt.Fprintf(&b, "These indicators suggest a %s market with ongoing activity and development. ", mood)
	b.WriteString("Investors and stakeholders should monitor these trends as they develop over the coming periods.")

	return &Brief{Title: title, Content: b.String(), Selected: selected}, nil
}

// groupByCategory buckets entries by category, returning categories in order of first appearance.
func groupByCategory(entries []catalog.Entry) (map[catalog.Category][]catalog.Entry, []catalog.Category) {
	groups := make(map[catalog.Category][]catalog.Entry)
	var order []catalog.Category
	for _, e := range entries {
		if _, ok := groups[e.Category]; !ok {
			order = append(order, e.Category)
		}
		groups[e.Category] = append(groups[e.Category], e)
	}
	return groups, order
}

func renderRecord(r catalog.Record) (string, error) {
	switch rec := r.(type) {
	case *catalog.Permit:
		return renderPermit(rec), nil
	case *catalog.Listing:
		return renderListing(rec), nil
	case *catalog.Sale:
		return renderSale(rec), nil
	default:
		return "", fmt.Errorf("%w: %T", catalog.ErrUnknownKind, r)
	}
}

func renderPermit(p *catalog.Permit) string {
	approved := p.Status == "approved"
	state, signal := "under review", "could indicate"
	if approved {
		state, signal = "approved", "indicates"
	}
	return fmt.Sprintf("**Permit Activity**: %s\n\n", p.PropertyAddress) +
		fmt.Sprintf("A %s permit was %s for %s. ", strings.ToLower(p.PermitType), state, p.PropertyAddress) +
		fmt.Sprintf("The project is valued at approximately %s and involves %s. ", Dollars(p.Value), strings.ToLower(p.Description)) +
		fmt.Sprintf("This %s significant development activity in the area, potentially impacting local property values and market dynamics. ", signal) +
		fmt.Sprintf("The %s issue date suggests this is part of an ongoing or recently initiated development pipeline.", p.IssueDate)
}

func renderListing(l *catalog.Listing) string {
	var status, subject string
	switch l.Status {
	case catalog.ListingActive:
		status, subject = "currently on the market", "This listing"
	case catalog.ListingPending:
		status, subject = "under contract", "This pending transaction"
	default:
		status, subject = "recently sold", "This sale"
	}
	return fmt.Sprintf("**MLS Listing**: %s (%s)\n\n", l.Address, l.MLSNumber) +
		fmt.Sprintf("%s is %s with an asking price of %s%s. ", l.Address, status, Dollars(l.ListPrice), perSquareFoot(l.ListPrice, l.SquareFeet)) +
		fmt.Sprintf("The %s square foot %s property %s. ", squareFeet(l.SquareFeet), l.PropertyType, strings.ToLower(strings.TrimSuffix(l.Description, "."))) +
		fmt.Sprintf("%s provides valuable market data for comparable properties in the area, showing current pricing trends and market activity levels.", subject)
}

func renderSale(s *catalog.Sale) string {
	built := ""
	if s.YearBuilt != nil {
		built = fmt.Sprintf(", built in %d", *s.YearBuilt)
	}
	return fmt.Sprintf("**Recent Sale**: %s\n\n", s.Address) +
		fmt.Sprintf("%s sold for %s%s on %s. ", s.Address, Dollars(s.SalePrice), perSquareFoot(s.SalePrice, s.SquareFeet), s.SaleDate) +
		fmt.Sprintf("The %s square foot %s property%s was purchased by %s from %s. ", squareFeet(s.SquareFeet), s.PropertyType, built, s.Buyer, s.Seller) +
		fmt.Sprintf("This transaction reflects current market pricing and investor activity in the %s sector. ", s.PropertyType) +
		"The sale price per square foot provides a useful benchmark for comparable properties, indicating market strength and buyer confidence in the area."
}

// Dollars formats a whole-dollar amount as "$2,500,000".
func Dollars(v float64) string {
	return "$" + humanize.Comma(int64(math.Round(v)))
}

func squareFeet(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

// perSquareFoot renders " (122/sq ft)", or nothing when the area is unknown.
func perSquareFoot(price, sqft float64) string {
	if sqft <= 0 {
		return ""
	}
	return fmt.Sprintf(" (%d/sq ft)", int64(math.Round(price/sqft)))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
