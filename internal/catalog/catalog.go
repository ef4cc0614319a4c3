// Package catalog holds the permit, listing and sale records that briefs are
// built from, and the provider that categorizes and orders them.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned when a record kind outside permit/listing/sale is encountered.
var ErrUnknownKind = errors.New("unknown record kind")

// Kind identifies the variant of a Record.
type Kind string

const (
	KindPermit  Kind = "permit"
	KindListing Kind = "listing"
	KindSale    Kind = "sale"
)

// ParseKind accepts the canonical kind names plus "mls" as an alias for listing.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "permit":
		return KindPermit, nil
	case "listing", "mls":
		return KindListing, nil
	case "sale":
		return KindSale, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Wire returns the name used in exported digests ("mls" for listings).
func (k Kind) Wire() string {
	if k == KindListing {
		return "mls"
	}
	return string(k)
}

// Priority orders kinds inside a brief: sales first, then listings, then permits.
func (k Kind) Priority() int {
	switch k {
	case KindSale:
		return 3
	case KindListing:
		return 2
	case KindPermit:
		return 1
	}
	return 0
}

// Record is one permit, listing or sale. The set of implementations is closed.
type Record interface {
	Kind() Kind
	RecordID() string
	// Date is the issue, listing or sale date as an ISO-like string.
	Date() string
	// RawPropertyType is the free-text property type the category is derived from.
	RawPropertyType() string

	sealed()
}

// Permit is a building permit filed with the county.
type Permit struct {
	ID              string  `yaml:"id" json:"id"`
	PermitNumber    string  `yaml:"permit_number" json:"permitNumber"`
	PropertyAddress string  `yaml:"property_address" json:"propertyAddress"`
	PropertyType    string  `yaml:"property_type" json:"propertyType"`
	PermitType      string  `yaml:"permit_type" json:"permitType"`
	Value           float64 `yaml:"value" json:"value"`
	IssueDate       string  `yaml:"issue_date" json:"issueDate"`
	Status          string  `yaml:"status" json:"status"`
	Description     string  `yaml:"description" json:"description"`
}

func (p *Permit) Kind() Kind              { return KindPermit }
func (p *Permit) RecordID() string        { return p.ID }
func (p *Permit) Date() string            { return p.IssueDate }
func (p *Permit) RawPropertyType() string { return p.PropertyType }
func (p *Permit) sealed()                 {}

// ListingStatus is the market status of an MLS listing.
type ListingStatus string

const (
	ListingActive  ListingStatus = "active"
	ListingPending ListingStatus = "pending"
	ListingSold    ListingStatus = "sold"
)

// Listing is an MLS listing.
type Listing struct {
	ID           string        `yaml:"id" json:"id"`
	MLSNumber    string        `yaml:"mls_number" json:"mlsNumber"`
	Address      string        `yaml:"address" json:"address"`
	PropertyType string        `yaml:"property_type" json:"propertyType"`
	ListPrice    float64       `yaml:"list_price" json:"listPrice"`
	SquareFeet   float64       `yaml:"square_feet" json:"squareFeet"`
	Bedrooms     *int          `yaml:"bedrooms,omitempty" json:"bedrooms,omitempty"`
	Bathrooms    *int          `yaml:"bathrooms,omitempty" json:"bathrooms,omitempty"`
	ListingDate  string        `yaml:"listing_date" json:"listingDate"`
	Status       ListingStatus `yaml:"status" json:"status"`
	Description  string        `yaml:"description" json:"description"`
}

func (l *Listing) Kind() Kind              { return KindListing }
func (l *Listing) RecordID() string        { return l.ID }
func (l *Listing) Date() string            { return l.ListingDate }
func (l *Listing) RawPropertyType() string { return l.PropertyType }
func (l *Listing) sealed()                 {}

// Sale is a recorded property sale.
type Sale struct {
	ID           string  `yaml:"id" json:"id"`
	ParcelNumber string  `yaml:"parcel_number" json:"parcelNumber"`
	Address      string  `yaml:"address" json:"address"`
	PropertyType string  `yaml:"property_type" json:"propertyType"`
	SalePrice    float64 `yaml:"sale_price" json:"salePrice"`
	SaleDate     string  `yaml:"sale_date" json:"saleDate"`
	Buyer        string  `yaml:"buyer" json:"buyer"`
	Seller       string  `yaml:"seller" json:"seller"`
	SquareFeet   float64 `yaml:"square_feet" json:"squareFeet"`
	YearBuilt    *int    `yaml:"year_built,omitempty" json:"yearBuilt,omitempty"`
}

func (s *Sale) Kind() Kind              { return KindSale }
func (s *Sale) RecordID() string        { return s.ID }
func (s *Sale) Date() string            { return s.SaleDate }
func (s *Sale) RawPropertyType() string { return s.PropertyType }
func (s *Sale) sealed()                 {}

// Records is the raw catalog grouped by kind.
type Records struct {
	Permits  []Permit  `yaml:"permits"`
	Listings []Listing `yaml:"listings"`
	Sales    []Sale    `yaml:"sales"`
}

// All flattens the catalog in kind order: permits, listings, sales.
func (r *Records) All() []Record {
	out := make([]Record, 0, len(r.Permits)+len(r.Listings)+len(r.Sales))
	for i := range r.Permits {
		out = append(out, &r.Permits[i])
	}
	for i := range r.Listings {
		out = append(out, &r.Listings[i])
	}
	for i := range r.Sales {
		out = append(out, &r.Sales[i])
	}
	return out
}

// Validate checks that every record has an id, a date and a known listing status.
func (r *Records) Validate() error {
	seen := make(map[string]bool)
	for _, rec := range r.All() {
		id := rec.RecordID()
		if id == "" {
			return fmt.Errorf("%s record without id", rec.Kind())
		}
		if seen[id] {
			return fmt.Errorf("duplicate record id %q", id)
		}
		seen[id] = true
		if rec.Date() == "" {
			return fmt.Errorf("record %q has no date", id)
		}
		if l, ok := rec.(*Listing); ok {
			switch l.Status {
			case ListingActive, ListingPending, ListingSold:
			default:
				return fmt.Errorf("listing %q has invalid status %q", id, l.Status)
			}
		}
	}
	return nil
}

// Entry is a record paired with its derived category.
type Entry struct {
	Record   Record
	Category Category
}

// Kind is shorthand for e.Record.Kind().
func (e Entry) Kind() Kind { return e.Record.Kind() }

type entryJSON struct {
	Kind     Kind     `json:"kind"`
	Category Category `json:"category"`
	Record   Record   `json:"record"`
}

// MarshalJSON writes the entry as {kind, category, record}.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{Kind: e.Kind(), Category: e.Category, Record: e.Record})
}
