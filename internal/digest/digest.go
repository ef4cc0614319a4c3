// Package digest defines the persisted brief record and the pure helpers
// around it: validation, list filtering and sorting, date formatting and
// markdown section handling.
package digest

import (
	"fmt"
	"time"
)

// PropertyType is the property filter a brief was generated for.
type PropertyType string

const (
	PropertyOffice      PropertyType = "office"
	PropertyRetail      PropertyType = "retail"
	PropertyIndustrial  PropertyType = "industrial"
	PropertyMultifamily PropertyType = "multifamily"
	PropertyAll         PropertyType = "all"
)

// PropertyTypes lists the accepted property types.
var PropertyTypes = []PropertyType{PropertyOffice, PropertyRetail, PropertyIndustrial, PropertyMultifamily, PropertyAll}

// Valid reports whether p is a known property type.
func (p PropertyType) Valid() bool {
	for _, k := range PropertyTypes {
		if p == k {
			return true
		}
	}
	return false
}

// TimeSpan is the reporting window of a brief.
type TimeSpan string

const (
	TimeSpanDaily  TimeSpan = "daily"
	TimeSpanWeekly TimeSpan = "weekly"
	TimeSpanCustom TimeSpan = "custom"
)

// TimeSpans lists the accepted time spans.
var TimeSpans = []TimeSpan{TimeSpanDaily, TimeSpanWeekly, TimeSpanCustom}

// Valid reports whether s is a known time span.
func (s TimeSpan) Valid() bool {
	return s == TimeSpanDaily || s == TimeSpanWeekly || s == TimeSpanCustom
}

// Label is the capitalized display name ("Daily", "Weekly", "Custom Period").
func (s TimeSpan) Label() string {
	switch s {
	case TimeSpanDaily:
		return "Daily"
	case TimeSpanWeekly:
		return "Weekly"
	case TimeSpanCustom:
		return "Custom Period"
	}
	return string(s)
}

// ArticleType tags where an article summary came from.
type ArticleType string

const (
	ArticleNews   ArticleType = "article"
	ArticlePermit ArticleType = "permit"
	ArticleMLS    ArticleType = "mls"
	ArticleSale   ArticleType = "sale"
)

// Valid reports whether t is empty or a known article type.
func (t ArticleType) Valid() bool {
	switch t {
	case "", ArticleNews, ArticlePermit, ArticleMLS, ArticleSale:
		return true
	}
	return false
}

// DateRange is an inclusive custom reporting period. Start and End are date strings.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Article is a summary of a selected record or a news item attached to a digest.
type Article struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Source      string      `json:"source"`
	URL         string      `json:"url"`
	PublishedAt string      `json:"publishedAt"`
	Excerpt     string      `json:"excerpt,omitempty"`
	Type        ArticleType `json:"type,omitempty"`
}

// Digest is a saved brief.
type Digest struct {
	// ID is a ULID assigned at creation; stable across updates
	ID string `json:"id"`

	Title   string `json:"title"`
	Content string `json:"content"`

	PropertyType    PropertyType `json:"propertyType"`
	TimeSpan        TimeSpan     `json:"timeSpan"`
	CustomDateRange *DateRange   `json:"customDateRange,omitempty"`

	// Articles is ordered; the order is the display order
	Articles []Article `json:"articles,omitempty"`

	// CreatedAt and UpdatedAt are ISO 8601 UTC timestamps with milliseconds
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Form is the user-supplied part of a digest.
type Form struct {
	Title           string       `json:"title"`
	Content         string       `json:"content"`
	PropertyType    PropertyType `json:"propertyType"`
	TimeSpan        TimeSpan     `json:"timeSpan"`
	CustomDateRange *DateRange   `json:"customDateRange,omitempty"`
	Articles        []Article    `json:"articles,omitempty"`
}

// Patch carries the fields to replace on update. Nil means leave unchanged.
type Patch struct {
	Title           *string       `json:"title,omitempty"`
	Content         *string       `json:"content,omitempty"`
	PropertyType    *PropertyType `json:"propertyType,omitempty"`
	TimeSpan        *TimeSpan     `json:"timeSpan,omitempty"`
	CustomDateRange *DateRange    `json:"customDateRange,omitempty"`
	Articles        *[]Article    `json:"articles,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.PropertyType == nil &&
		p.TimeSpan == nil && p.CustomDateRange == nil && p.Articles == nil
}

// New builds a digest from a form with the given identity and creation time.
func New(id string, f Form, now time.Time) *Digest {
	ts := Timestamp(now)
	return &Digest{
		ID:              id,
		Title:           f.Title,
		Content:         f.Content,
		PropertyType:    f.PropertyType,
		TimeSpan:        f.TimeSpan,
		CustomDateRange: cloneRange(f.CustomDateRange),
		Articles:        cloneArticles(f.Articles),
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
}

// Form returns the user-editable fields of d.
func (d *Digest) Form() Form {
	return Form{
		Title:           d.Title,
		Content:         d.Content,
		PropertyType:    d.PropertyType,
		TimeSpan:        d.TimeSpan,
		CustomDateRange: cloneRange(d.CustomDateRange),
		Articles:        cloneArticles(d.Articles),
	}
}

// Apply replaces every field set in p. Timestamps are left to the caller.
func (d *Digest) Apply(p Patch) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Content != nil {
		d.Content = *p.Content
	}
	if p.PropertyType != nil {
		d.PropertyType = *p.PropertyType
	}
	if p.TimeSpan != nil {
		d.TimeSpan = *p.TimeSpan
	}
	if p.CustomDateRange != nil {
		d.CustomDateRange = cloneRange(p.CustomDateRange)
	}
	if p.Articles != nil {
		d.Articles = cloneArticles(*p.Articles)
	}
}

// Clone returns a deep copy.
func (d *Digest) Clone() *Digest {
	c := *d
	c.CustomDateRange = cloneRange(d.CustomDateRange)
	c.Articles = cloneArticles(d.Articles)
	return &c
}

// Filename is the suggested download name for an exported digest.
func (d *Digest) Filename() string {
	return fmt.Sprintf("digest-%s.txt", d.ID)
}

func cloneRange(r *DateRange) *DateRange {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func cloneArticles(a []Article) []Article {
	if a == nil {
		return nil
	}
	return append([]Article(nil), a...)
}
