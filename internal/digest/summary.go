package digest

// Summary is a digest without its content body or articles.
// Used by list views to keep payloads small.
type Summary struct {
	ID string `json:"id"`

	Title string `json:"title"`

	PropertyType    PropertyType `json:"propertyType"`
	TimeSpan        TimeSpan     `json:"timeSpan"`
	CustomDateRange *DateRange   `json:"customDateRange,omitempty"`

	// ArticleCount is len(Articles) of the full digest
	ArticleCount int `json:"articleCount"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// ToSummary strips content and articles from d.
func (d *Digest) ToSummary() Summary {
	return Summary{
		ID:              d.ID,
		Title:           d.Title,
		PropertyType:    d.PropertyType,
		TimeSpan:        d.TimeSpan,
		CustomDateRange: cloneRange(d.CustomDateRange),
		ArticleCount:    len(d.Articles),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}
