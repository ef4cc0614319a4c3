package digest

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/moestate/newsdesk/internal/errors"
)

func validForm() Form {
	return Form{
		Title:        "Weekly Market Report: Retail Properties",
		Content:      "# Weekly Market Report: Retail Properties\n\nbody",
		PropertyType: PropertyRetail,
		TimeSpan:     TimeSpanWeekly,
		Articles: []Article{
			{ID: "sale-0", Title: "250 Retail Plaza - Sale", Source: "Public Sales Records", URL: "#sale-PARC-002345", PublishedAt: "2024-01-08", Type: ArticleSale},
		},
	}
}

func TestValidateForm_OK(t *testing.T) {
	if err := ValidateForm(validForm()); err != nil {
		t.Fatalf("ValidateForm() error = %v", err)
	}
}

func TestValidateForm_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Form)
		field  string
		msg    string
	}{
		{"empty title", func(f *Form) { f.Title = "" }, "title", "Title is required"},
		{"long title", func(f *Form) { f.Title = strings.Repeat("é", MaxTitleChars+1) }, "title", "Title is too long"},
		{"empty content", func(f *Form) { f.Content = "" }, "content", "Content is required"},
		{"bad property type", func(f *Form) { f.PropertyType = "land" }, "propertyType", ""},
		{"bad time span", func(f *Form) { f.TimeSpan = "hourly" }, "timeSpan", ""},
		{"article bad type", func(f *Form) { f.Articles[0].Type = "tweet" }, "articles[0].type", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)

			err := ValidateForm(f)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Fatalf("ValidateForm() error = %v, want INVALID_REQUEST", err)
			}
			details := errors.As(err).Details
			got, ok := details[tt.field]
			if !ok {
				t.Fatalf("details = %v, missing %q", details, tt.field)
			}
			if tt.msg != "" && got != tt.msg {
				t.Errorf("details[%q] = %q, want %q", tt.field, got, tt.msg)
			}
		})
	}
}

func TestValidateForm_TitleAtLimit(t *testing.T) {
	f := validForm()
	f.Title = strings.Repeat("é", MaxTitleChars)
	if err := ValidateForm(f); err != nil {
		t.Fatalf("ValidateForm() error = %v, want nil at limit", err)
	}
}

func TestValidate_EmptyStringsAllowed(t *testing.T) {
	d := New("", validForm(), time.Now())
	d.CreatedAt = ""
	d.Articles[0].URL = ""
	d.CustomDateRange = &DateRange{}

	if err := Validate(d); err != nil {
		t.Fatalf("Validate() error = %v, want nil for empty plain strings", err)
	}
}

const exportedDoc = `{
  "id": "01HQDECODE0000000000000000",
  "title": "Weekly Market Report: Retail Properties",
  "content": "# Weekly Market Report\n\nbody",
  "propertyType": "retail",
  "timeSpan": "weekly",
  "articles": [
    {"id": "sale-0", "title": "Plaza sale", "source": "Public Sales Records", "url": "", "publishedAt": "2024-01-08", "type": "sale"}
  ],
  "createdAt": "2024-01-15T10:30:00.000Z",
  "updatedAt": "2024-01-15T10:30:00.000Z",
  "viewCount": 3
}`

func TestDecode_LenientDocument(t *testing.T) {
	d, err := Decode([]byte(exportedDoc))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if d.ID != "01HQDECODE0000000000000000" || d.Articles[0].URL != "" {
		t.Errorf("Decode() = %+v", d)
	}
}

func TestDecode_MissingKeys(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"no id", `{"title":"x","content":"y","propertyType":"all","timeSpan":"daily","createdAt":"","updatedAt":""}`, "id"},
		{"null createdAt", `{"id":"a","title":"x","content":"y","propertyType":"all","timeSpan":"daily","createdAt":null,"updatedAt":""}`, "createdAt"},
		{"range without end", `{"id":"a","title":"x","content":"y","propertyType":"all","timeSpan":"custom","customDateRange":{"start":"2024-01-01"},"createdAt":"","updatedAt":""}`, "customDateRange.end"},
		{"article without url", `{"id":"a","title":"x","content":"y","propertyType":"all","timeSpan":"daily","articles":[{"id":"1","title":"t","source":"s","publishedAt":"p"}],"createdAt":"","updatedAt":""}`, "articles[0].url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Fatalf("Decode() error = %v, want INVALID_REQUEST", err)
			}
			if got := errors.As(err).Details[tt.field]; got != "Required" {
				t.Errorf("details = %v, want %s: Required", errors.As(err).Details, tt.field)
			}
		})
	}
}

func TestDecodeForm(t *testing.T) {
	f, err := DecodeForm([]byte(`{"title":"x","content":"y","propertyType":"office","timeSpan":"daily","tags":["a"]}`))
	if err != nil {
		t.Fatalf("DecodeForm() error = %v, want unknown keys ignored", err)
	}
	if f.PropertyType != PropertyOffice {
		t.Errorf("PropertyType = %q", f.PropertyType)
	}

	_, err = DecodeForm([]byte(`{"title":"","content":"y","propertyType":"office","timeSpan":"daily"}`))
	if got := errors.As(err).Details["title"]; got != "Title is required" {
		t.Errorf("empty title details = %v", errors.As(err).Details)
	}

	if _, err := DecodeForm([]byte(`{"title":42}`)); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("wrong type: err = %v, want INVALID_REQUEST", err)
	}
}

func TestNew_Timestamps(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 123456789, time.FixedZone("EST", -5*3600))
	d := New("01ABC", validForm(), now)

	if d.CreatedAt != "2024-03-01T14:30:00.123Z" {
		t.Errorf("CreatedAt = %q", d.CreatedAt)
	}
	if d.CreatedAt != d.UpdatedAt {
		t.Errorf("UpdatedAt = %q, want equal to CreatedAt", d.UpdatedAt)
	}
	if d.Filename() != "digest-01ABC.txt" {
		t.Errorf("Filename() = %q", d.Filename())
	}
}

func TestApply_ShallowReplace(t *testing.T) {
	d := New("id", validForm(), time.Now())
	orig := d.Clone()

	title := "Edited"
	empty := []Article{}
	d.Apply(Patch{Title: &title, Articles: &empty})

	if d.Title != "Edited" {
		t.Errorf("Title = %q", d.Title)
	}
	if len(d.Articles) != 0 {
		t.Errorf("Articles = %v, want empty", d.Articles)
	}
	if d.Content != orig.Content || d.PropertyType != orig.PropertyType {
		t.Error("unpatched fields changed")
	}
	if len(orig.Articles) != 1 {
		t.Error("Clone shares article storage")
	}
	if !(Patch{}).Empty() || (Patch{Title: &title}).Empty() {
		t.Error("Patch.Empty() wrong")
	}
}

func TestToSummary(t *testing.T) {
	d := New("id", validForm(), time.Now())
	s := d.ToSummary()
	if s.ID != "id" || s.ArticleCount != 1 || s.Title != d.Title {
		t.Errorf("ToSummary() = %+v", s)
	}
}

func sample() []Digest {
	return []Digest{
		{ID: "a", Title: "beta", Content: "warehouse demand", TimeSpan: TimeSpanDaily, CreatedAt: "2024-01-02T00:00:00.000Z"},
		{ID: "b", Title: "Alpha", Content: "office", TimeSpan: TimeSpanWeekly, CreatedAt: "2024-01-03T00:00:00.000Z"},
		{ID: "c", Title: "gamma Warehouse", Content: "x", TimeSpan: TimeSpanWeekly, CreatedAt: "2024-01-01T00:00:00.000Z"},
	}
}

func digestIDs(ds []Digest) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		opts FilterOptions
		want []string
	}{
		{"no filter", FilterOptions{}, []string{"a", "b", "c"}},
		{"search title or content", FilterOptions{Search: "WAREHOUSE"}, []string{"a", "c"}},
		{"time span", FilterOptions{TimeSpan: "weekly"}, []string{"b", "c"}},
		{"all span", FilterOptions{TimeSpan: "all"}, []string{"a", "b", "c"}},
		{"combined", FilterOptions{Search: "warehouse", TimeSpan: "daily"}, []string{"a"}},
		{"no match", FilterOptions{Search: "zzz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, digestIDs(Filter(sample(), tt.opts))); diff != "" {
				t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSort(t *testing.T) {
	in := sample()
	if diff := cmp.Diff([]string{"b", "a", "c"}, digestIDs(Sort(in, SortNewest))); diff != "" {
		t.Errorf("newest (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c", "a", "b"}, digestIDs(Sort(in, SortOldest))); diff != "" {
		t.Errorf("oldest (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, digestIDs(Sort(in, SortTitle))); diff != "" {
		t.Errorf("title (-want +got):\n%s", diff)
	}
	if in[0].ID != "a" {
		t.Error("Sort modified its input")
	}
}

func TestParseSortOrder(t *testing.T) {
	if o, err := ParseSortOrder(""); err != nil || o != SortNewest {
		t.Errorf("ParseSortOrder(\"\") = (%q, %v)", o, err)
	}
	if _, err := ParseSortOrder("random"); err == nil {
		t.Error("ParseSortOrder(random) should fail")
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate("2024-01-10"); got != "Jan 10, 2024" {
		t.Errorf("FormatDate() = %q", got)
	}
	if got := FormatLongDate("2024-01-10T00:00:00Z"); got != "January 10, 2024" {
		t.Errorf("FormatLongDate() = %q", got)
	}
	if got := FormatDate("someday"); got != "someday" {
		t.Errorf("FormatDate(bad) = %q", got)
	}
	if got := FormatDateRange(DateRange{Start: "2024-01-01", End: "2024-01-07"}); got != "Jan 1, 2024 - Jan 7, 2024" {
		t.Errorf("FormatDateRange() = %q", got)
	}
	if got := FormatDateRange(DateRange{Start: "2024-01-01", End: "2024-01-01"}); got != "Jan 1, 2024" {
		t.Errorf("FormatDateRange(same) = %q", got)
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want string
	}{
		{"2024-05-10T01:00:00.000Z", "Today"},
		{"2024-05-09T23:00:00.000Z", "Yesterday"},
		{"2024-05-07T15:00:00.000Z", "3 days ago"},
		{"garbage", "garbage"},
	}
	for _, tt := range tests {
		if got := TimeAgo(tt.in, now); got != tt.want {
			t.Errorf("TimeAgo(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
