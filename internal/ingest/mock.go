package ingest

import (
	"strconv"
	"time"

	"github.com/moestate/newsdesk/internal/config"
	"github.com/moestate/newsdesk/internal/digest"
)

// DefaultFeeds are the real estate news feeds used when none are configured.
func DefaultFeeds() []config.FeedConfig {
	return []config.FeedConfig{
		{ID: "realtor-daily", Name: "Realtor.com Daily News", URL: "https://www.realtor.com/news/rss/", Type: FeedRSS},
		{ID: "inman-news", Name: "Inman Real Estate News", URL: "https://www.inman.com/feed/", Type: FeedRSS},
		{ID: "mansion-global", Name: "Mansion Global", URL: "https://www.mansionglobal.com/rss.xml", Type: FeedRSS},
	}
}

var mockSeed = []struct {
	title, source, excerpt string
}{
	{"Housing Market Shows Strong Growth in Q4 2024", "realtor.com", "The real estate market continues to show resilience with record-breaking sales numbers..."},
	{"New Development Projects Transform Downtown Area", "inman.com", "Several major development projects are reshaping the urban landscape..."},
	{"Mortgage Rates Stabilize After Fed Meeting", "mansionglobal.com", "Interest rates hold steady as the Federal Reserve maintains current policy..."},
	{"Luxury Home Sales Surge in Coastal Markets", "realtor.com", "High-end properties in beachfront communities see increased demand..."},
	{"Tech Companies Drive Commercial Real Estate Boom", "inman.com", "Major tech firms expand office spaces as remote work trends shift..."},
	{"Sustainable Building Practices Gain Traction", "mansionglobal.com", "Green building certifications become standard in new construction..."},
	{"Suburban Migration Continues Post-Pandemic", "realtor.com", "Families seek larger homes in suburban communities..."},
	{"Investment Properties Show Strong ROI", "inman.com", "Rental properties continue to generate impressive returns for investors..."},
}

// MockArticles returns the fixed fallback list, newest first, one day apart starting at now.
func MockArticles(now time.Time) []Article {
	out := make([]Article, len(mockSeed))
	for i, m := range mockSeed {
		n := strconv.Itoa(i + 1)
		out[i] = Article{
			ID:          n,
			Title:       m.title,
			Source:      m.source,
			URL:         "https://example.com/article" + n,
			PublishedAt: digest.Timestamp(now.Add(-time.Duration(i) * 24 * time.Hour)),
			Excerpt:     m.excerpt,
		}
	}
	return out
}
