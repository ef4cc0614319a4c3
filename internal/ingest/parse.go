package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/moestate/newsdesk/internal/digest"
)

// parseFeed maps an RSS, Atom or JSON Feed document to articles. Items without
// a title are titled "Untitled". Dates gofeed cannot parse are kept verbatim;
// items with no date at all get now.
func parseFeed(body []byte, feedURL string, now time.Time) ([]Article, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	source := hostname(feedURL)
	out := make([]Article, 0, len(feed.Items))
	for i, item := range feed.Items {
		out = append(out, Article{
			ID:          fmt.Sprintf("%s-%d", feedURL, i),
			Title:       orDefault(strings.TrimSpace(item.Title), "Untitled"),
			Source:      source,
			URL:         strings.TrimSpace(item.Link),
			PublishedAt: itemDate(item, now),
			Excerpt:     strings.TrimSpace(item.Description),
			ImageURL:    itemImage(item),
		})
	}
	return out, nil
}

func itemDate(item *gofeed.Item, now time.Time) string {
	switch {
	case item.PublishedParsed != nil:
		return digest.Timestamp(*item.PublishedParsed)
	case item.UpdatedParsed != nil:
		return digest.Timestamp(*item.UpdatedParsed)
	case strings.TrimSpace(item.Published) != "":
		return strings.TrimSpace(item.Published)
	}
	return digest.Timestamp(now)
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

type jsonItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Link        string `json:"link"`
	PublishedAt string `json:"publishedAt"`
	Date        string `json:"date"`
	Excerpt     string `json:"excerpt"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// parseJSON accepts a JSON Feed document, a bare array of items or an object
// with an "items" array of loosely named fields.
func parseJSON(body []byte, feedURL string, now time.Time) ([]Article, error) {
	trimmed := bytes.TrimSpace(body)
	if isJSONFeed(trimmed) {
		return parseFeed(trimmed, feedURL, now)
	}

	var items []jsonItem
	if bytes.HasPrefix(trimmed, []byte("[")) {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode json feed: %w", err)
		}
	} else {
		var wrapper struct {
			Items []jsonItem `json:"items"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("decode json feed: %w", err)
		}
		items = wrapper.Items
	}

	source := hostname(feedURL)
	out := make([]Article, 0, len(items))
	for i, item := range items {
		out = append(out, Article{
			ID:          fmt.Sprintf("%s-%d", feedURL, i),
			Title:       orDefault(item.Title, "Untitled"),
			Source:      source,
			URL:         orDefault(item.URL, item.Link),
			PublishedAt: orDefault(orDefault(item.PublishedAt, item.Date), digest.Timestamp(now)),
			Excerpt:     orDefault(item.Excerpt, item.Description),
			ImageURL:    item.ImageURL,
		})
	}
	return out, nil
}

// isJSONFeed reports whether body declares a jsonfeed.org version.
func isJSONFeed(body []byte) bool {
	if !bytes.HasPrefix(body, []byte("{")) {
		return false
	}
	var head struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return false
	}
	return strings.HasPrefix(head.Version, "https://jsonfeed.org/version/")
}

func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
