package digest

import (
	"fmt"
	"sort"
	"strings"
)

// SortOrder orders a digest list.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
	SortTitle  SortOrder = "title"
)

// ParseSortOrder accepts newest, oldest or title. Empty means newest.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	case SortTitle:
		return SortTitle, nil
	}
	return "", fmt.Errorf("sort must be one of: newest, oldest, title")
}

// FilterOptions narrows a digest list.
type FilterOptions struct {
	// Search matches title or content, case-insensitive. Empty matches all.
	Search string
	// TimeSpan keeps one span only. Empty or "all" matches all.
	TimeSpan string
}

// Filter returns the digests matching opts, preserving order.
func Filter(digests []Digest, opts FilterOptions) []Digest {
	search := strings.ToLower(opts.Search)
	span := strings.ToLower(strings.TrimSpace(opts.TimeSpan))

	out := make([]Digest, 0, len(digests))
	for _, d := range digests {
		if search != "" &&
			!strings.Contains(strings.ToLower(d.Title), search) &&
			!strings.Contains(strings.ToLower(d.Content), search) {
			continue
		}
		if span != "" && span != "all" && string(d.TimeSpan) != span {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Sort returns a sorted copy. Unparseable timestamps sort as the zero time.
func Sort(digests []Digest, order SortOrder) []Digest {
	out := append([]Digest(nil), digests...)

	switch order {
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool {
			return ParseTimestamp(out[i].CreatedAt).After(ParseTimestamp(out[j].CreatedAt))
		})
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool {
			return ParseTimestamp(out[i].CreatedAt).Before(ParseTimestamp(out[j].CreatedAt))
		})
	case SortTitle:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := strings.ToLower(out[i].Title), strings.ToLower(out[j].Title)
			if a != b {
				return a < b
			}
			return out[i].Title < out[j].Title
		})
	}
	return out
}
