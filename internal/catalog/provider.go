package catalog

import (
	"context"
	"sort"
	"time"
)

// Provider categorizes and orders records from a Source.
type Provider struct {
	source Source
	delay  time.Duration
}

// NewProvider creates a provider. delay simulates upstream latency and may be zero.
func NewProvider(source Source, delay time.Duration) *Provider {
	return &Provider{source: source, delay: delay}
}

// SourceName returns the name of the underlying source.
func (p *Provider) SourceName() string { return p.source.Name() }

// Fetch returns every record tagged with its category, newest first.
// A non-nil filter keeps only entries in that category.
// Load failures come back as *FetchError; nothing is served from a previous load.
func (p *Provider) Fetch(ctx context.Context, filter *Category) ([]Entry, error) {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &FetchError{Source: p.source.Name(), Err: ctx.Err()}
		case <-timer.C:
		}
	}

	recs, err := p.source.Load(ctx)
	if err != nil {
		return nil, &FetchError{Source: p.source.Name(), Err: err}
	}

	all := recs.All()
	entries := make([]Entry, 0, len(all))
	for _, r := range all {
		cat := Categorize(r.RawPropertyType())
		if filter != nil && cat != *filter {
			continue
		}
		entries = append(entries, Entry{Record: r, Category: cat})
	}

	// ISO dates compare correctly as strings; ties keep load order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Record.Date() > entries[j].Record.Date()
	})

	return entries, nil
}
