package ops

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/moestate/newsdesk/internal/brief"
	"github.com/moestate/newsdesk/internal/catalog"
	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/errors"
)

func TestGenerate_CustomRange(t *testing.T) {
	gen := brief.NewGenerator(catalog.NewProvider(catalog.StaticSource{}, 0), nil, 0, nil, nil)
	rng := &digest.DateRange{Start: "2024-01-01", End: "2024-01-31"}

	out, err := Generate(context.Background(), gen, brief.Request{
		PropertyType: digest.PropertyRetail,
		TimeSpan:     digest.TimeSpanCustom,
		DateRange:    rng,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out.Title != "Custom Period Market Report: Retail Properties" {
		t.Errorf("Title = %q", out.Title)
	}
	if !strings.Contains(out.Content, "**Reporting Period**: January 1, 2024 - January 31, 2024") {
		t.Errorf("content missing reporting period:\n%s", out.Content)
	}
	if out.CustomDateRange == nil || *out.CustomDateRange != *rng || out.CustomDateRange == rng {
		t.Errorf("CustomDateRange = %v, want a copy of %v", out.CustomDateRange, rng)
	}

	wantIDs := []string{"sale-0", "mls-1", "permit-2"}
	if len(out.Articles) != len(wantIDs) {
		t.Fatalf("got %d articles, want %d", len(out.Articles), len(wantIDs))
	}
	for i, id := range wantIDs {
		if out.Articles[i].ID != id {
			t.Errorf("article %d id = %q, want %q", i, out.Articles[i].ID, id)
		}
	}

	if err := digest.ValidateForm(out.Form()); err != nil {
		t.Errorf("generated form does not validate: %v", err)
	}
}

func TestGenerate_PropagatesErrors(t *testing.T) {
	gen := brief.NewGenerator(catalog.NewProvider(catalog.StaticSource{}, 0), nil, time.Hour, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Generate(ctx, gen, brief.Request{PropertyType: digest.PropertyAll, TimeSpan: digest.TimeSpanDaily}); !errors.Is(err, errors.ErrCancelled) {
		t.Errorf("cancelled: err = %v, want CANCELLED", err)
	}

	if _, err := Generate(context.Background(), gen, brief.Request{PropertyType: "castle", TimeSpan: digest.TimeSpanDaily}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("invalid: err = %v, want INVALID_REQUEST", err)
	}
}
