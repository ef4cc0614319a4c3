package brief

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/moestate/newsdesk/internal/catalog"
	"github.com/moestate/newsdesk/internal/errors"
	"github.com/moestate/newsdesk/internal/metrics"
)

// Fetcher returns the categorized, date-sorted catalog.
type Fetcher interface {
	Fetch(ctx context.Context, filter *catalog.Category) ([]catalog.Entry, error)
}

// Generator fetches the catalog and composes briefs.
// Each call is independent: a newer call never cancels an older one still waiting.
type Generator struct {
	fetcher  Fetcher
	selector Selector
	delay    time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewGenerator creates a generator. delay is applied before every generation.
func NewGenerator(fetcher Fetcher, selector Selector, delay time.Duration, logger *zap.Logger, m *metrics.Metrics) *Generator {
	if selector == nil {
		selector = DiversitySelector{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{fetcher: fetcher, selector: selector, delay: delay, logger: logger, metrics: m}
}

// Generate composes a brief for req.
// Returns INVALID_REQUEST for a bad request, CANCELLED when ctx ends first,
// and GENERATION_FAILED (after logging) for anything else.
func (g *Generator) Generate(ctx context.Context, req Request) (*Brief, error) {
	pt := string(req.PropertyType)
	if err := req.Validate(); err != nil {
		g.metrics.BriefGenerated(pt, "invalid")
		return nil, err
	}

	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			g.metrics.BriefGenerated(pt, "cancelled")
			return nil, errors.NewCancelled("generate")
		case <-timer.C:
		}
	}

	entries, err := g.fetcher.Fetch(ctx, req.Filter())
	if err != nil {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			g.metrics.BriefGenerated(pt, "cancelled")
			return nil, errors.NewCancelled("generate")
		}
		return nil, g.fail(req, err)
	}

	b, err := Compose(req, entries, g.selector)
	if err != nil {
		return nil, g.fail(req, err)
	}

	g.metrics.BriefGenerated(pt, "ok")
	g.logger.Debug("brief generated",
		zap.String("property_type", pt),
		zap.String("time_span", string(req.TimeSpan)),
		zap.Int("selected", len(b.Selected)),
		zap.Int("catalog", len(entries)),
	)
	return b, nil
}

func (g *Generator) fail(req Request, err error) error {
	g.metrics.BriefGenerated(string(req.PropertyType), "error")
	g.logger.Error("brief generation failed",
		zap.String("property_type", string(req.PropertyType)),
		zap.String("time_span", string(req.TimeSpan)),
		zap.Error(err),
	)
	return errors.NewGenerationFailed(err)
}
