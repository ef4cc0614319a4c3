package ops

import (
	"context"
	"strings"

	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/errors"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Search   string // matches title or content, case-insensitive
	TimeSpan string // daily | weekly | custom | all (default: all)
	Sort     string // newest | oldest | title (default: newest)
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items []digest.Summary `json:"items"`
	Total int              `json:"total"` // stored digests before filtering
	Sort  string           `json:"sort"`
}

// List returns filtered, sorted digest summaries.
func (m *Manager) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	order, err := digest.ParseSortOrder(input.Sort)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	span := strings.ToLower(strings.TrimSpace(input.TimeSpan))
	if span != "" && span != "all" && !digest.TimeSpan(span).Valid() {
		return nil, errors.NewInvalidRequest("time_span must be one of: daily, weekly, custom, all")
	}

	list, err := m.load(ctx, "list")
	if err != nil {
		return nil, err
	}

	view := digest.Sort(digest.Filter(list, digest.FilterOptions{
		Search:   input.Search,
		TimeSpan: span,
	}), order)

	items := make([]digest.Summary, len(view))
	for i := range view {
		items[i] = view[i].ToSummary()
	}

	return &ListOutput{
		Items: items,
		Total: len(list),
		Sort:  string(order),
	}, nil
}
