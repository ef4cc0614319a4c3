package ops

import (
	"context"

	"github.com/moestate/newsdesk/internal/brief"
	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/errors"
)

// GenerateOutput is a composed brief ready to be reviewed and saved.
type GenerateOutput struct {
	Title           string              `json:"title"`
	Content         string              `json:"content"`
	PropertyType    digest.PropertyType `json:"propertyType"`
	TimeSpan        digest.TimeSpan     `json:"timeSpan"`
	CustomDateRange *digest.DateRange   `json:"customDateRange,omitempty"`
	Articles        []digest.Article    `json:"articles"`
}

// Form turns the generated brief into a create payload.
func (o *GenerateOutput) Form() digest.Form {
	return digest.Form{
		Title:           o.Title,
		Content:         o.Content,
		PropertyType:    o.PropertyType,
		TimeSpan:        o.TimeSpan,
		CustomDateRange: o.CustomDateRange,
		Articles:        o.Articles,
	}
}

// Generate composes a brief and converts its selection into article summaries.
// Nothing is stored; callers pass Form() to Create to keep it.
func Generate(ctx context.Context, g *brief.Generator, req brief.Request) (*GenerateOutput, error) {
	b, err := g.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	articles, err := brief.ToSummaries(b.Selected)
	if err != nil {
		return nil, errors.NewGenerationFailed(err)
	}

	out := &GenerateOutput{
		Title:        b.Title,
		Content:      b.Content,
		PropertyType: req.PropertyType,
		TimeSpan:     req.TimeSpan,
		Articles:     articles,
	}
	if req.DateRange != nil {
		r := *req.DateRange
		out.CustomDateRange = &r
	}
	return out, nil
}
