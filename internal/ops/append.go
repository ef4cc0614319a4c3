package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/errors"
)

// AppendInput contains parameters for the Append operation.
type AppendInput struct {
	ID      string
	Section string // heading name, e.g. "Market Summary" or "retail"
	Content string // markdown appended to the section body
}

// AppendOutput contains the result of the Append operation.
type AppendOutput struct {
	ID         string `json:"id"`
	SectionHit string `json:"section_hit"` // heading that was matched
	UpdatedAt  string `json:"updatedAt"`
}

// Append adds an analyst note to the end of one section of a digest's content.
// Unlike Update, a missing digest is NOT_FOUND: there is nothing to append to.
func (m *Manager) Append(ctx context.Context, input AppendInput) (*AppendOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Section) == "" {
		return nil, errors.NewInvalidRequest("section is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, errors.NewInvalidRequest("content is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	list, err := m.load(ctx, "append")
	if err != nil {
		return nil, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return nil, errors.NewNotFound(id)
	}

	var hit string
	d, err := m.replaceAt(ctx, "append", list, i, func(d *digest.Digest) error {
		sections := digest.ParseSections(d.Content)
		if len(sections) == 0 {
			return errors.NewInvalidRequest("digest content has no sections")
		}
		s := digest.FindSection(sections, input.Section)
		if s == nil {
			return errors.NewInvalidRequest(fmt.Sprintf("section %q not found; available: %v",
				input.Section, digest.SectionNames(sections)))
		}
		hit = s.Header
		d.Content = digest.AppendToSection(d.Content, s, strings.TrimSpace(input.Content))
		return nil
	})
	if d == nil {
		return nil, err
	}

	return &AppendOutput{ID: d.ID, SectionHit: hit, UpdatedAt: d.UpdatedAt}, err
}
