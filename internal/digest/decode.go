package digest

import (
	"encoding/json"
	"fmt"

	"github.com/moestate/newsdesk/internal/errors"
)

// present records which string keys a JSON document carried.
// A key that is absent or null decodes to a nil pointer.
type present struct {
	ID              *json.RawMessage `json:"id"`
	CreatedAt       *json.RawMessage `json:"createdAt"`
	UpdatedAt       *json.RawMessage `json:"updatedAt"`
	CustomDateRange *struct {
		Start *json.RawMessage `json:"start"`
		End   *json.RawMessage `json:"end"`
	} `json:"customDateRange"`
	Articles []struct {
		ID          *json.RawMessage `json:"id"`
		Title       *json.RawMessage `json:"title"`
		Source      *json.RawMessage `json:"source"`
		URL         *json.RawMessage `json:"url"`
		PublishedAt *json.RawMessage `json:"publishedAt"`
	} `json:"articles"`
}

// DecodeForm parses a form document. Unknown keys are ignored; string fields
// must be present but may be empty, except title and content.
func DecodeForm(data []byte) (Form, error) {
	var f Form
	if err := json.Unmarshal(data, &f); err != nil {
		return Form{}, errors.NewInvalidRequest(fmt.Sprintf("invalid JSON: %v", err))
	}
	var keys present
	_ = json.Unmarshal(data, &keys)

	p := problems{}
	keys.checkForm(p)
	checkForm(p, f)
	return f, p.err()
}

// Decode parses a complete digest document, as produced by an export.
func Decode(data []byte) (*Digest, error) {
	var d Digest
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid JSON: %v", err))
	}
	var keys present
	_ = json.Unmarshal(data, &keys)

	p := problems{}
	keys.checkForm(p)
	for _, k := range []struct {
		name string
		raw  *json.RawMessage
	}{
		{"id", keys.ID},
		{"createdAt", keys.CreatedAt},
		{"updatedAt", keys.UpdatedAt},
	} {
		if k.raw == nil {
			p.add(k.name, "Required")
		}
	}
	checkForm(p, d.Form())
	if err := p.err(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (k present) checkForm(p problems) {
	if r := k.CustomDateRange; r != nil {
		if r.Start == nil {
			p.add("customDateRange.start", "Required")
		}
		if r.End == nil {
			p.add("customDateRange.end", "Required")
		}
	}
	for i, a := range k.Articles {
		prefix := fmt.Sprintf("articles[%d].", i)
		for _, req := range []struct {
			name string
			raw  *json.RawMessage
		}{
			{"id", a.ID},
			{"title", a.Title},
			{"source", a.Source},
			{"url", a.URL},
			{"publishedAt", a.PublishedAt},
		} {
			if req.raw == nil {
				p.add(prefix+req.name, "Required")
			}
		}
	}
}
