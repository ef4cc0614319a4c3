package digest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/moestate/newsdesk/internal/errors"
)

// MaxTitleChars is the longest title accepted, in runes.
const MaxTitleChars = 200

// problems collects field-level messages keyed by field path.
type problems map[string]string

func (p problems) add(field, msg string) {
	if _, ok := p[field]; !ok {
		p[field] = msg
	}
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return errors.NewValidation(p)
}

// ValidateForm checks user-supplied fields.
// Returns an INVALID_REQUEST error whose details map each bad field to its message.
func ValidateForm(f Form) error {
	p := problems{}
	checkForm(p, f)
	return p.err()
}

// Validate checks a complete digest. Identity and timestamps are plain
// strings here; their presence is checked where documents are decoded.
func Validate(d *Digest) error {
	p := problems{}
	checkForm(p, d.Form())
	return p.err()
}

func checkForm(p problems, f Form) {
	n := utf8.RuneCountInString(f.Title)
	switch {
	case n == 0:
		p.add("title", "Title is required")
	case n > MaxTitleChars:
		p.add("title", "Title is too long")
	}
	if f.Content == "" {
		p.add("content", "Content is required")
	}
	if !f.PropertyType.Valid() {
		p.add("propertyType", enumMessage(string(f.PropertyType), "office", "retail", "industrial", "multifamily", "all"))
	}
	if !f.TimeSpan.Valid() {
		p.add("timeSpan", enumMessage(string(f.TimeSpan), "daily", "weekly", "custom"))
	}
	for i, a := range f.Articles {
		if !a.Type.Valid() {
			p.add(fmt.Sprintf("articles[%d].type", i), enumMessage(string(a.Type), "article", "permit", "mls", "sale"))
		}
	}
}

func enumMessage(got string, allowed ...string) string {
	return fmt.Sprintf("Invalid enum value. Expected %s, received '%s'", strings.Join(quoteAll(allowed), " | "), got)
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = "'" + s + "'"
	}
	return out
}
