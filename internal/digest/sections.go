package digest

import (
	"regexp"
	"strings"
)

// Section is one markdown heading and the byte range of its body.
type Section struct {
	Header       string // Full header line "## Office Properties"
	Name         string // Just the name part "Office Properties"
	Level        int    // Number of leading '#'
	HeaderStart  int    // Byte offset of header start
	ContentStart int    // Byte offset where content starts
	ContentEnd   int    // Byte offset where content ends (next header of same or higher level, or EOF)
}

// headerPattern matches ATX headers at the start of a line.
// Groups: full match, hash symbols, header text
var headerPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+([^\n]+?)[ \t]*$`)

// fencePattern matches fenced code block delimiters, allowing 0-3 spaces of indentation.
var fencePattern = regexp.MustCompile("(?m)^[ ]{0,3}(`{3,}|~{3,})")

// fencedRanges returns [start, end) byte ranges of fenced code blocks.
// A closing fence must use the same character and be at least as long as the opener.
func fencedRanges(text string) [][2]int {
	matches := fencePattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) < 2 {
		return nil
	}

	var ranges [][2]int
	var openChar byte
	var openLen, openStart int
	inFence := false

	for _, match := range matches {
		fence := text[match[2]:match[3]]
		if !inFence {
			openChar, openLen, openStart = fence[0], len(fence), match[0]
			inFence = true
		} else if fence[0] == openChar && len(fence) >= openLen {
			ranges = append(ranges, [2]int{openStart, match[1]})
			inFence = false
		}
	}
	return ranges
}

func insideFence(pos int, ranges [][2]int) bool {
	for _, r := range ranges {
		if pos >= r[0] && pos < r[1] {
			return true
		}
	}
	return false
}

// ParseSections finds every markdown heading in text outside fenced code blocks.
// A section's body runs until the next heading of the same or a higher level.
func ParseSections(text string) []Section {
	fences := fencedRanges(text)

	var matches [][]int
	for _, m := range headerPattern.FindAllStringSubmatchIndex(text, -1) {
		if !insideFence(m[0], fences) {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		return nil
	}

	sections := make([]Section, len(matches))
	for i, m := range matches {
		contentStart := m[1]
		if contentStart < len(text) && text[contentStart] == '\n' {
			contentStart++
		}
		sections[i] = Section{
			Header:       text[m[0]:m[1]],
			Name:         text[m[4]:m[5]],
			Level:        m[3] - m[2],
			HeaderStart:  m[0],
			ContentStart: contentStart,
			ContentEnd:   len(text),
		}
	}
	for i := range sections {
		for j := i + 1; j < len(sections); j++ {
			if sections[j].Level <= sections[i].Level {
				sections[i].ContentEnd = sections[j].HeaderStart
				break
			}
		}
	}
	return sections
}

// FindSection finds a section by case-insensitive name. A bare category name
// such as "retail" also matches its "Retail Properties" heading.
func FindSection(sections []Section, name string) *Section {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return nil
	}
	for i := range sections {
		if strings.ToLower(sections[i].Name) == want {
			return &sections[i]
		}
	}
	for i := range sections {
		if strings.ToLower(sections[i].Name) == want+" properties" {
			return &sections[i]
		}
	}
	return nil
}

// SectionNames returns the heading names in document order.
func SectionNames(sections []Section) []string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.Name
	}
	return names
}

// Body returns the section's content without its heading, trimmed.
func (s *Section) Body(text string) string {
	return strings.TrimSpace(text[s.ContentStart:s.ContentEnd])
}

// AppendToSection appends content at the end of a section's body, separated by a blank line.
func AppendToSection(text string, s *Section, content string) string {
	existing := strings.TrimRight(text[s.ContentStart:s.ContentEnd], " \t\n")
	tail := text[s.ContentEnd:]
	sep := "\n"
	if tail != "" {
		sep = "\n\n"
	}
	if existing == "" {
		return text[:s.ContentStart] + "\n" + content + sep + tail
	}
	return text[:s.ContentStart] + existing + "\n\n" + content + sep + tail
}
