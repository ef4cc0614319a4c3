package brief

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/moestate/newsdesk/internal/catalog"
)

const (
	// MaxSelected caps the records in one brief.
	MaxSelected = 8
	// MinSelected is the floor below which the selection falls back to the newest records.
	MinSelected = 5
	// duplicateAdmitThreshold: a draw above this admits an already-seen key.
	duplicateAdmitThreshold = 0.3
)

// Selector picks the records a brief will cover from a date-sorted catalog.
type Selector interface {
	Select(entries []catalog.Entry) []catalog.Entry
}

type selectionKey struct {
	kind     catalog.Kind
	category catalog.Category
}

func keyOf(e catalog.Entry) selectionKey {
	return selectionKey{kind: e.Kind(), category: e.Category}
}

// DiversitySelector takes one entry per unseen (kind, category) pair in
// catalog order, then tops up with the skipped entries in order.
// Output is deterministic.
type DiversitySelector struct{}

func (DiversitySelector) Select(entries []catalog.Entry) []catalog.Entry {
	seen := make(map[selectionKey]bool)
	selected := make([]catalog.Entry, 0, MaxSelected)
	var skipped []catalog.Entry

	for _, e := range entries {
		if len(selected) >= MaxSelected {
			break
		}
		k := keyOf(e)
		if seen[k] {
			skipped = append(skipped, e)
			continue
		}
		seen[k] = true
		selected = append(selected, e)
	}
	for _, e := range skipped {
		if len(selected) >= MaxSelected {
			break
		}
		selected = append(selected, e)
	}

	return finish(selected, entries)
}

// RandomSelector admits an unseen (kind, category) pair always and a seen one
// with probability 0.7. Safe for concurrent use.
type RandomSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSelector wraps rng. A nil rng is seeded from the global source.
func NewRandomSelector(rng *rand.Rand) *RandomSelector {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &RandomSelector{rng: rng}
}

func (s *RandomSelector) Select(entries []catalog.Entry) []catalog.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[selectionKey]bool)
	selected := make([]catalog.Entry, 0, MaxSelected)

	for _, e := range entries {
		if len(selected) >= MaxSelected {
			break
		}
		k := keyOf(e)
		if !seen[k] || s.rng.Float64() > duplicateAdmitThreshold {
			selected = append(selected, e)
			seen[k] = true
		}
	}

	return finish(selected, entries)
}

// finish replaces a short selection with the newest entries and orders the
// result by kind priority. Equal priorities keep their relative order.
func finish(selected, entries []catalog.Entry) []catalog.Entry {
	if len(selected) < MinSelected {
		n := min(MinSelected, len(entries))
		selected = append([]catalog.Entry(nil), entries[:n]...)
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Kind().Priority() > selected[j].Kind().Priority()
	})
	return selected
}

// NewSelector maps a config name to a selector. Unknown names get the diversity selector.
func NewSelector(name string, rng *rand.Rand) Selector {
	if name == "random" {
		return NewRandomSelector(rng)
	}
	return DiversitySelector{}
}
