package ops

import (
	"context"

	"github.com/moestate/newsdesk/internal/digest"
)

// Update replaces every field set in p and refreshes updatedAt so it sorts
// strictly after the previous value. An empty patch only refreshes updatedAt.
//
// An unknown id is a no-op and returns (nil, nil). When mirroring is enabled the
// remote copy is replaced wholesale, articles included.
func (m *Manager) Update(ctx context.Context, id string, p digest.Patch) (*digest.Digest, error) {
	id, err := requireID(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	list, err := m.load(ctx, "update")
	if err != nil {
		return nil, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return nil, nil
	}

	return m.replaceAt(ctx, "update", list, i, func(d *digest.Digest) error {
		d.Apply(p)
		return nil
	})
}

// replaceAt edits list[i] through edit, validates, stores and mirrors it.
// Callers hold m.mu.
func (m *Manager) replaceAt(ctx context.Context, op string, list []digest.Digest, i int, edit func(*digest.Digest) error) (*digest.Digest, error) {
	d := list[i].Clone()
	if err := edit(d); err != nil {
		return nil, err
	}
	d.UpdatedAt = m.nextTimestamp(list[i].UpdatedAt)
	if err := digest.Validate(d); err != nil {
		return nil, err
	}

	list[i] = *d
	if err := m.save(ctx, op, list); err != nil {
		return nil, err
	}

	if err := m.mirrored("replace", d.ID, func() error { return m.mirror.Replace(ctx, d) }); err != nil {
		return d.Clone(), err
	}
	return d.Clone(), nil
}
