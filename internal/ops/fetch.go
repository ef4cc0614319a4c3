package ops

import (
	"context"

	"github.com/moestate/newsdesk/internal/digest"
)

// Get returns the digest with id, or (nil, nil) when there is none.
func (m *Manager) Get(ctx context.Context, id string) (*digest.Digest, error) {
	id, err := requireID(id)
	if err != nil {
		return nil, err
	}

	list, err := m.load(ctx, "fetch")
	if err != nil {
		return nil, err
	}
	if i := indexOf(list, id); i >= 0 {
		return list[i].Clone(), nil
	}
	return nil, nil
}

// All returns every stored digest in storage order.
func (m *Manager) All(ctx context.Context) ([]digest.Digest, error) {
	return m.load(ctx, "list")
}
