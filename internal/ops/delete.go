package ops

import (
	"context"

	"go.uber.org/zap"
)

// DeleteOutput contains the result of the Remove operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Remove deletes a digest. Removing an unknown id is a no-op reported as Deleted=false.
// The remote articles go with the remote brief through the foreign key cascade.
func (m *Manager) Remove(ctx context.Context, id string) (*DeleteOutput, error) {
	id, err := requireID(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	list, err := m.load(ctx, "delete")
	if err != nil {
		return nil, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return &DeleteOutput{Deleted: false, ID: id}, nil
	}

	list = append(list[:i], list[i+1:]...)
	if err := m.save(ctx, "delete", list); err != nil {
		return nil, err
	}
	m.logger.Debug("digest deleted", zap.String("id", id))

	out := &DeleteOutput{Deleted: true, ID: id}
	if err := m.mirrored("delete", id, func() error { return m.mirror.Delete(ctx, id) }); err != nil {
		return out, err
	}
	return out, nil
}
