package ops

import (
	"context"

	"go.uber.org/zap"

	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/errors"
)

// Create validates f, assigns a fresh id and timestamps, and appends the digest.
//
// When the mirror is enabled and rejects the copy, the local digest is still
// returned together with a MIRROR_FAILED error.
func (m *Manager) Create(ctx context.Context, f digest.Form) (*digest.Digest, error) {
	if err := digest.ValidateForm(f); err != nil {
		return nil, err
	}

	now := m.now()
	id, err := generateULID(now)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	d := digest.New(id, f, now)

	m.mu.Lock()
	defer m.mu.Unlock()

	list, err := m.load(ctx, "create")
	if err != nil {
		return nil, err
	}
	list = append(list, *d)
	if err := m.save(ctx, "create", list); err != nil {
		return nil, err
	}

	m.logger.Debug("digest created", zap.String("id", d.ID), zap.String("title", d.Title))

	if err := m.mirrored("save", d.ID, func() error { return m.mirror.Save(ctx, d) }); err != nil {
		return d.Clone(), err
	}
	return d.Clone(), nil
}
