package ops

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/errors"
	"github.com/moestate/newsdesk/internal/metrics"
)

// Store holds the saved digest list as a single unit.
type Store interface {
	Load(ctx context.Context) ([]digest.Digest, error)
	Save(ctx context.Context, list []digest.Digest) error
	Name() string
}

// Mirror copies digests to a remote store. Callers check Enabled before use.
type Mirror interface {
	Enabled() bool
	Save(ctx context.Context, d *digest.Digest) error
	Replace(ctx context.Context, d *digest.Digest) error
	Delete(ctx context.Context, id string) error
}

// Manager owns the digest lifecycle over a Store and an optional Mirror.
// Writes are read-modify-write of the whole list and are serialized per Manager.
type Manager struct {
	store   Store
	mirror  Mirror
	logger  *zap.Logger
	metrics *metrics.Metrics

	now func() time.Time

	mu sync.Mutex
}

// NewManager creates a manager. A nil mirror means no mirroring.
func NewManager(store Store, mirror Mirror, logger *zap.Logger, m *metrics.Metrics) *Manager {
	if mirror == nil {
		mirror = noMirror{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:   store,
		mirror:  mirror,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// MirrorEnabled reports whether writes are copied to the remote store.
func (m *Manager) MirrorEnabled() bool { return m.mirror.Enabled() }

// Result is the tagged outcome reported at the surfaces for storage operations.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ResultOf converts an operation error into a Result.
func ResultOf(err error) Result {
	if err == nil {
		return Result{Success: true}
	}
	return Result{Success: false, Error: errors.As(err).Message}
}

func (m *Manager) load(ctx context.Context, op string) ([]digest.Digest, error) {
	list, err := m.store.Load(ctx)
	if err != nil {
		return nil, m.storageFailed(op, err)
	}
	return list, nil
}

func (m *Manager) save(ctx context.Context, op string, list []digest.Digest) error {
	if err := m.store.Save(ctx, list); err != nil {
		return m.storageFailed(op, err)
	}
	return nil
}

func (m *Manager) storageFailed(op string, err error) error {
	if isCancellation(err) {
		return errors.NewCancelled(op)
	}
	m.metrics.StorageFailed(op, m.store.Name())
	m.logger.Error("local storage failed",
		zap.String("op", op),
		zap.String("backend", m.store.Name()),
		zap.Error(err),
	)
	return errors.NewStorageFailed(op, err)
}

// mirrored runs fn against the mirror when it is enabled.
// The local write has already happened; a failure is reported, not rolled back.
func (m *Manager) mirrored(op, id string, fn func() error) error {
	if !m.mirror.Enabled() {
		return nil
	}
	err := fn()
	if err == nil {
		return nil
	}
	m.metrics.StorageFailed(op, "mirror")
	m.logger.Error("mirror write failed",
		zap.String("op", op),
		zap.String("id", id),
		zap.Error(err),
	)
	if errors.Is(err, errors.ErrMirrorFailed) {
		return err
	}
	return errors.NewMirrorFailed(op, err)
}

// nextTimestamp returns now, pushed forward so it sorts strictly after prev.
func (m *Manager) nextTimestamp(prev string) string {
	now := m.now().UTC().Truncate(time.Millisecond)
	if p := digest.ParseTimestamp(prev); !p.IsZero() && !now.After(p) {
		now = p.Truncate(time.Millisecond).Add(time.Millisecond)
	}
	return digest.Timestamp(now)
}

func isCancellation(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

func indexOf(list []digest.Digest, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewInvalidRequest("id is required")
	}
	return id, nil
}

// generateULID generates a new ULID stamped with t.
func generateULID(t time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type noMirror struct{}

func (noMirror) Enabled() bool { return false }

func (noMirror) Save(context.Context, *digest.Digest) error { return errors.NewMirrorDisabled() }

func (noMirror) Replace(context.Context, *digest.Digest) error { return errors.NewMirrorDisabled() }

func (noMirror) Delete(context.Context, string) error { return errors.NewMirrorDisabled() }
