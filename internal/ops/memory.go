package ops

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/moestate/newsdesk/internal/digest"
)

// MemoryStore is an in-process Store. Saved lists are deep-copied through JSON
// so callers cannot alias stored state.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte

	// Err, when set, is returned by every Load and Save.
	Err error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Load(ctx context.Context) ([]digest.Digest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list := []digest.Digest{}
	if s.data == nil {
		return list, nil
	}
	if err := json.Unmarshal(s.data, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []digest.Digest{}
	}
	return list, nil
}

func (s *MemoryStore) Save(ctx context.Context, list []digest.Digest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	s.data = data
	return nil
}
