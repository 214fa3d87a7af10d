package ports_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// mockStore is a minimal StateStore used to check the contract suite itself.
type mockStore struct {
	mu   sync.Mutex
	data map[string]*domain.Session
}

func (m *mockStore) Save(ctx context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.State = s.State.Clone()
	m.data[s.ID] = &cp
	return nil
}

func (m *mockStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *s
	cp.State = s.State.Clone()
	return &cp, nil
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *mockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func TestStateStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, &mockStore{data: make(map[string]*domain.Session)})
}
