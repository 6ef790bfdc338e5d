package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/tokenbridge/internal/core/domain"
)

// MockHandleStore is a single-lock HandleStore for testing.
type MockHandleStore struct {
	mu     sync.Mutex
	grants map[domain.Handle]*domain.PendingGrant
	now    func() time.Time
}

// NewMockHandleStore creates a new MockHandleStore
func NewMockHandleStore() *MockHandleStore {
	return &MockHandleStore{
		grants: make(map[domain.Handle]*domain.PendingGrant),
		now:    time.Now,
	}
}

func (m *MockHandleStore) Insert(ctx context.Context, grant *domain.PendingGrant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grants[grant.Handle] = grant
	return nil
}

func (m *MockHandleStore) Get(ctx context.Context, handle domain.Handle) (*domain.PendingGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	grant, ok := m.grants[handle]
	if !ok || grant.IsExpired(m.now()) {
		return nil, domain.ErrNotFound
	}
	return grant, nil
}

func (m *MockHandleStore) Remove(ctx context.Context, handle domain.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.grants, handle)
	return nil
}

func (m *MockHandleStore) Cleanup(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for h, g := range m.grants {
		if g.IsExpired(now) {
			delete(m.grants, h)
			removed++
		}
	}
	return removed, nil
}

func (m *MockHandleStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.grants)
}

// SetClock overrides the store's notion of now.
func (m *MockHandleStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}
