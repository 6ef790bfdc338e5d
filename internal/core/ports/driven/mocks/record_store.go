package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/tokenbridge/internal/core/domain"
)

// MockRecordStore is an in-memory RecordStore for testing.
// Setting Unavailable makes every call fail the way a dropped connection would.
type MockRecordStore struct {
	mu          sync.RWMutex
	records     map[string]string
	unavailable bool
	sets        int
}

// NewMockRecordStore creates a new MockRecordStore
func NewMockRecordStore() *MockRecordStore {
	return &MockRecordStore{
		records: make(map[string]string),
	}
}

func (m *MockRecordStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return fmt.Errorf("set %s: %w", key, domain.ErrServiceUnavailable)
	}
	m.records[key] = value
	m.sets++
	return nil
}

func (m *MockRecordStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.unavailable {
		return "", fmt.Errorf("get %s: %w", key, domain.ErrServiceUnavailable)
	}
	value, ok := m.records[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return value, nil
}

func (m *MockRecordStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.unavailable {
		return domain.ErrServiceUnavailable
	}
	return nil
}

// SetUnavailable toggles simulated connection loss.
func (m *MockRecordStore) SetUnavailable(unavailable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = unavailable
}

// Record returns the raw stored value, bypassing availability.
func (m *MockRecordStore) Record(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.records[key]
	return value, ok
}

// SetCount returns how many writes succeeded.
func (m *MockRecordStore) SetCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets
}
