package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/tokenbridge/internal/core/domain"
)

// MockTokenExchanger answers exchanges from a fixed code table.
// Unknown codes fail with domain.ErrUpstream, as a provider rejecting them would.
type MockTokenExchanger struct {
	mu       sync.Mutex
	bundles  map[string]*domain.TokenBundle
	calls    int
	authzURL string
}

// NewMockTokenExchanger creates a new MockTokenExchanger
func NewMockTokenExchanger() *MockTokenExchanger {
	return &MockTokenExchanger{
		bundles:  make(map[string]*domain.TokenBundle),
		authzURL: "https://github.com/login/oauth/authorize?client_id=test",
	}
}

// AddCode registers the bundle returned for code.
func (m *MockTokenExchanger) AddCode(code string, bundle *domain.TokenBundle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundles[code] = bundle
}

func (m *MockTokenExchanger) Exchange(ctx context.Context, code string) (*domain.TokenBundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	bundle, ok := m.bundles[code]
	if !ok {
		return nil, fmt.Errorf("exchange code: %w", domain.ErrUpstream)
	}
	copied := *bundle
	return &copied, nil
}

func (m *MockTokenExchanger) AuthorizeURL() string {
	return m.authzURL
}

// Calls returns how many exchanges were attempted.
func (m *MockTokenExchanger) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
