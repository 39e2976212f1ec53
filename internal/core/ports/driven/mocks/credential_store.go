package mocks

import (
	"context"
	"sync"

	"github.com/edustack-labs/meetlink/internal/core/domain"
)

// MockCredentialStore is an in-memory CredentialStore for testing
type MockCredentialStore struct {
	mu          sync.RWMutex
	credentials map[string]*domain.Credential // key: userID:provider

	// Error hooks: when set, the corresponding call fails with the error.
	GetErr    error
	UpsertErr error
	DeleteErr error
	ExistsErr error

	// Call counters for asserting interaction patterns.
	UpsertCalls int
	DeleteCalls int
}

// NewMockCredentialStore creates a new MockCredentialStore
func NewMockCredentialStore() *MockCredentialStore {
	return &MockCredentialStore{
		credentials: make(map[string]*domain.Credential),
	}
}

func key(userID string, provider domain.Provider) string {
	return userID + ":" + string(provider)
}

func (m *MockCredentialStore) Get(ctx context.Context, userID string, provider domain.Provider) (*domain.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}

	cred, ok := m.credentials[key(userID, provider)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *cred
	return &copied, nil
}

func (m *MockCredentialStore) Upsert(ctx context.Context, cred *domain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpsertCalls++
	if m.UpsertErr != nil {
		return m.UpsertErr
	}

	copied := *cred
	m.credentials[key(cred.UserID, cred.Provider)] = &copied
	return nil
}

func (m *MockCredentialStore) Delete(ctx context.Context, userID string, provider domain.Provider) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls++
	if m.DeleteErr != nil {
		return false, m.DeleteErr
	}

	k := key(userID, provider)
	_, ok := m.credentials[k]
	delete(m.credentials, k)
	return ok, nil
}

func (m *MockCredentialStore) Exists(ctx context.Context, userID string, provider domain.Provider) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}

	_, ok := m.credentials[key(userID, provider)]
	return ok, nil
}

// Count returns the number of stored credentials.
func (m *MockCredentialStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.credentials)
}
