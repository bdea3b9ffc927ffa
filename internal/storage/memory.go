package storage

import (
	"context"
	"sync"

	"fintrack/internal/core"
)

// MemoryStore keeps the credential for the lifetime of the process only.
type MemoryStore struct {
	mu    sync.Mutex
	cred  core.Credential
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (core.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyCredential(m.cred), nil
}

func (m *MemoryStore) Save(_ context.Context, cred core.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = copyCredential(cred)
	m.saves++
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = core.Credential{}
	return nil
}

// Saves reports how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryStore) Close() error { return nil }

func copyCredential(c core.Credential) core.Credential {
	if c.User != nil {
		u := *c.User
		c.User = &u
	}
	return c
}
