// Package session holds the authenticated credential for the running process.
//
// A Session is created once at startup from durable storage, mutated on
// login, refresh and logout, and handed to the HTTP client and the stores.
// Memory and storage are always updated together.
package session

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Persister is durable storage for the credential.
type Persister interface {
	Load(ctx context.Context) (core.Credential, error)
	Save(ctx context.Context, cred core.Credential) error
	Clear(ctx context.Context) error
}

// Listener is notified after every change with the new credential snapshot.
type Listener func(core.Credential)

type Session struct {
	mu        sync.RWMutex
	cred      core.Credential
	store     Persister
	logger    *log.Logger
	listeners map[int]Listener
	nextID    int
}

// Open restores the session from the persister.
func Open(ctx context.Context, store Persister, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.Discard()
	}
	cred, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	s := &Session{
		cred:      cred,
		store:     store,
		logger:    logger.WithComponent(log.ComponentSession),
		listeners: make(map[int]Listener),
	}
	if cred.Token != "" {
		s.logger.DebugContext(ctx, "Session restored", log.FieldUser, cred.User.DisplayName())
	}
	return s, nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.Token
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.RefreshToken
}

// User returns a copy of the held user record, or nil.
func (s *Session) User() *core.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred.User == nil {
		return nil
	}
	u := *s.cred.User
	return &u
}

func (s *Session) IsLoggedIn() bool {
	return s.Token() != ""
}

// Credential returns a snapshot of the whole credential.
func (s *Session) Credential() core.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCredential(s.cred)
}

// Set replaces the credential, as after login or signup.
func (s *Session) Set(ctx context.Context, cred core.Credential) error {
	cred = cloneCredential(cred)
	if err := s.store.Save(ctx, cred); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()
	s.notify(cred)
	return nil
}

// UpdateTokens swaps in refreshed tokens and keeps the user record.
// An empty refreshToken keeps the current one.
func (s *Session) UpdateTokens(ctx context.Context, token, refreshToken string) error {
	s.mu.Lock()
	next := cloneCredential(s.cred)
	next.Token = token
	if refreshToken != "" {
		next.RefreshToken = refreshToken
	}
	if err := s.store.Save(ctx, next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("save credential: %w", err)
	}
	s.cred = next
	s.mu.Unlock()
	s.notify(next)
	return nil
}

// Clear terminates the session in memory and in storage. The in-memory
// credential is dropped even if storage fails.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.cred = core.Credential{}
	s.mu.Unlock()
	s.notify(core.Credential{})

	if err := s.store.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to clear stored credential", log.FieldError, err)
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// Subscribe registers fn for change notifications and returns a func that removes it.
func (s *Session) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) notify(cred core.Credential) {
	s.mu.RLock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(cloneCredential(cred))
	}
}

func cloneCredential(c core.Credential) core.Credential {
	if c.User != nil {
		u := *c.User
		c.User = &u
	}
	return c
}
