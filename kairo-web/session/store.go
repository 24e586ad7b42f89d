// Package session holds the single credential that gates the board: an
// opaque token issued by the auth service. Presence means logged in.
package session

import (
	"context"
	"sync"
)

// Key is the name the token is persisted under.
const Key = "token"

// Store persists at most one session token. Implementations do not
// check expiry; the backend enforces it.
type Store interface {
	// Token returns the stored token and whether one is present.
	Token(ctx context.Context) (string, bool, error)
	// SetToken overwrites any existing token.
	SetToken(ctx context.Context, token string) error
	// ClearToken removes the token. Clearing an absent token is not an error.
	ClearToken(ctx context.Context) error
}

// Memory keeps the token in process memory.
type Memory struct {
	mu    sync.Mutex
	token string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Token(context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != "", nil
}

func (m *Memory) SetToken(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) ClearToken(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

// Present reports whether s currently holds a token. Read errors count as
// absent and are returned so callers can log them.
func Present(ctx context.Context, s Store) (bool, error) {
	_, ok, err := s.Token(ctx)
	if err != nil {
		return false, err
	}
	return ok, nil
}
