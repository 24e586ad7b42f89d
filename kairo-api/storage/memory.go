package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"kairo/kairo-api/domain"
)

// Memory keeps users in process memory. It backs the service when no
// table storage is configured.
type Memory struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		byID:    map[string]domain.User{},
		byEmail: map[string]string{},
		now:     time.Now,
	}
}

func (m *Memory) Create(_ context.Context, u domain.User) (domain.User, error) {
	u = prepareNew(u, m.now())
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byEmail[u.Email]; taken {
		return domain.User{}, ErrDuplicateEmail
	}
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u.ID
	return u, nil
}

func (m *Memory) Get(_ context.Context, id string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) FindByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return m.byID[id], nil
}

// List returns users oldest first.
func (m *Memory) List(context.Context) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, u)
	}
	sortUsers(out)
	return out, nil
}

func (m *Memory) Update(_ context.Context, u domain.User) (domain.User, error) {
	u.Email = domain.NormalizeEmail(u.Email)
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[u.ID]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	if u.Email != cur.Email {
		if _, taken := m.byEmail[u.Email]; taken {
			return domain.User{}, ErrDuplicateEmail
		}
		delete(m.byEmail, cur.Email)
		m.byEmail[u.Email] = u.ID
	}
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = m.now().UTC()
	m.byID[u.ID] = u
	return u, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	delete(m.byEmail, u.Email)
	return nil
}

func sortUsers(users []domain.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
}
