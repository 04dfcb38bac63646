package users

import (
	"context"
	"sync"
	"time"

	"github.com/socialhub/socialhub/backend/go-services/internal/models"
)

// MemoryRepository is an in-process UserRepository used when MongoDB is not
// configured and in tests. Returned users are copies.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*models.User)}
}

func (m *MemoryRepository) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.store[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

// GetByEmail returns the first match; emails are not unique at this layer.
func (m *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return m.update(id, func(u *models.User) {
		t := at
		u.LastLoginAt = &t
	})
}

func (m *MemoryRepository) UpdatePasswordHash(ctx context.Context, id, hash string, temporary bool, at time.Time) error {
	return m.update(id, func(u *models.User) {
		u.PasswordHash = hash
		u.IsTemporaryPassword = temporary
		u.LastUpdatedAt = at
	})
}

func (m *MemoryRepository) UpdateProfile(ctx context.Context, id, username string, at time.Time) (*models.User, error) {
	var out models.User
	err := m.update(id, func(u *models.User) {
		u.Username = username
		u.LastUpdatedAt = at
		out = *u
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *MemoryRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	return m.update(id, func(u *models.User) {
		u.IsActive = false
		u.LastUpdatedAt = at
	})
}

func (m *MemoryRepository) update(id string, fn func(u *models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	fn(u)
	return nil
}
