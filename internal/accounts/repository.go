package accounts

import (
	"context"
	"sync"
	"time"
)

// Repository defines the interface for account storage.
type Repository interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	Update(ctx context.Context, u *User) error
}

// InMemoryRepository stores accounts in memory.
type InMemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{users: make(map[string]*User)}
}

// Create stores a new account keyed by phone.
func (r *InMemoryRepository) Create(ctx context.Context, u *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.Phone]; ok {
		return nil, ErrUserExists
	}
	stored := *u
	stored.CreatedAt = time.Now().UTC()
	r.users[stored.Phone] = &stored

	out := stored
	return &out, nil
}

// GetByPhone retrieves an account.
func (r *InMemoryRepository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[phone]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *u
	return &out, nil
}

// Update replaces the stored account record.
func (r *InMemoryRepository) Update(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[u.Phone]
	if !ok {
		return ErrUserNotFound
	}
	updated := *u
	updated.CreatedAt = existing.CreatedAt
	r.users[u.Phone] = &updated
	return nil
}
