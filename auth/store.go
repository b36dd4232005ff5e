package auth

import (
	"context"
	"sync"
	"time"
)

// UserStore is the credential store the auth flows read and write.
// Implementations must enforce email and username uniqueness atomically and
// report violations as ErrDuplicateEmail / ErrDuplicateUsername; lookups that
// find nothing return ErrUserNotFound.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
}

// MemoryUserStore keeps users in process memory. It backs the memory store
// backend and the tests.
type MemoryUserStore struct {
	mu         sync.RWMutex
	byID       map[string]*User
	byEmail    map[string]string
	byUsername map[string]string
}

// NewMemoryUserStore returns an empty MemoryUserStore.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:       make(map[string]*User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

// CreateUser stores a copy of user. The uniqueness checks and the insert run
// under one lock, so two concurrent registrations of the same email cannot
// both succeed.
func (s *MemoryUserStore) CreateUser(ctx context.Context, user *User) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return nil, ErrDuplicateEmail
	}
	if _, ok := s.byUsername[user.Username]; ok {
		return nil, ErrDuplicateUsername
	}

	stored := *user
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.byID[stored.ID] = &stored
	s.byEmail[stored.Email] = stored.ID
	s.byUsername[stored.Username] = stored.ID

	out := stored
	return &out, nil
}

// GetUserByEmail looks a user up by normalized email.
func (s *MemoryUserStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *s.byID[id]
	return &out, nil
}

// GetUserByID looks a user up by id.
func (s *MemoryUserStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *u
	return &out, nil
}
