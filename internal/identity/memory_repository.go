package identity

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*User
}

// NewMemoryRepository builds an in-memory user store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{nextID: 1, users: make(map[string]*User)}
}

func (r *memoryRepository) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Email]; exists {
		return ErrDuplicateEmail
	}
	user.ID = r.nextID
	r.nextID++
	stored := *user
	r.users[user.Email] = &stored
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return *user, nil
}

func (r *memoryRepository) FindByCode(_ context.Context, code string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.UserCode == code {
			return *user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memoryRepository) SetResetToken(_ context.Context, id int64, token string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := r.byID(id)
	if user == nil {
		return ErrNotFound
	}
	t := token
	e := expiry
	user.ResetToken = &t
	user.ResetExpiration = &e
	return nil
}

func (r *memoryRepository) UpdatePasswordAndClearReset(_ context.Context, id int64, hash, expectToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := r.byID(id)
	if user == nil {
		return ErrNotFound
	}
	if user.ResetToken == nil || *user.ResetToken != expectToken {
		return ErrTokenMismatch
	}
	if user.ResetExpiration == nil || !time.Now().Before(*user.ResetExpiration) {
		return ErrResetExpired
	}
	user.PasswordHash = hash
	user.ResetToken = nil
	user.ResetExpiration = nil
	return nil
}

func (r *memoryRepository) UpdateRole(_ context.Context, id int64, role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := r.byID(id)
	if user == nil {
		return ErrNotFound
	}
	user.Role = role
	return nil
}

func (r *memoryRepository) byID(id int64) *User {
	for _, user := range r.users {
		if user.ID == id {
			return user
		}
	}
	return nil
}
