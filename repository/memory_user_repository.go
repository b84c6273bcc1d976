package repository

import (
	"context"
	"go-auth-api/model"
	"sync"
	"time"
)

// MemoryUserRepository is an in-process IUserRepository for local runs
// (database.driver: memory) and tests. It hands out copies, so callers never
// share state with the store.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	nextID int
	users  map[int]*model.User
	now    func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		nextID: 1,
		users:  make(map[int]*model.User),
		now:    time.Now,
	}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	if u.ProfileImageURL != nil {
		s := *u.ProfileImageURL
		c.ProfileImageURL = &s
	}
	if u.RefreshToken != nil {
		s := *u.RefreshToken
		c.RefreshToken = &s
	}
	if u.RefreshTokenExpiry != nil {
		t := *u.RefreshTokenExpiry
		c.RefreshTokenExpiry = &t
	}
	return &c
}

func (r *MemoryUserRepository) find(match func(*model.User) bool) *model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			return cloneUser(u)
		}
	}
	return nil
}

func (r *MemoryUserRepository) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email }), nil
}

func (r *MemoryUserRepository) GetUserByID(_ context.Context, id int) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *MemoryUserRepository) GetUserByRefreshToken(_ context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}
	return r.find(func(u *model.User) bool { return u.RefreshToken != nil && *u.RefreshToken == token }), nil
}

func (r *MemoryUserRepository) CreateUser(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	user.ID = r.nextID
	r.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now().UTC()
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *MemoryUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	u, _ := r.GetUserByEmail(ctx, email)
	return u != nil, nil
}

func (r *MemoryUserRepository) update(userID int, fn func(*model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	fn(u)
	return nil
}

func (r *MemoryUserRepository) UpdateLastLogin(_ context.Context, userID int, at time.Time) error {
	return r.update(userID, func(u *model.User) { u.LastLoginAt = &at })
}

func (r *MemoryUserRepository) UpdateRefreshToken(_ context.Context, userID int, token string, expiry time.Time) error {
	return r.update(userID, func(u *model.User) {
		u.RefreshToken = &token
		u.RefreshTokenExpiry = &expiry
	})
}

func (r *MemoryUserRepository) RevokeRefreshToken(_ context.Context, userID int) error {
	return r.update(userID, func(u *model.User) {
		u.RefreshToken = nil
		u.RefreshTokenExpiry = nil
	})
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, userID int, passwordHash string) error {
	return r.update(userID, func(u *model.User) { u.PasswordHash = passwordHash })
}

// SetActive toggles the activity flag. Account management lives outside
// this service, so only tests and seeding use it.
func (r *MemoryUserRepository) SetActive(userID int, active bool) error {
	return r.update(userID, func(u *model.User) { u.IsActive = active })
}

var _ IUserRepository = (*MemoryUserRepository)(nil)
