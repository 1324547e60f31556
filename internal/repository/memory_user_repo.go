package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"user-management-api/internal/model"
)

// MemoryUserRepository is an in-process UserRepository for tests and local runs.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[int64]model.User{}}
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id int64) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return clone(u), nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *MemoryUserRepository) ExistsByEmail(_ context.Context, email string, excludeID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.emailTakenLocked(email, excludeID), nil
}

func (r *MemoryUserRepository) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTakenLocked(u.Email, 0) {
		return model.ErrEmailTaken
	}

	r.nextID++
	now := time.Now().UTC()
	u.ID = r.nextID
	u.Email = strings.TrimSpace(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = clone(*u)
	return nil
}

func (r *MemoryUserRepository) UpdateProfile(_ context.Context, id int64, fullName string, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTakenLocked(email, id) {
		return model.ErrEmailTaken
	}
	return r.mutateLocked(id, func(u *model.User) {
		u.FullName = fullName
		u.Email = strings.TrimSpace(email)
	})
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mutateLocked(id, func(u *model.User) { u.PasswordHash = passwordHash })
}

func (r *MemoryUserRepository) UpdateRole(_ context.Context, id int64, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mutateLocked(id, func(u *model.User) { u.Role = role })
}

func (r *MemoryUserRepository) SetApproved(_ context.Context, id int64, approved bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mutateLocked(id, func(u *model.User) { u.Approved = approved })
}

func (r *MemoryUserRepository) SetTokenVersion(_ context.Context, id int64, version *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mutateLocked(id, func(u *model.User) { u.TokenVersion = copyInt(version) })
}

func (r *MemoryUserRepository) TokenVersion(_ context.Context, id int64) (*int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return copyInt(u.TokenVersion), nil
}

func (r *MemoryUserRepository) List(_ context.Context, limit int, offset int) ([]model.UserSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	users := make([]model.UserSummary, 0, limit)
	for i := offset; i < len(ids) && len(users) < limit; i++ {
		u := r.users[ids[i]]
		users = append(users, model.UserSummary{
			ID:       u.ID,
			FullName: u.FullName,
			Email:    u.Email,
			Role:     u.Role,
			Approved: u.Approved,
		})
	}
	return users, nil
}

func (r *MemoryUserRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func (r *MemoryUserRepository) emailTakenLocked(email string, excludeID int64) bool {
	for id, u := range r.users {
		if id != excludeID && strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}

func (r *MemoryUserRepository) mutateLocked(id int64, fn func(u *model.User)) error {
	u, ok := r.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return nil
}

func clone(u model.User) model.User {
	u.TokenVersion = copyInt(u.TokenVersion)
	return u
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
