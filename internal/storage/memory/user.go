package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/query"
)

// UserRepository implements storage.UserRepository over a Store.
type UserRepository struct {
	s *Store
}

// Create stores a copy of user.
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID.Value()]; ok {
		return domain.ErrAlreadyExists
	}
	if r.taken(user) {
		return domain.ErrAlreadyExists
	}

	r.s.users[user.ID.Value()] = cloneUser(*user)
	return nil
}

// taken reports whether another live user holds user's email or username.
// The caller holds the lock.
func (r *UserRepository) taken(user *domain.User) bool {
	for id, u := range r.s.users {
		if id == user.ID.Value() || u.DeletedAt != nil {
			continue
		}
		if strings.EqualFold(u.Email, user.Email) || u.Username == user.Username {
			return true
		}
	}
	return false
}

// GetByID returns a copy of the live user with id.
func (r *UserRepository) GetByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id.Value()]
	if !ok || u.DeletedAt != nil {
		return nil, domain.ErrNotFound
	}
	u = cloneUser(u)
	return &u, nil
}

// GetByEmail matches email case-insensitively.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
}

// GetByUsername matches the username exactly.
func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *UserRepository) find(match func(domain.User) bool) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.DeletedAt == nil && match(u) {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Update replaces the stored user when its version matches, then bumps the
// version on both copies.
func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID.Value()]
	if !ok || existing.DeletedAt != nil {
		return domain.ErrNotFound
	}
	if existing.Version != user.Version {
		return domain.ErrConflict
	}
	if r.taken(user) {
		return domain.ErrAlreadyExists
	}

	user.Version++
	user.UpdatedAt = time.Now().UTC()
	r.s.users[user.ID.Value()] = cloneUser(*user)
	return nil
}

// Delete soft-deletes the user.
func (r *UserRepository) Delete(_ context.Context, id domain.UserID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id.Value()]
	if !ok || u.DeletedAt != nil {
		return domain.ErrNotFound
	}
	now := time.Now().UTC()
	u.DeletedAt = &now
	u.UpdatedAt = now
	r.s.users[id.Value()] = u
	return nil
}

// List runs plan over the live users in natural order.
func (r *UserRepository) List(_ context.Context, plan query.Plan[domain.User]) (query.Page[domain.User], error) {
	r.s.mu.RLock()
	users := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if u.DeletedAt == nil {
			users = append(users, cloneUser(u))
		}
	}
	r.s.mu.RUnlock()

	naturalOrder(users,
		func(u domain.User) int64 { return u.CreatedAt.UnixNano() },
		func(u domain.User) uuid.UUID { return u.ID.Value() })

	return plan.Page(users), nil
}
