package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/query"
)

// RoleRepository implements storage.RoleRepository over a Store.
type RoleRepository struct {
	s *Store
}

// Create stores a copy of role. Names are unique.
func (r *RoleRepository) Create(_ context.Context, role *domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.roles[role.ID.Value()]; ok || r.nameTaken(role) {
		return domain.ErrAlreadyExists
	}

	r.s.roles[role.ID.Value()] = cloneRole(*role)
	return nil
}

func (r *RoleRepository) nameTaken(role *domain.Role) bool {
	for id, existing := range r.s.roles {
		if id != role.ID.Value() && existing.Name == role.Name {
			return true
		}
	}
	return false
}

func (r *RoleRepository) GetByID(_ context.Context, id domain.RoleID) (*domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	role, ok := r.s.roles[id.Value()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	role = cloneRole(role)
	return &role, nil
}

func (r *RoleRepository) GetByName(_ context.Context, name string) (*domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, role := range r.s.roles {
		if role.Name == name {
			role = cloneRole(role)
			return &role, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *RoleRepository) Update(_ context.Context, role *domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.roles[role.ID.Value()]; !ok {
		return domain.ErrNotFound
	}
	if r.nameTaken(role) {
		return domain.ErrAlreadyExists
	}

	role.UpdatedAt = time.Now().UTC()
	r.s.roles[role.ID.Value()] = cloneRole(*role)
	return nil
}

// Delete removes a role that no user holds.
func (r *RoleRepository) Delete(_ context.Context, id domain.RoleID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.roles[id.Value()]; !ok {
		return domain.ErrNotFound
	}
	for _, set := range r.s.assignments {
		if _, ok := set[id.Value()]; ok {
			return domain.ErrConflict
		}
	}

	delete(r.s.roles, id.Value())
	return nil
}

func (r *RoleRepository) List(_ context.Context, plan query.Plan[domain.Role]) (query.Page[domain.Role], error) {
	r.s.mu.RLock()
	roles := make([]domain.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		roles = append(roles, cloneRole(role))
	}
	r.s.mu.RUnlock()

	naturalOrder(roles,
		func(x domain.Role) int64 { return x.CreatedAt.UnixNano() },
		func(x domain.Role) uuid.UUID { return x.ID.Value() })

	return plan.Page(roles), nil
}

// GetUserRoles returns the roles held by the user, by name.
func (r *RoleRepository) GetUserRoles(_ context.Context, userID domain.UserID) ([]domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	roles := []domain.Role{}
	for roleID := range r.s.assignments[userID.Value()] {
		if role, ok := r.s.roles[roleID]; ok {
			roles = append(roles, cloneRole(role))
		}
	}
	slices.SortFunc(roles, func(a, b domain.Role) int { return strings.Compare(a.Name, b.Name) })
	return roles, nil
}

// AssignRole links an existing user and role. Unknown IDs are reported as
// domain.ErrConflict, matching a foreign key violation.
func (r *RoleRepository) AssignRole(_ context.Context, userID domain.UserID, roleID domain.RoleID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID.Value()]; !ok {
		return domain.ErrConflict
	}
	if _, ok := r.s.roles[roleID.Value()]; !ok {
		return domain.ErrConflict
	}

	set, ok := r.s.assignments[userID.Value()]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		r.s.assignments[userID.Value()] = set
	}
	set[roleID.Value()] = struct{}{}
	return nil
}

func (r *RoleRepository) RemoveRole(_ context.Context, userID domain.UserID, roleID domain.RoleID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.assignments[userID.Value()], roleID.Value())
	return nil
}
