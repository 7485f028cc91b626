package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/event"
	"github.com/mvaleed/seedwork/internal/query"
	"github.com/mvaleed/seedwork/internal/result"
	"github.com/mvaleed/seedwork/internal/storage"
)

// RoleService handles role-based access control operations.
type RoleService struct {
	users   storage.UserRepository
	roles   storage.RoleRepository
	events  emitter
	queries []query.Option
}

func NewRoleService(
	repos *storage.Repositories,
	publisher event.Publisher,
	logger *slog.Logger,
	queries ...query.Option,
) *RoleService {
	return &RoleService{
		users:   repos.Users,
		roles:   repos.Roles,
		events:  emitter{publisher: publisher, logger: logger},
		queries: queries,
	}
}

// parsePermissions reads resource:action strings, reporting every bad one
// under the "permissions" field.
func parsePermissions(raw []string) result.Of[[]domain.Permission] {
	perms := make([]domain.Permission, 0, len(raw))
	v := domain.Violations{}
	for _, s := range raw {
		p, f := domain.ParsePermission(s).Get()
		if f != nil {
			v.Check(false, "permissions", strings.TrimSpace(s)+" must have the form resource:action")
			continue
		}
		perms = append(perms, p)
	}
	return result.OnSuccessOf(v.Result(), func() result.Of[[]domain.Permission] {
		return result.SuccessOf(perms)
	})
}

// CreateRole creates a role holding the given resource:action permissions.
func (s *RoleService) CreateRole(ctx context.Context, name, description string, permissions []string) result.Of[*domain.Role] {
	role := result.Bind(parsePermissions(permissions), func(perms []domain.Permission) result.Of[*domain.Role] {
		return result.Map(domain.NewRole(name, description), func(r *domain.Role) *domain.Role {
			for _, p := range perms {
				r.AddPermission(p)
			}
			return r
		})
	})

	return result.Bind(role, func(r *domain.Role) result.Of[*domain.Role] {
		if err := s.roles.Create(ctx, r); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return result.FailureOf[*domain.Role](domain.RoleAlreadyExists(r.Name))
			}
			return result.FailureOf[*domain.Role](fault(err))
		}
		s.events.publish(ctx, domain.RoleCreatedEvent(r))
		return result.SuccessOf(r)
	})
}

func (s *RoleService) GetRole(ctx context.Context, id domain.RoleID) result.Of[*domain.Role] {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return result.FailureOf[*domain.Role](notFoundAs(err, domain.RoleNotFound(id.String())))
	}
	return result.SuccessOf(role)
}

func (s *RoleService) GetRoleByName(ctx context.Context, name string) result.Of[*domain.Role] {
	role, err := s.roles.GetByName(ctx, name)
	if err != nil {
		return result.FailureOf[*domain.Role](notFoundAs(err, domain.RoleNotFound(name)))
	}
	return result.SuccessOf(role)
}

// ListRoles compiles p against domain.Role and returns one page.
func (s *RoleService) ListRoles(ctx context.Context, p query.Params) result.Of[query.Page[domain.Role]] {
	return result.Bind(query.Compile[domain.Role](p, s.queries...), func(plan query.Plan[domain.Role]) result.Of[query.Page[domain.Role]] {
		page, err := s.roles.List(ctx, plan)
		if err != nil {
			return result.FailureOf[query.Page[domain.Role]](fault(err))
		}
		return result.SuccessOf(page)
	})
}

// UpdateRoleInput holds the fields to change. Nil fields are left alone;
// Permissions replaces the whole set.
type UpdateRoleInput struct {
	Name        *string
	Description *string
	Permissions *[]string
}

func (s *RoleService) UpdateRole(ctx context.Context, id domain.RoleID, in UpdateRoleInput) result.Of[*domain.Role] {
	return result.Bind(s.GetRole(ctx, id), func(role *domain.Role) result.Of[*domain.Role] {
		if in.Name != nil {
			role.Name = strings.ToLower(strings.TrimSpace(*in.Name))
		}
		if in.Description != nil {
			role.Description = strings.TrimSpace(*in.Description)
		}
		if in.Permissions != nil {
			perms, f := parsePermissions(*in.Permissions).Get()
			if f != nil {
				return result.FailureOf[*domain.Role](f)
			}
			role.Permissions = nil
			for _, p := range perms {
				role.AddPermission(p)
			}
		}
		if r := role.Validate(); r.IsFailure() {
			return result.FailureOf[*domain.Role](r.Error())
		}

		if err := s.roles.Update(ctx, role); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return result.FailureOf[*domain.Role](domain.RoleAlreadyExists(role.Name))
			}
			return result.FailureOf[*domain.Role](notFoundAs(err, domain.RoleNotFound(id.String())))
		}
		s.events.publish(ctx, domain.RoleUpdatedEvent(role))
		return result.SuccessOf(role)
	})
}

// DeleteRole removes a role no user holds.
func (s *RoleService) DeleteRole(ctx context.Context, id domain.RoleID) result.Result {
	return result.Then(s.GetRole(ctx, id), func(role *domain.Role) result.Result {
		if err := s.roles.Delete(ctx, id); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return result.Failure(domain.RoleInUse(role.Name))
			}
			return result.Failure(notFoundAs(err, domain.RoleNotFound(id.String())))
		}
		s.events.publish(ctx, domain.RoleDeletedEvent(id))
		return result.Success()
	})
}

// AssignRole gives an existing user an existing role. Assigning twice is a
// no-op.
func (s *RoleService) AssignRole(ctx context.Context, userID domain.UserID, roleID domain.RoleID) result.Result {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return result.Failure(notFoundAs(err, domain.UserNotFound(userID)))
	}
	return result.Then(s.GetRole(ctx, roleID), func(role *domain.Role) result.Result {
		if err := s.roles.AssignRole(ctx, userID, roleID); err != nil {
			return result.Failure(fault(err))
		}
		s.events.publish(ctx, domain.RoleAssignedEvent(userID, role.Name))
		return result.Success()
	})
}

// RemoveRole takes a role away from a user.
func (s *RoleService) RemoveRole(ctx context.Context, userID domain.UserID, roleID domain.RoleID) result.Result {
	return result.Then(s.GetRole(ctx, roleID), func(role *domain.Role) result.Result {
		if err := s.roles.RemoveRole(ctx, userID, roleID); err != nil {
			return result.Failure(fault(err))
		}
		s.events.publish(ctx, domain.RoleRemovedEvent(userID, role.Name))
		return result.Success()
	})
}

func (s *RoleService) GetUserRoles(ctx context.Context, userID domain.UserID) result.Of[[]domain.Role] {
	roles, err := s.roles.GetUserRoles(ctx, userID)
	if err != nil {
		return result.FailureOf[[]domain.Role](fault(err))
	}
	if roles == nil {
		roles = []domain.Role{}
	}
	return result.SuccessOf(roles)
}

// CheckPermission reports whether any role of the user grants resource:action.
func (s *RoleService) CheckPermission(ctx context.Context, userID domain.UserID, resource, action string) result.Of[bool] {
	return result.Map(s.GetUserRoles(ctx, userID), func(roles []domain.Role) bool {
		for _, role := range roles {
			if role.HasPermission(resource, action) {
				return true
			}
		}
		return false
	})
}
