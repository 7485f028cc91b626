// Package storage defines the repository interfaces for data persistence.
//
// These interfaces allow the business logic to remain independent of the
// storage implementation. The postgres package backs them with PostgreSQL and
// the memory package with in-process maps.
//
// Repositories report failures as plain errors. Expected conditions are the
// domain error values (domain.ErrNotFound, domain.ErrAlreadyExists,
// domain.ErrConflict) so callers can match them with errors.Is.
package storage

import (
	"context"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/query"
)

// UserRepository persists users. Deleted users are invisible to every read.
type UserRepository interface {
	// Create fails with domain.ErrAlreadyExists when the email or username
	// belongs to another user.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Update writes user only if the stored version still equals
	// user.Version, then increments user.Version. A stale version fails
	// with domain.ErrConflict.
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id domain.UserID) error

	// List applies plan to the live users. The page total counts every
	// user that passed the filters, before offset and limit.
	List(ctx context.Context, plan query.Plan[domain.User]) (query.Page[domain.User], error)
}

// RoleRepository persists roles and the user to role assignments.
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	GetByID(ctx context.Context, id domain.RoleID) (*domain.Role, error)
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	Update(ctx context.Context, role *domain.Role) error

	// Delete fails with domain.ErrConflict while any user holds the role.
	Delete(ctx context.Context, id domain.RoleID) error
	List(ctx context.Context, plan query.Plan[domain.Role]) (query.Page[domain.Role], error)

	GetUserRoles(ctx context.Context, userID domain.UserID) ([]domain.Role, error)

	// AssignRole and RemoveRole are idempotent. Assigning to an unknown user
	// or role fails with domain.ErrConflict.
	AssignRole(ctx context.Context, userID domain.UserID, roleID domain.RoleID) error
	RemoveRole(ctx context.Context, userID domain.UserID, roleID domain.RoleID) error
}

type Repositories struct {
	Users UserRepository
	Roles RoleRepository
}

// Transactor runs fn as one unit of work: every repository call made with
// the ctx given to fn commits together or not at all.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
