// Package domaintest provides builders for domain fixtures used across
// package tests.
package domaintest

import (
	"fmt"
	"time"

	"github.com/mvaleed/seedwork/internal/domain"
)

// Epoch is the creation time of the first built user; later users are one
// hour apart so ordering by creation time is deterministic.
var Epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// UserOption customises a built user.
type UserOption func(*domain.User)

func WithUsername(name string) UserOption {
	return func(u *domain.User) {
		u.Username = name
		u.Email = name + "@example.com"
		u.FullName = "User " + name
	}
}

func WithStatus(s domain.UserStatus) UserOption {
	return func(u *domain.User) { u.Status = s }
}

func WithType(t domain.UserType) UserOption {
	return func(u *domain.User) { u.Type = t }
}

func WithBonus(b float64) UserOption {
	return func(u *domain.User) { u.Bonus = b }
}

func WithPasswordHash(h string) UserOption {
	return func(u *domain.User) { u.PasswordHash = h }
}

func WithRoles(roles ...domain.Role) UserOption {
	return func(u *domain.User) { u.Roles = append(u.Roles, roles...) }
}

func WithCreatedAt(t time.Time) UserOption {
	return func(u *domain.User) {
		u.CreatedAt = t
		u.UpdatedAt = t
	}
}

// User returns a valid active customer. Options apply in order.
func User(opts ...UserOption) *domain.User {
	u := &domain.User{
		ID:        domain.NewUserID(),
		Email:     "user@example.com",
		Username:  "user",
		FullName:  "Test User",
		Type:      domain.UserTypeCustomer,
		Status:    domain.UserStatusActive,
		CreatedAt: Epoch,
		UpdatedAt: Epoch,
		Version:   1,
	}
	for _, opt := range opts {
		opt(u)
	}
	if r := u.Validate(); r.IsFailure() {
		panic(fmt.Sprintf("domaintest: invalid user fixture: %v", r.Error()))
	}
	return u
}

// Users returns n distinct users named user0..user(n-1), created an hour
// apart, with bonuses 10, 20, ... so every record differs in every field.
func Users(n int) []*domain.User {
	users := make([]*domain.User, n)
	for i := range users {
		users[i] = User(
			WithUsername(fmt.Sprintf("user%d", i)),
			WithBonus(float64(10*(i+1))),
			WithCreatedAt(Epoch.Add(time.Duration(i)*time.Hour)),
		)
	}
	return users
}

// Role returns a valid role holding the given resource:action permissions.
func Role(name string, permissions ...string) *domain.Role {
	r := domain.NewRole(name, "fixture role "+name).Value()
	for _, s := range permissions {
		r.AddPermission(domain.ParsePermission(s).Value())
	}
	r.CreatedAt = Epoch
	r.UpdatedAt = Epoch
	return r
}
