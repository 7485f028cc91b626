package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mvaleed/seedwork/internal/primitive"
	"github.com/mvaleed/seedwork/internal/result"
)

type roleTag struct{}

// RoleID identifies a Role.
type RoleID = primitive.ID[roleTag]

func NewRoleID() RoleID { return primitive.NewID[roleTag]() }

func RoleIDFrom(v uuid.UUID) RoleID { return primitive.IDFrom[roleTag](v) }

func ParseRoleID(s string) result.Of[RoleID] { return primitive.ParseID[roleTag](s) }

// Permission represents a single permission in the resource:action model.
// Either part may be the wildcard "*".
type Permission struct {
	Resource string `json:"resource"` // e.g., "users", "orders", "reports"
	Action   string `json:"action"`   // e.g., "read", "write", "delete", "admin"
}

// NewPermission creates a validated permission.
func NewPermission(resource, action string) result.Of[Permission] {
	p := Permission{
		Resource: strings.ToLower(strings.TrimSpace(resource)),
		Action:   strings.ToLower(strings.TrimSpace(action)),
	}
	return result.OnSuccessOf(p.Validate(), func() result.Of[Permission] { return result.SuccessOf(p) })
}

// ParsePermission reads the resource:action form produced by String.
func ParsePermission(s string) result.Of[Permission] {
	resource, action, ok := strings.Cut(s, ":")
	if !ok {
		return result.FailureOf[Permission](
			(Violations{}).Check(false, "permission", "must have the form resource:action").Result().Error())
	}
	return NewPermission(resource, action)
}

// Validate checks the permission fields.
func (p Permission) Validate() result.Result {
	v := Violations{}
	if p.Resource == "" {
		v.Check(false, "resource", "required")
	} else {
		v.Check(len(p.Resource) <= 50, "resource", "must be at most 50 characters")
	}
	if p.Action == "" {
		v.Check(false, "action", "required")
	} else {
		v.Check(len(p.Action) <= 50, "action", "must be at most 50 characters")
	}
	return v.Result()
}

// String returns the permission in resource:action format.
func (p Permission) String() string {
	return p.Resource + ":" + p.Action
}

// Grants reports whether p covers resource and action, honouring wildcards.
func (p Permission) Grants(resource, action string) bool {
	return (p.Resource == resource || p.Resource == "*") &&
		(p.Action == action || p.Action == "*")
}

// Role represents a named collection of permissions.
type Role struct {
	ID          RoleID       `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Description string       `json:"description" db:"description"`
	Permissions []Permission `json:"permissions" db:"permissions" query:"-"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// NewRole creates a validated role.
func NewRole(name, description string) result.Of[*Role] {
	now := time.Now().UTC()
	r := &Role{
		ID:          NewRoleID(),
		Name:        strings.ToLower(strings.TrimSpace(name)),
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return result.OnSuccessOf(r.Validate(), func() result.Of[*Role] { return result.SuccessOf(r) })
}

func (r *Role) Validate() result.Result {
	v := Violations{}
	if r.Name == "" {
		v.Check(false, "name", "required")
	} else {
		v.Check(len(r.Name) <= 50, "name", "must be at most 50 characters")
	}
	v.Check(len(r.Description) <= 500, "description", "must be at most 500 characters")
	return v.Result()
}

func (r *Role) HasPermission(resource, action string) bool {
	return slices.ContainsFunc(r.Permissions, func(p Permission) bool { return p.Grants(resource, action) })
}

// AddPermission adds a permission to the role if not already present.
func (r *Role) AddPermission(p Permission) {
	if slices.Contains(r.Permissions, p) {
		return
	}
	r.Permissions = append(r.Permissions, p)
	r.UpdatedAt = time.Now().UTC()
}

// RemovePermission removes a permission from the role.
func (r *Role) RemovePermission(p Permission) {
	if i := slices.Index(r.Permissions, p); i >= 0 {
		r.Permissions = slices.Delete(r.Permissions, i, i+1)
		r.UpdatedAt = time.Now().UTC()
	}
}

// PermissionStrings returns all permissions as resource:action strings.
func (r *Role) PermissionStrings() []string {
	out := make([]string, len(r.Permissions))
	for i, p := range r.Permissions {
		out[i] = p.String()
	}
	return out
}
