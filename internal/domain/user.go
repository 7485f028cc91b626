package domain

import (
	"net/mail"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/mvaleed/seedwork/internal/primitive"
	"github.com/mvaleed/seedwork/internal/result"
)

type userTag struct{}

// UserID identifies a User.
type UserID = primitive.ID[userTag]

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return primitive.NewID[userTag]() }

// UserIDFrom wraps a stored UUID.
func UserIDFrom(v uuid.UUID) UserID { return primitive.IDFrom[userTag](v) }

// ParseUserID parses a UserID from its text form.
func ParseUserID(s string) result.Of[UserID] { return primitive.ParseID[userTag](s) }

// UserType represents the type/category of a user.
type UserType string

const (
	UserTypeAdmin    UserType = "admin"
	UserTypeCustomer UserType = "customer"
	UserTypePartner  UserType = "partner"
)

// Valid returns true if the UserType is recognized.
func (t UserType) Valid() bool {
	switch t {
	case UserTypeAdmin, UserTypeCustomer, UserTypePartner:
		return true
	}
	return false
}

// UserStatus represents the current state of a user account.
type UserStatus string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

// Valid returns true if the UserStatus is recognized.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusPending, UserStatusActive, UserStatusInactive, UserStatusSuspended:
		return true
	}
	return false
}

var statusTransitions = map[UserStatus][]UserStatus{
	UserStatusPending:   {UserStatusActive, UserStatusInactive},
	UserStatusActive:    {UserStatusInactive, UserStatusSuspended},
	UserStatusInactive:  {UserStatusActive, UserStatusSuspended},
	UserStatusSuspended: {UserStatusActive, UserStatusInactive},
}

// CanTransitionTo validates allowed status transitions.
func (s UserStatus) CanTransitionTo(target UserStatus) bool {
	return slices.Contains(statusTransitions[s], target)
}

// User is the core domain entity representing a user account.
// The db tags name the storage columns used when list queries are
// translated to SQL; query:"-" keeps a field out of filters and sorts.
type User struct {
	ID           UserID     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash" query:"-"`
	Phone        *string    `json:"phone,omitempty" db:"phone"`
	Username     string     `json:"username" db:"username"`
	FullName     string     `json:"full_name" db:"full_name"`
	Type         UserType   `json:"type" db:"user_type"`
	Status       UserStatus `json:"status" db:"status"`
	Bonus        float64    `json:"bonus" db:"bonus"`

	EmailVerified bool `json:"email_verified" db:"email_verified"`
	PhoneVerified bool `json:"phone_verified" db:"phone_verified"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`

	// Version for optimistic locking
	Version int `json:"version" db:"version"`

	// Roles assigned to this user (loaded separately)
	Roles []Role `json:"roles,omitempty" query:"-"`
}

func NewUser(email, username, fullName string, userType UserType) result.Of[*User] {
	now := time.Now().UTC()
	u := &User{
		ID:        NewUserID(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Username:  strings.TrimSpace(username),
		FullName:  strings.TrimSpace(fullName),
		Type:      userType,
		Status:    UserStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	return result.OnSuccessOf(u.Validate(), func() result.Of[*User] { return result.SuccessOf(u) })
}

// Validate reports every invalid field at once.
func (u *User) Validate() result.Result {
	v := Violations{}

	// Email validation
	if u.Email == "" {
		v.Check(false, "email", "required")
	} else {
		_, err := mail.ParseAddress(u.Email)
		v.Check(err == nil, "email", "invalid format")
	}

	// Username validation
	switch {
	case u.Username == "":
		v.Check(false, "username", "required")
	case len(u.Username) < 3 || len(u.Username) > 50:
		v.Check(false, "username", "must be 3-50 characters")
	default:
		v.Check(isValidUsername(u.Username), "username", "can only contain letters, numbers, underscores, and hyphens")
	}

	// Full name validation
	if u.FullName == "" {
		v.Check(false, "full_name", "required")
	} else {
		v.Check(len(u.FullName) <= 200, "full_name", "must be at most 200 characters")
	}

	v.Check(u.Type.Valid(), "type", "invalid user type").
		Check(u.Status.Valid(), "status", "invalid status").
		Check(u.Bonus >= 0, "bonus", "cannot be negative")

	if u.Phone != nil && *u.Phone != "" {
		v.Check(isValidPhone(*u.Phone), "phone", "invalid phone format")
	}

	return v.Result()
}

func (u *User) SetPhone(phone string) result.Result {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		u.Phone = nil
		u.PhoneVerified = false
		return result.Success()
	}
	if r := (Violations{}).Check(isValidPhone(phone), "phone", "invalid phone format").Result(); r.IsFailure() {
		return r
	}
	u.Phone = &phone
	u.PhoneVerified = false
	u.UpdatedAt = time.Now().UTC()
	return result.Success()
}

// SetBonus replaces the bonus balance.
func (u *User) SetBonus(amount float64) result.Result {
	if r := (Violations{}).Check(amount >= 0, "bonus", "cannot be negative").Result(); r.IsFailure() {
		return r
	}
	u.Bonus = amount
	u.UpdatedAt = time.Now().UTC()
	return result.Success()
}

func (u *User) ChangeStatus(newStatus UserStatus) result.Result {
	if !newStatus.Valid() {
		return (Violations{}).Check(false, "status", "invalid status").Result()
	}
	if !u.Status.CanTransitionTo(newStatus) {
		return result.Failure(InvalidStatusTransition(u.Status, newStatus))
	}
	u.Status = newStatus
	u.UpdatedAt = time.Now().UTC()
	return result.Success()
}

func (u *User) Activate() result.Result {
	if u.Status == UserStatusActive {
		return result.Success() // Already active, idempotent
	}
	return u.ChangeStatus(UserStatusActive)
}

func (u *User) Suspend() result.Result {
	if u.Status == UserStatusSuspended {
		return result.Success() // Already suspended, idempotent
	}
	return u.ChangeStatus(UserStatusSuspended)
}

func (u *User) VerifyEmail() {
	u.EmailVerified = true
	u.UpdatedAt = time.Now().UTC()
}

func (u *User) VerifyPhone() {
	u.PhoneVerified = true
	u.UpdatedAt = time.Now().UTC()
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive && u.DeletedAt == nil
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) Delete() {
	now := time.Now().UTC()
	u.DeletedAt = &now
	u.UpdatedAt = now
}

func (u *User) HasRole(roleName string) bool {
	return slices.ContainsFunc(u.Roles, func(r Role) bool { return r.Name == roleName })
}

func (u *User) HasPermission(resource, action string) bool {
	return slices.ContainsFunc(u.Roles, func(r Role) bool { return r.HasPermission(resource, action) })
}

// AllPermissions returns the distinct permissions granted by all roles.
func (u *User) AllPermissions() []Permission {
	var perms []Permission
	for _, role := range u.Roles {
		for _, p := range role.Permissions {
			if !slices.Contains(perms, p) {
				perms = append(perms, p)
			}
		}
	}
	return perms
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func isValidUsername(s string) bool {
	return usernameRegex.MatchString(s)
}

var phoneRegex = regexp.MustCompile(`^\+?[\d\s\-()]+$`)

func isValidPhone(s string) bool {
	// At least 7 digits
	digitCount := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digitCount++
		}
	}
	return phoneRegex.MatchString(s) && digitCount >= 7
}
