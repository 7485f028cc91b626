package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event that occurred.
// Events are immutable facts about something that happened.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Subject   string         `json:"subject"`
	Data      map[string]any `json:"data"`
}

// Event type constants
const (
	EventUserCreated      = "user.created"
	EventUserUpdated      = "user.updated"
	EventUserDeleted      = "user.deleted"
	EventUserActivated    = "user.activated"
	EventUserSuspended    = "user.suspended"
	EventUserLoggedIn     = "user.logged_in"
	EventUserRoleAssigned = "user.role_assigned"
	EventUserRoleRemoved  = "user.role_removed"
	EventPasswordChanged  = "user.password_changed"
	EventRoleCreated      = "role.created"
	EventRoleUpdated      = "role.updated"
	EventRoleDeleted      = "role.deleted"
)

// NewEvent creates a new domain event about subject.
func NewEvent(eventType string, subject string, data map[string]any) Event {
	if data == nil {
		data = make(map[string]any)
	}
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Subject:   subject,
		Data:      data,
	}
}

func UserCreatedEvent(u *User) Event {
	return NewEvent(EventUserCreated, u.ID.String(), map[string]any{
		"email":     u.Email,
		"username":  u.Username,
		"user_type": string(u.Type),
	})
}

func UserUpdatedEvent(u *User) Event {
	return NewEvent(EventUserUpdated, u.ID.String(), map[string]any{
		"version": u.Version,
	})
}

func UserActivatedEvent(u *User) Event {
	return NewEvent(EventUserActivated, u.ID.String(), map[string]any{
		"email":    u.Email,
		"username": u.Username,
	})
}

func UserSuspendedEvent(u *User, reason string) Event {
	return NewEvent(EventUserSuspended, u.ID.String(), map[string]any{
		"email":    u.Email,
		"username": u.Username,
		"reason":   reason,
	})
}

func UserDeletedEvent(id UserID) Event {
	return NewEvent(EventUserDeleted, id.String(), nil)
}

func PasswordChangedEvent(id UserID) Event {
	return NewEvent(EventPasswordChanged, id.String(), nil)
}

func UserLoggedInEvent(id UserID, ipAddress, userAgent string) Event {
	return NewEvent(EventUserLoggedIn, id.String(), map[string]any{
		"ip_address": ipAddress,
		"user_agent": userAgent,
	})
}

func RoleAssignedEvent(id UserID, roleName string) Event {
	return NewEvent(EventUserRoleAssigned, id.String(), map[string]any{
		"role": roleName,
	})
}

func RoleRemovedEvent(id UserID, roleName string) Event {
	return NewEvent(EventUserRoleRemoved, id.String(), map[string]any{
		"role": roleName,
	})
}

func RoleCreatedEvent(r *Role) Event {
	return NewEvent(EventRoleCreated, r.ID.String(), map[string]any{
		"name":        r.Name,
		"permissions": r.PermissionStrings(),
	})
}

func RoleUpdatedEvent(r *Role) Event {
	return NewEvent(EventRoleUpdated, r.ID.String(), map[string]any{
		"name":        r.Name,
		"permissions": r.PermissionStrings(),
	})
}

func RoleDeletedEvent(id RoleID) Event {
	return NewEvent(EventRoleDeleted, id.String(), nil)
}
