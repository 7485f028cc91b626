// Package domain contains the core business entities and rules.
// These types have no knowledge of databases, HTTP, or any infrastructure concerns.
package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mvaleed/seedwork/internal/result"
)

// Error codes end in a reason suffix that transports map to a status.
const (
	SuffixNotFound      = ".NotFound"
	SuffixAlreadyExists = ".AlreadyExists"
	SuffixConflict      = ".Conflict"
	SuffixUnauthorized  = ".Unauthorized"
	SuffixForbidden     = ".Forbidden"

	ValidationCode = "Domain.Validation"
)

// Errors for common domain-level failures.
var (
	ErrNotFound           = result.NewError("Domain"+SuffixNotFound, "resource not found")
	ErrAlreadyExists      = result.NewError("Domain"+SuffixAlreadyExists, "resource already exists")
	ErrConflict           = result.NewError("Domain"+SuffixConflict, "resource was modified concurrently")
	ErrUnauthorized       = result.NewError("Auth"+SuffixUnauthorized, "authentication required")
	ErrForbidden          = result.NewError("Auth"+SuffixForbidden, "insufficient permissions")
	ErrInvalidCredentials = result.NewError("Auth.InvalidCredentials"+SuffixUnauthorized, "invalid credentials")
	ErrTokenExpired       = result.NewError("Auth.TokenExpired"+SuffixUnauthorized, "token expired")
	ErrUserNotActive      = result.NewError("User.NotActive"+SuffixForbidden, "user account is not active")
)

func UserNotFound(id UserID) result.Error {
	return result.NewError("User"+SuffixNotFound, fmt.Sprintf("user %s not found", id))
}

func RoleNotFound(ref string) result.Error {
	return result.NewError("Role"+SuffixNotFound, fmt.Sprintf("role %s not found", ref))
}

func UserAlreadyExists(field string) result.Error {
	return result.NewError("User"+SuffixAlreadyExists, fmt.Sprintf("a user with this %s already exists", field))
}

func RoleAlreadyExists(name string) result.Error {
	return result.NewError("Role"+SuffixAlreadyExists, fmt.Sprintf("role %q already exists", name))
}

func RoleInUse(name string) result.Error {
	return result.NewError("Role.InUse"+SuffixConflict, fmt.Sprintf("role %q is still assigned to users", name))
}

func InvalidStatusTransition(from, to UserStatus) result.Error {
	return result.NewError("User.InvalidStatusTransition"+SuffixConflict,
		fmt.Sprintf("cannot transition from %s to %s", from, to))
}

// HasSuffix reports whether the failure code ends in suffix.
func HasSuffix(f result.Fault, suffix string) bool {
	return strings.HasSuffix(f.Base().Code, suffix)
}

// Violations collects field-level validation messages.
type Violations map[string][]string

// Check records msg against field when ok is false. It returns v so checks
// can be chained.
func (v Violations) Check(ok bool, field, msg string) Violations {
	if !ok {
		v[field] = append(v[field], msg)
	}
	return v
}

// Result succeeds when no check failed and otherwise fails with a
// result.ValidationError keyed by field.
func (v Violations) Result() result.Result {
	if len(v) == 0 {
		return result.Success()
	}
	fields := slices.Sorted(maps.Keys(v))
	return result.Failure(result.NewValidationError(ValidationCode,
		"validation failed on "+strings.Join(fields, ", "), v))
}
