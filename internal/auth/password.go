// Package auth provides authentication utilities including JWT and password handling.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/result"
)

// DefaultCost balances hashing time against brute force resistance.
const DefaultCost = 12

// Hasher hashes and checks passwords with bcrypt.
type Hasher struct {
	Cost int
}

// DefaultHasher uses DefaultCost.
var DefaultHasher = Hasher{Cost: DefaultCost}

func (h Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Check reports whether password matches hash. A mismatch is not an error.
func (h Hasher) Check(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("checking password: %w", err)
	}
}

// ValidatePasswordStrength reports every rule password breaks under field.
func ValidatePasswordStrength(field, password string) result.Result {
	var hasUpper, hasLower, hasDigit bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		}
	}

	return domain.Violations{}.
		Check(len(password) >= 8, field, "must be at least 8 characters").
		// bcrypt ignores bytes past 72
		Check(len(password) <= 72, field, "must be at most 72 characters").
		Check(hasUpper, field, "must contain at least one uppercase letter").
		Check(hasLower, field, "must contain at least one lowercase letter").
		Check(hasDigit, field, "must contain at least one digit").
		Result()
}
