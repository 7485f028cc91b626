package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mvaleed/seedwork/internal/config"
	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/result"
)

// tokenClaims is the JWT body of an access token.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email       string   `json:"email"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// JWTManager issues and verifies HS256 access tokens.
type JWTManager struct {
	config config.JWT
	now    func() time.Time
}

func NewJWTManager(cfg config.JWT) *JWTManager {
	return &JWTManager{config: cfg, now: time.Now}
}

// WithClock returns a copy of m that reads the time from now.
func (m *JWTManager) WithClock(now func() time.Time) *JWTManager {
	c := *m
	c.now = now
	return &c
}

// Issue signs an access token for user carrying its roles and permissions.
func (m *JWTManager) Issue(user *domain.User) (domain.AccessToken, error) {
	now := m.now().UTC()
	expiresAt := now.Add(m.config.AccessTokenTTL)

	roles := make([]string, len(user.Roles))
	for i, r := range user.Roles {
		roles[i] = r.Name
	}
	perms := make([]string, 0)
	for _, p := range user.AllPermissions() {
		perms = append(perms, p.String())
	}

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID.String(),
			Issuer:    m.config.Issuer,
			Audience:  m.config.Audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
		},
		Email:       user.Email,
		Roles:       roles,
		Permissions: perms,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.config.Secret))
	if err != nil {
		return domain.AccessToken{}, fmt.Errorf("signing access token: %w", err)
	}

	return domain.AccessToken{Token: signed, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

// Verify checks the signature, issuer, audience and lifetime of token.
// An expired token fails with domain.ErrTokenExpired and any other
// problem with domain.ErrUnauthorized.
func (m *JWTManager) Verify(token string) result.Of[domain.Claims] {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}
	if len(m.config.Audience) > 0 {
		opts = append(opts, jwt.WithAudience(m.config.Audience[0]))
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(m.config.Secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return result.FailureOf[domain.Claims](domain.ErrTokenExpired)
		}
		return result.FailureOf[domain.Claims](domain.ErrUnauthorized)
	}

	id, fault := domain.ParseUserID(claims.Subject).Get()
	if fault != nil {
		return result.FailureOf[domain.Claims](domain.ErrUnauthorized)
	}

	return result.SuccessOf(domain.Claims{
		UserID:      id,
		Email:       claims.Email,
		Roles:       claims.Roles,
		Permissions: claims.Permissions,
	})
}

// AccessTokenTTL returns the lifetime of issued tokens.
func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.config.AccessTokenTTL
}
