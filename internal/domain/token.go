package domain

import "time"

// AccessToken is a signed bearer token handed out on login.
type AccessToken struct {
	Token     string    `json:"access_token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExpiresIn returns the seconds left before the token expires.
func (t AccessToken) ExpiresIn(now time.Time) int64 {
	if d := t.ExpiresAt.Sub(now); d > 0 {
		return int64(d / time.Second)
	}
	return 0
}

// Claims is what a verified token says about its bearer.
type Claims struct {
	UserID      UserID
	Email       string
	Roles       []string
	Permissions []string
}

// HasPermission reports whether the claims grant resource:action, honouring
// wildcards the same way Role does.
func (c Claims) HasPermission(resource, action string) bool {
	for _, s := range c.Permissions {
		p := ParsePermission(s)
		if p.IsSuccess() && p.Value().Grants(resource, action) {
			return true
		}
	}
	return false
}
