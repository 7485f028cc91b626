package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/result"
)

type contextKey string

const claimsKey contextKey = "claims"

func setClaims(ctx context.Context, claims domain.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func getClaims(ctx context.Context) (domain.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(domain.Claims)
	return claims, ok
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func bearerToken(r *http.Request) (string, result.Fault) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", result.NewError(domain.ErrUnauthorized.Code, "missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", result.NewError(domain.ErrUnauthorized.Code, "invalid authorization header format")
	}
	return strings.TrimSpace(token), nil
}

// authMiddleware validates JWT tokens and sets the claims in context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, f := bearerToken(r)
		if f != nil {
			s.writeFault(w, r, f)
			return
		}

		claims, f := s.auth.Authenticate(r.Context(), token).Get()
		if f != nil {
			s.writeFault(w, r, f)
			return
		}

		next.ServeHTTP(w, r.WithContext(setClaims(r.Context(), claims)))
	})
}

// requirePermission returns middleware that checks for a specific permission.
func (s *Server) requirePermission(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := getClaims(r.Context())
			if !ok {
				s.writeFault(w, r, domain.ErrUnauthorized)
				return
			}

			if !claims.HasPermission(resource, action) {
				s.writeFault(w, r, domain.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP returns the client address. middleware.RealIP has already
// applied X-Forwarded-For and X-Real-IP to RemoteAddr.
func getClientIP(r *http.Request) string {
	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}
