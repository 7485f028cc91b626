package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mvaleed/seedwork/internal/auth"
	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/event"
	"github.com/mvaleed/seedwork/internal/result"
	"github.com/mvaleed/seedwork/internal/storage"
)

// AuthService handles authentication operations.
type AuthService struct {
	users  storage.UserRepository
	roles  storage.RoleRepository
	jwt    *auth.JWTManager
	hasher auth.Hasher
	events emitter
	logger *slog.Logger
}

func NewAuthService(
	repos *storage.Repositories,
	jwt *auth.JWTManager,
	hasher auth.Hasher,
	publisher event.Publisher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:  repos.Users,
		roles:  repos.Roles,
		jwt:    jwt,
		hasher: hasher,
		events: emitter{publisher: publisher, logger: logger},
		logger: logger,
	}
}

// LoginInput contains the credentials for login.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult is the access token and the user it was issued to.
type LoginResult struct {
	Token domain.AccessToken
	User  *domain.User
}

// Login checks the credentials of an active user and issues an access token.
// Unknown emails and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, in LoginInput) result.Of[LoginResult] {
	user, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return result.FailureOf[LoginResult](domain.ErrInvalidCredentials)
	}
	if err != nil {
		return result.FailureOf[LoginResult](fault(err))
	}

	ok, err := s.hasher.Check(in.Password, user.PasswordHash)
	if err != nil {
		return result.FailureOf[LoginResult](result.Unexpected(err))
	}
	if !ok {
		s.logger.InfoContext(ctx, "login rejected", slog.String("user_id", user.ID.String()))
		return result.FailureOf[LoginResult](domain.ErrInvalidCredentials)
	}

	if !user.IsActive() {
		return result.FailureOf[LoginResult](domain.ErrUserNotActive)
	}

	roles, err := s.roles.GetUserRoles(ctx, user.ID)
	if err != nil {
		return result.FailureOf[LoginResult](fault(err))
	}
	user.Roles = roles

	token, err := s.jwt.Issue(user)
	if err != nil {
		return result.FailureOf[LoginResult](result.Unexpected(err))
	}

	s.events.publish(ctx, domain.UserLoggedInEvent(user.ID, in.IPAddress, in.UserAgent))
	return result.SuccessOf(LoginResult{Token: token, User: user})
}

// Authenticate verifies a bearer token.
func (s *AuthService) Authenticate(_ context.Context, token string) result.Of[domain.Claims] {
	return s.jwt.Verify(token)
}
