package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mvaleed/seedwork/internal/auth"
	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/event"
	"github.com/mvaleed/seedwork/internal/query"
	"github.com/mvaleed/seedwork/internal/result"
	"github.com/mvaleed/seedwork/internal/storage"
)

// DefaultRoleName is assigned to every new user when a role by that name exists.
const DefaultRoleName = "user"

// UserService handles user-related business operations.
type UserService struct {
	users   storage.UserRepository
	roles   storage.RoleRepository
	tx      storage.Transactor
	hasher  auth.Hasher
	events  emitter
	logger  *slog.Logger
	queries []query.Option
}

func NewUserService(
	repos *storage.Repositories,
	tx storage.Transactor,
	hasher auth.Hasher,
	publisher event.Publisher,
	logger *slog.Logger,
	queries ...query.Option,
) *UserService {
	return &UserService{
		users:   repos.Users,
		roles:   repos.Roles,
		tx:      tx,
		hasher:  hasher,
		events:  emitter{publisher: publisher, logger: logger},
		logger:  logger,
		queries: queries,
	}
}

type CreateUserInput struct {
	Email    string
	Password string
	Username string
	FullName string
	Type     domain.UserType
	Phone    string
}

// CreateUser creates a pending user account and gives it the default role.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) result.Of[*domain.User] {
	built := result.OnSuccessOf(auth.ValidatePasswordStrength("password", in.Password), func() result.Of[*domain.User] {
		return domain.NewUser(in.Email, in.Username, in.FullName, in.Type)
	})

	return result.Bind(built, func(user *domain.User) result.Of[*domain.User] {
		if in.Phone != "" {
			if r := user.SetPhone(in.Phone); r.IsFailure() {
				return result.FailureOf[*domain.User](r.Error())
			}
		}

		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return result.FailureOf[*domain.User](result.Unexpected(err))
		}
		user.PasswordHash = hash

		err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			if err := s.users.Create(ctx, user); err != nil {
				return err
			}
			role, err := s.roles.GetByName(ctx, DefaultRoleName)
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := s.roles.AssignRole(ctx, user.ID, role.ID); err != nil {
				return err
			}
			user.Roles = []domain.Role{*role}
			return nil
		})
		if errors.Is(err, domain.ErrAlreadyExists) {
			return result.FailureOf[*domain.User](s.duplicate(ctx, user))
		}
		if err != nil {
			return result.FailureOf[*domain.User](fault(err))
		}

		s.logger.InfoContext(ctx, "user created", slog.String("user_id", user.ID.String()))
		s.events.publish(ctx, domain.UserCreatedEvent(user))
		return result.SuccessOf(user)
	})
}

// duplicate names the unique field user collides on.
func (s *UserService) duplicate(ctx context.Context, user *domain.User) result.Error {
	if other, err := s.users.GetByEmail(ctx, user.Email); err == nil && other.ID != user.ID {
		return domain.UserAlreadyExists("email")
	}
	return domain.UserAlreadyExists("username")
}

// GetUser returns the user with its roles loaded.
func (s *UserService) GetUser(ctx context.Context, id domain.UserID) result.Of[*domain.User] {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return result.FailureOf[*domain.User](notFoundAs(err, domain.UserNotFound(id)))
	}
	return s.withRoles(ctx, user)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) result.Of[*domain.User] {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return result.FailureOf[*domain.User](fault(err))
	}
	return s.withRoles(ctx, user)
}

func (s *UserService) withRoles(ctx context.Context, user *domain.User) result.Of[*domain.User] {
	roles, err := s.roles.GetUserRoles(ctx, user.ID)
	if err != nil {
		return result.FailureOf[*domain.User](fault(err))
	}
	user.Roles = roles
	return result.SuccessOf(user)
}

// ListUsers compiles p against domain.User and returns one page. Unknown
// property or field names fail the same way malformed terms do.
func (s *UserService) ListUsers(ctx context.Context, p query.Params) result.Of[query.Page[domain.User]] {
	return result.Bind(query.Compile[domain.User](p, s.queries...), func(plan query.Plan[domain.User]) result.Of[query.Page[domain.User]] {
		page, err := s.users.List(ctx, plan)
		if err != nil {
			return result.FailureOf[query.Page[domain.User]](fault(err))
		}
		return result.SuccessOf(page)
	})
}

// UpdateUserInput holds the fields to change. Nil fields are left alone.
type UpdateUserInput struct {
	FullName *string
	Phone    *string
	Username *string
	Bonus    *float64
}

func (s *UserService) UpdateUser(ctx context.Context, id domain.UserID, in UpdateUserInput) result.Of[*domain.User] {
	return s.mutate(ctx, id, func(user *domain.User) result.Result {
		if in.FullName != nil {
			user.FullName = *in.FullName
		}
		if in.Username != nil {
			user.Username = *in.Username
		}
		if in.Phone != nil {
			if r := user.SetPhone(*in.Phone); r.IsFailure() {
				return r
			}
		}
		if in.Bonus != nil {
			if r := user.SetBonus(*in.Bonus); r.IsFailure() {
				return r
			}
		}
		return user.Validate()
	}, domain.UserUpdatedEvent)
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, id domain.UserID, current, next string) result.Result {
	return s.mutate(ctx, id, func(user *domain.User) result.Result {
		ok, err := s.hasher.Check(current, user.PasswordHash)
		if err != nil {
			return result.Failure(result.Unexpected(err))
		}
		if !ok {
			return result.Failure(domain.ErrInvalidCredentials)
		}
		if r := auth.ValidatePasswordStrength("new_password", next); r.IsFailure() {
			return r
		}
		hash, err := s.hasher.Hash(next)
		if err != nil {
			return result.Failure(result.Unexpected(err))
		}
		user.PasswordHash = hash
		return result.Success()
	}, func(u *domain.User) domain.Event { return domain.PasswordChangedEvent(u.ID) }).Void()
}

// ActivateUser activates a user account.
func (s *UserService) ActivateUser(ctx context.Context, id domain.UserID) result.Result {
	return s.mutate(ctx, id, (*domain.User).Activate, domain.UserActivatedEvent).Void()
}

// SuspendUser suspends a user account.
func (s *UserService) SuspendUser(ctx context.Context, id domain.UserID, reason string) result.Result {
	return s.mutate(ctx, id, (*domain.User).Suspend, func(u *domain.User) domain.Event {
		return domain.UserSuspendedEvent(u, reason)
	}).Void()
}

// DeleteUser soft-deletes a user.
func (s *UserService) DeleteUser(ctx context.Context, id domain.UserID) result.Result {
	if err := s.users.Delete(ctx, id); err != nil {
		return result.Failure(notFoundAs(err, domain.UserNotFound(id)))
	}
	s.events.publish(ctx, domain.UserDeletedEvent(id))
	return result.Success()
}

// mutate loads the user, applies change, saves it and publishes the event
// built from the saved user.
func (s *UserService) mutate(
	ctx context.Context,
	id domain.UserID,
	change func(*domain.User) result.Result,
	raised func(*domain.User) domain.Event,
) result.Of[*domain.User] {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return result.FailureOf[*domain.User](notFoundAs(err, domain.UserNotFound(id)))
	}

	if r := change(user); r.IsFailure() {
		return result.FailureOf[*domain.User](r.Error())
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return result.FailureOf[*domain.User](s.duplicate(ctx, user))
		}
		return result.FailureOf[*domain.User](notFoundAs(err, domain.UserNotFound(id)))
	}

	s.events.publish(ctx, raised(user))
	return s.withRoles(ctx, user)
}
