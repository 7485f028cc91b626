package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/query"
)

// userListing is the users table as seen by list queries. Its columns are
// the db tags of domain.User.
var userListing = Listing{
	Table: "users",
	Columns: []string{
		"id", "email", "password_hash", "phone", "username", "full_name",
		"user_type", "status", "bonus", "email_verified", "phone_verified",
		"created_at", "updated_at", "deleted_at", "version",
	},
	Where:    "deleted_at IS NULL",
	Tiebreak: []string{"created_at", "id"},
}

const userColumns = `id, email, password_hash, phone, username, full_name,
	user_type, status, bonus, email_verified, phone_verified,
	created_at, updated_at, deleted_at, version`

// UserRepository implements storage.UserRepository using PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new user repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	db := getDB(ctx, r.pool)

	_, err := db.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, phone, username, full_name,
			user_type, status, bonus, email_verified, phone_verified,
			created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		user.ID.Value(),
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.Username,
		user.FullName,
		string(user.Type),
		string(user.Status),
		user.Bonus,
		user.EmailVerified,
		user.PhoneVerified,
		user.CreatedAt,
		user.UpdatedAt,
		user.Version,
	)

	return mapError(err)
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	row := getDB(ctx, r.pool).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id.Value())
	return scanUser(row)
}

// GetByEmail retrieves a user by their email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := getDB(ctx, r.pool).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL`, email)
	return scanUser(row)
}

// GetByUsername retrieves a user by their username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := getDB(ctx, r.pool).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 AND deleted_at IS NULL`, username)
	return scanUser(row)
}

// Update saves changes to an existing user with optimistic locking.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	db := getDB(ctx, r.pool)

	tag, err := db.Exec(ctx, `
		UPDATE users SET
			email = $2,
			password_hash = $3,
			phone = $4,
			username = $5,
			full_name = $6,
			user_type = $7,
			status = $8,
			bonus = $9,
			email_verified = $10,
			phone_verified = $11,
			updated_at = $12,
			version = version + 1
		WHERE id = $1 AND version = $13 AND deleted_at IS NULL`,
		user.ID.Value(),
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.Username,
		user.FullName,
		string(user.Type),
		string(user.Status),
		user.Bonus,
		user.EmailVerified,
		user.PhoneVerified,
		time.Now().UTC(),
		user.Version,
	)
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		// Could be not found or version mismatch - check which
		existing, err := r.GetByID(ctx, user.ID)
		if err != nil {
			return err // Likely ErrNotFound
		}
		if existing.Version != user.Version {
			return domain.ErrConflict
		}
		return domain.ErrNotFound
	}

	user.Version++ // Update local version
	return nil
}

// Delete performs a soft delete.
func (r *UserRepository) Delete(ctx context.Context, id domain.UserID) error {
	tag, err := getDB(ctx, r.pool).Exec(ctx, `
		UPDATE users SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id.Value())
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// List translates plan to SQL and returns one page with the total count.
func (r *UserRepository) List(ctx context.Context, plan query.Plan[domain.User]) (query.Page[domain.User], error) {
	db := getDB(ctx, r.pool)

	list, count, err := BuildSelect(userListing, plan)
	if err != nil {
		return query.Page[domain.User]{}, err
	}

	var total int
	if err := db.QueryRow(ctx, count.SQL, count.Args...).Scan(&total); err != nil {
		return query.Page[domain.User]{}, mapError(err)
	}

	rows, err := db.Query(ctx, list.SQL, list.Args...)
	if err != nil {
		return query.Page[domain.User]{}, mapError(err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return query.Page[domain.User]{}, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return query.Page[domain.User]{}, mapError(err)
	}

	return query.Page[domain.User]{
		Items:  users,
		Total:  total,
		Offset: plan.Offset(),
		Limit:  plan.Limit(),
	}, nil
}

// scannable is satisfied by both pgx.Row and pgx.Rows
type scannable interface {
	Scan(dest ...any) error
}

func scanUser(row scannable) (*domain.User, error) {
	var (
		user             domain.User
		id               uuid.UUID
		userType, status string
	)

	err := row.Scan(
		&id,
		&user.Email,
		&user.PasswordHash,
		&user.Phone,
		&user.Username,
		&user.FullName,
		&userType,
		&status,
		&user.Bonus,
		&user.EmailVerified,
		&user.PhoneVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
		&user.Version,
	)
	if err != nil {
		return nil, mapError(err)
	}

	user.ID = domain.UserIDFrom(id)
	user.Type = domain.UserType(userType)
	user.Status = domain.UserStatus(status)

	return &user, nil
}
