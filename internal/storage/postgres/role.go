package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/query"
)

var roleListing = Listing{
	Table:    "roles",
	Columns:  []string{"id", "name", "description", "permissions", "created_at", "updated_at"},
	Tiebreak: []string{"created_at", "id"},
}

const roleColumns = `id, name, description, permissions, created_at, updated_at`

// RoleRepository implements storage.RoleRepository using PostgreSQL.
// Permissions are stored inline as a text[] of resource:action pairs.
type RoleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository creates a new role repository.
func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

// Create stores a new role.
func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) error {
	_, err := getDB(ctx, r.pool).Exec(ctx, `
		INSERT INTO roles (id, name, description, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		role.ID.Value(),
		role.Name,
		role.Description,
		role.PermissionStrings(),
		role.CreatedAt,
		role.UpdatedAt,
	)

	return mapError(err)
}

// GetByID retrieves a role by ID with its permissions.
func (r *RoleRepository) GetByID(ctx context.Context, id domain.RoleID) (*domain.Role, error) {
	row := getDB(ctx, r.pool).QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE id = $1`, id.Value())
	return scanRole(row)
}

// GetByName retrieves a role by name with its permissions.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	row := getDB(ctx, r.pool).QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE name = $1`, name)
	return scanRole(row)
}

// Update saves changes to an existing role.
func (r *RoleRepository) Update(ctx context.Context, role *domain.Role) error {
	tag, err := getDB(ctx, r.pool).Exec(ctx, `
		UPDATE roles SET name = $2, description = $3, permissions = $4, updated_at = $5
		WHERE id = $1`,
		role.ID.Value(),
		role.Name,
		role.Description,
		role.PermissionStrings(),
		time.Now().UTC(),
	)
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete removes a role.
func (r *RoleRepository) Delete(ctx context.Context, id domain.RoleID) error {
	db := getDB(ctx, r.pool)

	// Check if any users have this role
	var count int64
	err := db.QueryRow(ctx, `SELECT COUNT(*) FROM user_roles WHERE role_id = $1`, id.Value()).Scan(&count)
	if err != nil {
		return mapError(err)
	}
	if count > 0 {
		return domain.ErrConflict
	}

	tag, err := db.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id.Value())
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// List runs plan against the roles table.
func (r *RoleRepository) List(ctx context.Context, plan query.Plan[domain.Role]) (query.Page[domain.Role], error) {
	db := getDB(ctx, r.pool)

	list, count, err := BuildSelect(roleListing, plan)
	if err != nil {
		return query.Page[domain.Role]{}, err
	}

	var total int
	if err := db.QueryRow(ctx, count.SQL, count.Args...).Scan(&total); err != nil {
		return query.Page[domain.Role]{}, mapError(err)
	}

	roles, err := r.queryRoles(ctx, list.SQL, list.Args...)
	if err != nil {
		return query.Page[domain.Role]{}, err
	}

	return query.Page[domain.Role]{
		Items:  roles,
		Total:  total,
		Offset: plan.Offset(),
		Limit:  plan.Limit(),
	}, nil
}

// GetUserRoles retrieves all roles assigned to a user.
func (r *RoleRepository) GetUserRoles(ctx context.Context, userID domain.UserID) ([]domain.Role, error) {
	return r.queryRoles(ctx, `
		SELECT r.id, r.name, r.description, r.permissions, r.created_at, r.updated_at
		FROM roles r
		JOIN user_roles ur ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.name`, userID.Value())
}

// AssignRole assigns a role to a user.
func (r *RoleRepository) AssignRole(ctx context.Context, userID domain.UserID, roleID domain.RoleID) error {
	_, err := getDB(ctx, r.pool).Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role_id) DO NOTHING`,
		userID.Value(), roleID.Value())

	return mapError(err)
}

// RemoveRole removes a role from a user.
func (r *RoleRepository) RemoveRole(ctx context.Context, userID domain.UserID, roleID domain.RoleID) error {
	_, err := getDB(ctx, r.pool).Exec(ctx, `
		DELETE FROM user_roles
		WHERE user_id = $1 AND role_id = $2`,
		userID.Value(), roleID.Value())

	return mapError(err)
}

func (r *RoleRepository) queryRoles(ctx context.Context, sql string, args ...any) ([]domain.Role, error) {
	rows, err := getDB(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	roles := []domain.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return roles, nil
}

func scanRole(row scannable) (*domain.Role, error) {
	var (
		role  domain.Role
		id    uuid.UUID
		perms []string
	)

	err := row.Scan(
		&id,
		&role.Name,
		&role.Description,
		&perms,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	role.ID = domain.RoleIDFrom(id)
	for _, s := range perms {
		// Rows only hold permissions that passed validation on write.
		if p := domain.ParsePermission(s); p.IsSuccess() {
			role.Permissions = append(role.Permissions, p.Value())
		}
	}

	return &role, nil
}
