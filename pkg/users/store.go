package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/platinummonkey/adminpanel/pkg/observability"
)

// ErrNotFound is returned when a user or role does not exist
var ErrNotFound = errors.New("not found")

// Store provides database-backed user and role management
type Store struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewStore creates a new user store
func NewStore(db *sql.DB, logger *observability.Logger) (*Store, error) {
	s := &Store{
		db:     db,
		logger: logger,
	}

	if err := s.ensureTables(); err != nil {
		return nil, fmt.Errorf("failed to ensure tables: %w", err)
	}

	return s, nil
}

// NewStoreWithoutMigrations wraps an existing database without running
// schema setup. Used when the schema is managed externally and in tests.
func NewStoreWithoutMigrations(db *sql.DB, logger *observability.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) ensureTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS roles (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			role_id BIGINT REFERENCES roles(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_role_id ON users(role_id)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// GetUser fetches a single user by ID, including the role name
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	query := `
		SELECT u.id, u.name, u.email, COALESCE(u.role_id, 0), COALESCE(r.name, ''), u.created_at
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1`

	var u User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.RoleID, &u.Role, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}

// ListUsers returns users, optionally filtered by role name or a
// case-insensitive search over name and email
func (s *Store) ListUsers(ctx context.Context, role, search string) ([]*User, error) {
	query := `
		SELECT u.id, u.name, u.email, COALESCE(u.role_id, 0), COALESCE(r.name, ''), u.created_at
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id`

	conditions := []string{}
	args := []interface{}{}
	argCount := 0

	if role != "" {
		argCount++
		conditions = append(conditions, fmt.Sprintf("r.name = $%d", argCount))
		args = append(args, role)
	}
	if search != "" {
		argCount++
		conditions = append(conditions, fmt.Sprintf("(u.name ILIKE $%d OR u.email ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+search+"%")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY u.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var list []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.RoleID, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		list = append(list, &u)
	}
	return list, rows.Err()
}

// CreateUser inserts a new user and returns it with the assigned ID
func (s *Store) CreateUser(ctx context.Context, name, email string, roleID int64) (*User, error) {
	query := `
		INSERT INTO users (name, email, role_id)
		VALUES ($1, $2, NULLIF($3, 0))
		RETURNING id, created_at`

	u := &User{Name: name, Email: email, RoleID: roleID}
	err := s.db.QueryRowContext(ctx, query, name, email, roleID).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// UpdateUser updates an existing user's name, email, and role
func (s *Store) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, role_id = NULLIF($3, 0)
		WHERE id = $4`

	result, err := s.db.ExecContext(ctx, query, req.Name, req.Email, req.RoleID, id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user by ID
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRoles returns all roles ordered by ID
func (s *Store) ListRoles(ctx context.Context) ([]*Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var list []*Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		list = append(list, &r)
	}
	return list, rows.Err()
}

// GetRole fetches a single role by ID
func (s *Store) GetRole(ctx context.Context, id int64) (*Role, error) {
	var r Role
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE id = $1`, id).Scan(&r.ID, &r.Name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &r, nil
}

// CreateRole inserts a new role and returns it with the assigned ID
func (s *Store) CreateRole(ctx context.Context, name string) (*Role, error) {
	r := &Role{Name: name}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO roles (name) VALUES ($1) RETURNING id`, name).Scan(&r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	return r, nil
}

// UpdateRole renames an existing role
func (s *Store) UpdateRole(ctx context.Context, id int64, name string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE roles SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRole removes a role by ID
func (s *Store) DeleteRole(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
