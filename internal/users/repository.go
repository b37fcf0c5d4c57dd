package users

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obra-dashboard/obra/internal/platform/db"
	"github.com/obra-dashboard/obra/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, name, role, is_active, created_at, updated_at`

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser loads one user.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, shared.ErrNotFound
	}
	return user, err
}

// CreateUser inserts an account with an already hashed password.
func (r *Repository) CreateUser(ctx context.Context, in CreateInput, passwordHash string) (User, error) {
	user := User{Name: in.Name, Email: strings.ToLower(in.Email), Role: in.Role, IsActive: true}
	err := r.pool.QueryRow(ctx, `INSERT INTO users (name, email, password_hash, role, is_active)
VALUES ($1, $2, $3, $4, TRUE) RETURNING id, created_at, updated_at`, user.Name, user.Email, passwordHash, user.Role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, shared.ErrDuplicate
		}
		return User{}, err
	}
	return user, nil
}

// UpdateUser changes name, role and active flag.
func (r *Repository) UpdateUser(ctx context.Context, id int64, in UpdateInput) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET name = $1, role = $2, is_active = $3, updated_at = NOW() WHERE id = $4`, in.Name, in.Role, in.IsActive, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
