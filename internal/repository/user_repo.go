package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"user-management-api/internal/model"
)

const uniqueViolation = "23505"

const userColumns = `id, full_name, email, password_hash, role, approved, token_version, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.Approved,
		&u.TokenVersion, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// ExistsByEmail ignores the row with excludeID so a user can keep their own address.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1) AND id <> $2)`,
		strings.TrimSpace(email), excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (full_name, email, password_hash, role, approved)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		u.FullName, strings.TrimSpace(u.Email), u.PasswordHash, u.Role, u.Approved).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return model.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, fullName string, email string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET full_name = $2, email = $3, updated_at = $4 WHERE id = $1`,
		id, fullName, strings.TrimSpace(email), time.Now().UTC())
	if isUniqueViolation(err) {
		return model.ErrEmailTaken
	}
	return affected("update profile", tag, err)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, time.Now().UTC())
	return affected("update password", tag, err)
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`,
		id, role, time.Now().UTC())
	return affected("update role", tag, err)
}

func (r *UserRepository) SetApproved(ctx context.Context, id int64, approved bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET approved = $2, updated_at = $3 WHERE id = $1`,
		id, approved, time.Now().UTC())
	return affected("set approved", tag, err)
}

// SetTokenVersion stores NULL when version is nil.
func (r *UserRepository) SetTokenVersion(ctx context.Context, id int64, version *int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET token_version = $2 WHERE id = $1`, id, version)
	return affected("set token version", tag, err)
}

func (r *UserRepository) TokenVersion(ctx context.Context, id int64) (*int, error) {
	var version *int
	err := r.pool.QueryRow(ctx, `SELECT token_version FROM users WHERE id = $1`, id).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load token version: %w", err)
	}
	return version, nil
}

func (r *UserRepository) List(ctx context.Context, limit int, offset int) ([]model.UserSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, full_name, email, role, approved FROM users ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.UserSummary, 0, limit)
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Role, &u.Approved); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func affected(op string, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
