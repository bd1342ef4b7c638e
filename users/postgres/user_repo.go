// Package postgres implements the user directory on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"

	"github.com/jrsteele09/go-session-auth/users"
)

// Schema creates the users table. Email uniqueness is enforced by EmailIndex.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id         BIGSERIAL PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name  TEXT NOT NULL,
	email      TEXT NOT NULL,
	password   TEXT NOT NULL,
	age        INTEGER NOT NULL DEFAULT 0,
	role       TEXT NOT NULL DEFAULT 'user',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EmailIndex makes email unique regardless of case, matching the LOWER(email) lookups.
const EmailIndex = `CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (LOWER(email))`

const selectUser = `SELECT id, first_name, last_name, email, password, age, role, created_at, updated_at FROM users`

// pool is the subset of *pgxpool.Pool used by the repository, satisfied by pgxmock in tests.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ users.UserRepo = (*UserRepo)(nil)

// UserRepo implements users.UserRepo using PostgreSQL.
type UserRepo struct {
	pool pool
}

func NewUserRepo(p pool) *UserRepo {
	return &UserRepo{pool: p}
}

// EnsureSchema creates the users table and its email index when they do not exist.
func (r *UserRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return pkgerrors.Wrap(err, "[UserRepo.EnsureSchema] create users table")
	}
	if _, err := r.pool.Exec(ctx, EmailIndex); err != nil {
		return pkgerrors.Wrap(err, "[UserRepo.EnsureSchema] create email index")
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*users.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "[UserRepo.GetByID] id %d", id)
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE LOWER(email) = LOWER($1)`, email))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[UserRepo.GetByEmail]")
	}
	return user, nil
}

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	if user.Role == "" {
		user.Role = users.RoleUser
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, email, password, age, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Age,
		string(user.Role),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return users.ErrEmailTaken
	}
	if err != nil {
		return pkgerrors.Wrap(err, "[UserRepo.Create] insert user")
	}
	return nil
}

func (r *UserRepo) Upsert(ctx context.Context, user *users.User) error {
	if user.ID == 0 {
		return r.Create(ctx, user)
	}

	err := r.pool.QueryRow(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, password = $5, age = $6, role = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Age,
		string(user.Role),
	).Scan(&user.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return users.ErrUserNotFound
	case isUniqueViolation(err):
		return users.ErrEmailTaken
	case err != nil:
		return pkgerrors.Wrapf(err, "[UserRepo.Upsert] update user %d", user.ID)
	}
	return nil
}

func scanUser(row pgx.Row) (*users.User, error) {
	var (
		user users.User
		role string
	)
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Age,
		&role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	user.Role = users.RoleType(role)
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
