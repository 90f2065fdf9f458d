// Package repo provides postgres access for auth
package repo

import (
	"context"
	stdsql "database/sql"
	"errors"

	"keycap/internal/modkit/repokit"
	perr "keycap/internal/platform/errors"
)

// Repo defines the repository contract for auth
type Repo interface {
	Insert(ctx context.Context, row RowUser) error
	ByEmail(ctx context.Context, email string) (RowUser, error)
	ByID(ctx context.Context, userID string) (RowUser, error)
}

// RowUser represents a user row
type RowUser struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    string
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// EnsureSchema creates the users table when it does not exist yet
func EnsureSchema(ctx context.Context, q repokit.Queryer) error {
	const users = `
CREATE TABLE IF NOT EXISTS users (
	user_id       uuid PRIMARY KEY,
	email         text NOT NULL UNIQUE,
	password_hash text NOT NULL,
	created_at    timestamptz NOT NULL DEFAULT now()
)`
	if _, err := q.Exec(ctx, users); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "auth schema")
	}
	return nil
}

func (r *queries) Insert(ctx context.Context, row RowUser) error {
	const sql = `INSERT INTO users (user_id, email, password_hash) VALUES ($1, $2, $3)`
	_, err := r.q.Exec(ctx, sql, row.UserID, row.Email, row.PasswordHash)
	if perr.IsDuplicateKey(err) {
		return perr.DuplicateKeyf("email already registered")
	}
	return err
}

func (r *queries) ByEmail(ctx context.Context, email string) (RowUser, error) {
	const sql = `
SELECT user_id::text, email, password_hash, created_at::text
FROM users
WHERE email = $1`
	return r.scanUser(r.q.QueryRow(ctx, sql, email))
}

func (r *queries) ByID(ctx context.Context, userID string) (RowUser, error) {
	const sql = `
SELECT user_id::text, email, password_hash, created_at::text
FROM users
WHERE user_id = $1`
	return r.scanUser(r.q.QueryRow(ctx, sql, userID))
}

func (r *queries) scanUser(row repokit.Row) (RowUser, error) {
	var u RowUser
	if err := row.Scan(&u.UserID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return RowUser{}, perr.NotFoundf("user not found")
		}
		return RowUser{}, err
	}
	return u, nil
}
