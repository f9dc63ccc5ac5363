// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package postgres implements the auth repository contract using
// PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/keygate/keygate/internal/auth"
)

// Unique constraint names from the accounts migration. The username
// index is declared first so a row colliding on both fields reports the
// username violation.
const (
	usernameConstraint = "accounts_username_key"
	emailConstraint    = "accounts_email_key"
)

// poolIface is the subset of pgxpool.Pool used by the repository.
// pgxmock satisfies it for unit tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements auth.Repository using PostgreSQL.
// Uniqueness is enforced by the database's unique indexes inside the
// INSERT itself, so concurrent registrations with the same username or
// email cannot both commit.
type AccountRepository struct {
	pool poolIface
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create stores a new account. A unique violation is returned as
// *auth.DuplicateKeyError naming the colliding field.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, username, email, password_digest, phone_number, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`,
		account.ID.String(),
		account.Username,
		account.Email,
		account.PasswordDigest,
		account.PhoneNumber,
		account.CreatedAt,
	)
	if err != nil {
		if dup := duplicateKeyField(err); dup != "" {
			return &auth.DuplicateKeyError{Field: dup}
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("username", account.Username).
			Wrap(err)
	}
	return nil
}

// GetByEmail retrieves an account by email (case-insensitive).
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, email, password_digest, phone_number, created_at
		FROM accounts
		WHERE LOWER(email) = LOWER($1)
	`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}
	return account, nil
}

// duplicateKeyField maps a unique-violation error to the colliding
// field name, or "" when the error is something else.
func duplicateKeyField(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return ""
	}
	switch pgErr.ConstraintName {
	case usernameConstraint:
		return "username"
	case emailConstraint:
		return "email"
	default:
		return ""
	}
}

// scanAccount scans a single row into an Account. Callers handle
// pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr       string
		username    string
		email       string
		digest      string
		phoneNumber *string
		createdAt   time.Time
	)

	err := row.Scan(&idStr, &username, &email, &digest, &phoneNumber, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Account{
		ID:             id,
		Username:       username,
		Email:          email,
		PasswordDigest: digest,
		PhoneNumber:    phoneNumber,
		CreatedAt:      createdAt,
	}, nil
}

// Compile-time interface check.
var _ auth.Repository = (*AccountRepository)(nil)
