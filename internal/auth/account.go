// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Account represents a registered identity record. The plaintext
// password is never stored; only the argon2id digest is persisted.
type Account struct {
	ID             ulid.ULID
	Username       string
	Email          string
	PasswordDigest string
	PhoneNumber    *string
	CreatedAt      time.Time
}

// Repository manages account persistence. Implementations must enforce
// the username and email uniqueness constraints atomically inside
// Create; a check-then-insert sequence is not acceptable.
type Repository interface {
	// Create stores a new account. Returns *DuplicateKeyError when
	// username or email already exists.
	Create(ctx context.Context, account *Account) error

	// GetByEmail retrieves an account by email (case-insensitive).
	// Returns ErrNotFound if no account has the given email.
	GetByEmail(ctx context.Context, email string) (*Account, error)
}
