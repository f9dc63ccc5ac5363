// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate/internal/auth"
)

func testAccount() *auth.Account {
	phone := "5551234567"
	return &auth.Account{
		ID:             ulid.Make(),
		Username:       "alice_1",
		Email:          "alice@example.com",
		PasswordDigest: "$argon2id$digest",
		PhoneNumber:    &phone,
		CreatedAt:      time.Now().UTC(),
	}
}

func uniqueViolation(constraint string) *pgconn.PgError {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func TestAccountRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		execErr   error
		wantField string
		wantErr   string
	}{
		{
			name: "inserts account",
		},
		{
			name:      "username collision maps to duplicate key",
			execErr:   uniqueViolation("accounts_username_key"),
			wantField: "username",
		},
		{
			name:      "email collision maps to duplicate key",
			execErr:   uniqueViolation("accounts_email_key"),
			wantField: "email",
		},
		{
			name:    "unknown constraint is not a duplicate",
			execErr: uniqueViolation("accounts_pkey"),
			wantErr: "SQLSTATE 23505",
		},
		{
			name:    "database error",
			execErr: errors.New("connection refused"),
			wantErr: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			expect := mock.ExpectExec(`INSERT INTO accounts`).
				WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
					pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg())
			if tt.execErr != nil {
				expect.WillReturnError(tt.execErr)
			} else {
				expect.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			repo := NewAccountRepository(mock)
			err = repo.Create(ctx, testAccount())

			switch {
			case tt.wantField != "":
				var dup *auth.DuplicateKeyError
				require.ErrorAs(t, err, &dup)
				assert.Equal(t, tt.wantField, dup.Field)
			case tt.wantErr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			default:
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()
	account := testAccount()

	t.Run("returns stored account", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id", "username", "email", "password_digest", "phone_number", "created_at"}).
			AddRow(account.ID.String(), account.Username, account.Email, account.PasswordDigest, account.PhoneNumber, account.CreatedAt)
		mock.ExpectQuery(`SELECT id, username, email, password_digest, phone_number, created_at`).
			WithArgs("alice@example.com").
			WillReturnRows(rows)

		repo := NewAccountRepository(mock)
		got, err := repo.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, account.ID, got.ID)
		assert.Equal(t, account.Username, got.Username)
		assert.Equal(t, account.Email, got.Email)
		require.NotNil(t, got.PhoneNumber)
		assert.Equal(t, *account.PhoneNumber, *got.PhoneNumber)
	})

	t.Run("missing email maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, username, email, password_digest, phone_number, created_at`).
			WithArgs("ghost@example.com").
			WillReturnError(pgx.ErrNoRows)

		repo := NewAccountRepository(mock)
		_, err = repo.GetByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("corrupt id fails the scan", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id", "username", "email", "password_digest", "phone_number", "created_at"}).
			AddRow("not-a-ulid", account.Username, account.Email, account.PasswordDigest, account.PhoneNumber, account.CreatedAt)
		mock.ExpectQuery(`SELECT id, username, email, password_digest, phone_number, created_at`).
			WithArgs("alice@example.com").
			WillReturnRows(rows)

		repo := NewAccountRepository(mock)
		_, err = repo.GetByEmail(ctx, "alice@example.com")
		require.Error(t, err)
		assert.False(t, errors.Is(err, auth.ErrNotFound))
	})
}

func TestDuplicateKeyField(t *testing.T) {
	assert.Equal(t, "username", duplicateKeyField(uniqueViolation("accounts_username_key")))
	assert.Equal(t, "email", duplicateKeyField(uniqueViolation("accounts_email_key")))
	assert.Empty(t, duplicateKeyField(uniqueViolation("something_else")))
	assert.Empty(t, duplicateKeyField(errors.New("plain error")))
	assert.Empty(t, duplicateKeyField(&pgconn.PgError{Code: "42P01"}))
}
