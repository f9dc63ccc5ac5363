// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service orchestrates the registration and login flows.
type Service struct {
	accounts Repository
	hasher   PasswordHasher
	tokens   *TokenService
	logger   *slog.Logger
}

// NewService creates a Service.
func NewService(accounts Repository, hasher PasswordHasher, tokens *TokenService) (*Service, error) {
	return NewServiceWithLogger(accounts, hasher, tokens, slog.Default())
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(accounts Repository, hasher PasswordHasher, tokens *TokenService, logger *slog.Logger) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("token service is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("logger is required")
	}
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
	}, nil
}

// Register validates a submission, digests the password, and stores the
// account. Failure kinds, in stage order:
//   - ValidationErrors with every violation on the submission
//   - *DuplicateKeyError naming the colliding field
//   - any other error is an internal failure
//
// No record that fails a rule ever reaches the repository.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	if violations := ValidateRegistration(in); len(violations) > 0 {
		return nil, violations
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account := &Account{
		ID:             ulid.Make(),
		Username:       in.Username,
		Email:          in.Email,
		PasswordDigest: digest,
		CreatedAt:      time.Now().UTC(),
	}
	if in.PhoneNumber != "" {
		phone := in.PhoneNumber
		account.PhoneNumber = &phone
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		var dup *DuplicateKeyError
		if errors.As(err, &dup) {
			s.logger.Info("registration rejected: duplicate key",
				"field", dup.Field,
				"username", in.Username)
			return nil, err
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create account").
			With("username", in.Username).
			Wrap(err)
	}

	s.logger.Info("account registered",
		"account_id", account.ID.String(),
		"username", account.Username)
	return account, nil
}

// Login authenticates a user by email and password and issues an
// identity token. Failure kinds:
//   - ErrNotFound when no account has the email
//   - ErrPasswordMismatch when the password does not match
//   - any other error is an internal failure (store unreachable,
//     malformed stored digest)
func (s *Service) Login(ctx context.Context, email, password string) (*Account, string, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	ok, err := s.hasher.Verify(password, account.PasswordDigest)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("account_id", account.ID.String()).
			Wrap(err)
	}
	if !ok {
		return nil, "", ErrPasswordMismatch
	}

	token, err := s.tokens.Issue(Claims{Email: account.Email, Username: account.Username})
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			With("account_id", account.ID.String()).
			Wrap(err)
	}

	s.logger.Info("login succeeded",
		"account_id", account.ID.String(),
		"username", account.Username)
	return account, token, nil
}
