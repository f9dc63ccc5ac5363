// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the identity token time-to-live.
const DefaultTokenTTL = time.Hour

// Claims are the identity assertions carried by a token.
type Claims struct {
	Email    string
	Username string
}

// tokenClaims is the internal claims type used for JWT signing and parsing.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Username string `json:"username"`
}

// TokenService issues and verifies signed, expiring identity tokens.
// Tokens are HS256 JWTs keyed by a process-wide secret; the service
// keeps no server-side state, so a token stays verifiable only while
// the secret is unchanged and the expiry has not passed.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. ttl <= 0 selects
// DefaultTokenTTL.
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, oops.Code("TOKEN_NO_SECRET").Errorf("token secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token carrying the claims plus issue and expiry
// timestamps.
func (s *TokenService) Issue(claims Claims) (string, error) {
	issuedAt := s.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
		Email:    claims.Email,
		Username: claims.Username,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify decodes a token, checks the signature against the current
// secret, and checks that the expiry has not passed. Every failure maps
// to exactly one of ErrTokenMalformed, ErrTokenBadSignature, or
// ErrTokenExpired.
func (s *TokenService) Verify(token string) (Claims, error) {
	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	return Claims{Email: parsed.Email, Username: parsed.Username}, nil
}

// mapJWTError translates jwt library errors to the token error kinds.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenBadSignature
	default:
		return ErrTokenMalformed
	}
}
