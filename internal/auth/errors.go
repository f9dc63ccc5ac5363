// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package auth

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrPasswordMismatch is returned when a login password does not match
// the stored digest.
var ErrPasswordMismatch = errors.New("password mismatch")

// Token verification failure kinds. Verify collapses every jwt library
// failure into exactly one of these.
var (
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenBadSignature = errors.New("token signature invalid")
	ErrTokenExpired      = errors.New("token expired")
)

// DuplicateKeyError reports a uniqueness violation on an account field.
// Field is "username" or "email".
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

// Violation is a single failed field rule with its user-facing message.
type Violation struct {
	Field   string
	Message string
}

// ValidationErrors collects every violation found on a submission.
// The registration flow never drops a violation; all are reported together.
type ValidationErrors []Violation

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Messages returns the user-facing message for each violation, in rule
// table order.
func (e ValidationErrors) Messages() []string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Message
	}
	return msgs
}
