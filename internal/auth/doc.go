// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package auth provides the identity core for Keygate.
//
// # Domain Types
//
// Account is the persisted identity record. Accounts are created only
// through Service.Register after every field rule passes and the store
// accepts both uniqueness constraints; they are never mutated afterwards.
//
// # Services
//
// Service coordinates the registration and login flows on top of three
// collaborators, each injected at construction:
//   - Repository - durable, uniqueness-enforcing account storage
//   - PasswordHasher - salted one-way password digests
//   - TokenService - signed, expiring JWT identity assertions
//
// All flow outcomes are explicit error values; callers branch on the
// error kind rather than recovering panics.
package auth
