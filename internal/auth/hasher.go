// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters. Tuned so a single verification
// costs tens of milliseconds on commodity hardware.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("HASH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher produces and checks one-way password digests.
type PasswordHasher interface {
	// Hash produces a salted one-way digest of the password. Two calls
	// with the same plaintext yield different digests.
	Hash(password string) (string, error)

	// Verify checks the password against a digest in constant time.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an
	// error when the digest itself is malformed.
	Verify(password, digest string) (bool, error)
}

// Argon2idHasher implements PasswordHasher using argon2id with digests
// in PHC string format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id digest of the password with a fresh salt.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("HASH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// Verify recomputes the digest with the parameters encoded in it and
// compares in constant time. A digest that cannot be parsed is an
// internal error, not an authentication failure.
func (h *Argon2idHasher) Verify(password, digest string) (bool, error) {
	params, salt, key, err := parseDigest(digest)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(key)))

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
}

// parseDigest splits a PHC-encoded argon2id digest into its parameters,
// salt, and derived key.
func parseDigest(digest string) (argon2Params, []byte, []byte, error) {
	var params argon2Params

	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return params, nil, nil, oops.Code("HASH_INVALID_DIGEST").Errorf("invalid digest format")
	}
	if parts[1] != "argon2id" {
		return params, nil, nil, oops.Code("HASH_INVALID_DIGEST").Errorf("unsupported digest algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, oops.Code("HASH_INVALID_DIGEST").Wrap(err)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return params, nil, nil, oops.Code("HASH_INVALID_DIGEST").Wrap(err)
	}
	// threads must fit in uint8 for argon2.IDKey
	if threads > 255 {
		return params, nil, nil, oops.Code("HASH_INVALID_DIGEST").Errorf("threads value %d exceeds uint8 max", threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, oops.Code("HASH_INVALID_DIGEST").Wrap(err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, oops.Code("HASH_INVALID_DIGEST").Wrap(err)
	}
	if len(key) == 0 || len(key) > 1<<30 {
		return params, nil, nil, oops.Code("HASH_INVALID_DIGEST").Errorf("invalid digest key length: %d", len(key))
	}

	params = argon2Params{memory: memory, time: time, threads: uint8(threads)}
	return params, salt, key, nil
}

// Compile-time interface check.
var _ PasswordHasher = (*Argon2idHasher)(nil)
