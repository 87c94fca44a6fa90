// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"

	"github.com/samber/oops"
	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2-HMAC-SHA256 parameters. The stored blob is salt || derived key.
const (
	pbkdf2Iterations = 100_000
	pbkdf2SaltLen    = 16 // salt length in bytes
	pbkdf2KeyLen     = 32 // derived key length in bytes
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash derives a key from the password with a fresh random salt.
	// The returned blob is salt || derived key.
	Hash(password string) ([]byte, error)

	// Verify checks if the password matches the stored blob.
	// Returns (true, nil) on match and (false, nil) on mismatch.
	// A malformed blob fails closed with (false, nil).
	Verify(stored []byte, password string) (bool, error)
}

// PBKDF2Hasher implements PasswordHasher using PBKDF2-HMAC-SHA256.
type PBKDF2Hasher struct{}

// NewPBKDF2Hasher creates a new PBKDF2Hasher.
func NewPBKDF2Hasher() *PBKDF2Hasher {
	return &PBKDF2Hasher{}
}

// Hash derives a key from the password with a fresh 16-byte salt.
func (h *PBKDF2Hasher) Hash(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	dk := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)

	stored := make([]byte, 0, pbkdf2SaltLen+pbkdf2KeyLen)
	stored = append(stored, salt...)
	stored = append(stored, dk...)
	return stored, nil
}

// Verify recomputes the derived key for the stored salt and compares it in
// constant time. A blob too short to contain a salt and at least one key
// byte is treated as a mismatch, never as a distinct control path.
func (h *PBKDF2Hasher) Verify(stored []byte, password string) (bool, error) {
	if len(stored) <= pbkdf2SaltLen {
		return false, nil
	}

	salt, expected := stored[:pbkdf2SaltLen], stored[pbkdf2SaltLen:]
	computed := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, len(expected), sha256.New)

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

// Compile-time interface check.
var _ PasswordHasher = (*PBKDF2Hasher)(nil)
