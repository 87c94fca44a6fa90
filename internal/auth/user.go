// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// User represents a registered account.
type User struct {
	ID           ulid.ULID
	Username     string
	Email        string
	PasswordHash []byte
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time // nil until the account is first modified
}

// NewUser creates a validated User instance. The password hash must come
// from a PasswordHasher; plaintext passwords never reach this constructor.
func NewUser(username, email string, passwordHash []byte) (*User, error) {
	if err := ValidateNickname(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if len(passwordHash) == 0 {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	return &User{
		ID:           ulid.Make(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}, nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. A username or email collision is reported
	// as a USER_CONFLICT coded error wrapping the store failure.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdateUsername updates the username and touches updated_at.
	UpdateUsername(ctx context.Context, id ulid.ULID, username string) error

	// UpdatePassword updates the password hash and touches updated_at.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash []byte) error
}
