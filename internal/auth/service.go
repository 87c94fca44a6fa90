// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service provides the account commands.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	hasher   PasswordHasher
	logger   *slog.Logger
}

// NewService creates a new Service with a no-op logger.
// Returns an error if any required dependency is nil.
func NewService(users UserRepository, sessions SessionRepository, hasher PasswordHasher) (*Service, error) {
	return NewServiceWithLogger(users, sessions, hasher, slog.New(slog.DiscardHandler))
}

// NewServiceWithLogger creates a new Service with the provided logger.
// Returns an error if any required dependency is nil.
func NewServiceWithLogger(users UserRepository, sessions SessionRepository, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("users repository is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("sessions repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		logger:   logger,
	}, nil
}

// dummyPasswordBlob is verified when a login email matches no account, so the
// request still pays the key-derivation cost and response time stays uniform.
// It is a fake blob that never matches any password, not a credential.
var dummyPasswordBlob = make([]byte, pbkdf2SaltLen+pbkdf2KeyLen)

// Register validates the new account fields, hashes the password, and
// inserts the user. Field-format failures return distinct coded errors;
// a username or email collision surfaces as USER_CONFLICT from the
// repository.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, error) {
	if err := ValidateNickname(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(username, email, hash)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID.String(), "username", user.Username)
	return user, nil
}

// Login authenticates a user by email and creates a session.
// Returns the plaintext session token for the cookie. Unknown email and
// wrong password produce the identical AUTH_INVALID_CREDENTIALS error so
// the response never reveals whether the account exists.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, lookupErr := s.users.GetByEmail(ctx, email)

	target := dummyPasswordBlob
	userExists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		target = user.PasswordHash
		userExists = true
	}

	// Always run verification so timing does not depend on account existence.
	valid, verifyErr := s.hasher.Verify(target, password)
	if verifyErr != nil {
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !userExists || !valid {
		return "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
	}

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewSession(user.ID, tokenHash, time.Now().Add(DefaultSessionTTL))
	if err != nil {
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	s.logger.Info("user logged in", "user_id", user.ID.String())
	return token, nil
}

// Authenticate resolves a session token to its user. A missing, unknown,
// or expired session yields a SESSION_INVALID error wrapping ErrNotFound;
// callers treat that as anonymous, not as a failure.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, oops.Code("SESSION_INVALID").Wrap(ErrNotFound)
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").Wrap(ErrNotFound)
		}
		return nil, oops.Code("AUTH_RESOLVE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Session points at a deleted account; treat as anonymous.
			return nil, oops.Code("SESSION_INVALID").Wrap(ErrNotFound)
		}
		return nil, oops.Code("AUTH_RESOLVE_FAILED").
			With("operation", "get user by id").
			With("user_id", session.UserID.String()).
			Wrap(err)
	}

	return user, nil
}

// Logout deletes the session for the given token. Logging out a session
// that is already gone is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, HashSessionToken(token)); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// ChangeNickname updates the username after re-verifying the current
// password and validating the new nickname.
func (s *Service) ChangeNickname(ctx context.Context, userID ulid.ULID, currentPassword, newNickname string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return oops.Code("AUTH_UPDATE_FAILED").
			With("operation", "get user by id").
			With("user_id", userID.String()).
			Wrap(err)
	}

	if err := s.verifyCurrentPassword(user, currentPassword); err != nil {
		return err
	}
	if err := ValidateNickname(newNickname); err != nil {
		return err
	}

	if err := s.users.UpdateUsername(ctx, userID, newNickname); err != nil {
		return err
	}

	s.logger.Info("nickname changed", "user_id", userID.String())
	return nil
}

// ChangePassword rehashes and updates the password after re-verifying the
// current password, checking the confirmation, and checking strength.
func (s *Service) ChangePassword(ctx context.Context, userID ulid.ULID, currentPassword, newPassword, confirm string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return oops.Code("AUTH_UPDATE_FAILED").
			With("operation", "get user by id").
			With("user_id", userID.String()).
			Wrap(err)
	}

	if err := s.verifyCurrentPassword(user, currentPassword); err != nil {
		return err
	}
	if newPassword != confirm {
		return oops.Code("AUTH_PASSWORD_MISMATCH").Errorf("new passwords do not match")
	}
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("AUTH_UPDATE_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", userID.String())
	return nil
}

func (s *Service) verifyCurrentPassword(user *User, password string) error {
	valid, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return oops.Code("AUTH_UPDATE_FAILED").
			With("operation", "verify current password").
			Wrap(err)
	}
	if !valid {
		return oops.Code("AUTH_BAD_CURRENT_PASSWORD").Errorf("current password is incorrect")
	}
	return nil
}
