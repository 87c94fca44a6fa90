// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package auth provides the account and session core for Gatehouse.
//
// # Domain Types
//
// Domain types (User, Session) should be created using their
// constructors:
//   - NewUser - creates a User with a validated username, email, and password hash
//   - NewSession - creates a Session bound to a user with a validated expiry
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Services
//
// Service coordinates the account commands: Register, Login, Authenticate,
// Logout, ChangeNickname, and ChangePassword. It is created with NewService,
// which validates its dependencies.
package auth
