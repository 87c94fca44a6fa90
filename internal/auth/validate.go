// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"regexp"
	"strings"

	"github.com/samber/oops"
)

// Nickname validation constraints.
const (
	MinNicknameLength = 3
	MaxNicknameLength = 50
)

var (
	// nicknameRegex matches 3-50 characters of letters, digits, and underscores.
	nicknameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,50}$`)

	// emailRegex requires a local@domain.tld shape with a final label of
	// at least two letters.
	emailRegex = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// passwordSymbols is the punctuation set a strong password must draw from.
const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

// ValidateNickname validates a nickname against the account rules.
func ValidateNickname(nickname string) error {
	if nickname == "" {
		return oops.Code("AUTH_INVALID_NICKNAME").Errorf("nickname cannot be empty")
	}
	if !nicknameRegex.MatchString(nickname) {
		return oops.Code("AUTH_INVALID_NICKNAME").
			With("min", MinNicknameLength).
			With("max", MaxNicknameLength).
			Errorf("nickname must be %d-%d characters of letters, digits, and underscores", MinNicknameLength, MaxNicknameLength)
	}
	return nil
}

// ValidateEmail validates the shape of an email address.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email address is not valid")
	}
	return nil
}

// ValidatePasswordStrength checks the password strength rule: at least
// 8 characters with one uppercase letter, one lowercase letter, one digit,
// and one symbol.
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return oops.Code("AUTH_WEAK_PASSWORD").Errorf("password must be at least 8 characters")
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	if !upper || !lower || !digit || !symbol {
		return oops.Code("AUTH_WEAK_PASSWORD").
			Errorf("password must contain an uppercase letter, a lowercase letter, a digit, and a symbol")
	}
	return nil
}
