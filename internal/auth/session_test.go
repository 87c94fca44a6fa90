// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/pkg/errutil"
)

func TestGenerateSessionToken(t *testing.T) {
	t.Run("token is 64 hex characters", func(t *testing.T) {
		token, hash, err := GenerateSessionToken()
		require.NoError(t, err)
		assert.Len(t, token, SessionTokenBytes*2)
		assert.Regexp(t, "^[0-9a-f]+$", token)
		assert.Equal(t, HashSessionToken(token), hash)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		first, _, err := GenerateSessionToken()
		require.NoError(t, err)
		second, _, err := GenerateSessionToken()
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}

func TestVerifySessionToken(t *testing.T) {
	token, hash, err := GenerateSessionToken()
	require.NoError(t, err)

	t.Run("matches its own hash", func(t *testing.T) {
		ok, err := VerifySessionToken(token, hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejects a different token", func(t *testing.T) {
		other, _, err := GenerateSessionToken()
		require.NoError(t, err)
		ok, err := VerifySessionToken(other, hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty token is an error", func(t *testing.T) {
		_, err := VerifySessionToken("", hash)
		errutil.AssertErrorCode(t, err, "SESSION_TOKEN_EMPTY")
	})

	t.Run("empty hash is an error", func(t *testing.T) {
		_, err := VerifySessionToken(token, "")
		errutil.AssertErrorCode(t, err, "SESSION_HASH_EMPTY")
	})
}

func TestNewSession(t *testing.T) {
	userID := ulid.Make()
	expiry := time.Now().Add(DefaultSessionTTL)

	t.Run("valid session", func(t *testing.T) {
		session, err := NewSession(userID, "somehash", expiry)
		require.NoError(t, err)
		assert.Equal(t, userID, session.UserID)
		assert.Equal(t, "somehash", session.TokenHash)
		assert.Equal(t, expiry, session.ExpiresAt)
		assert.False(t, session.CreatedAt.IsZero())
	})

	t.Run("zero user id rejected", func(t *testing.T) {
		_, err := NewSession(ulid.ULID{}, "somehash", expiry)
		errutil.AssertErrorCode(t, err, "SESSION_INVALID_USER")
	})

	t.Run("empty hash rejected", func(t *testing.T) {
		_, err := NewSession(userID, "", expiry)
		errutil.AssertErrorCode(t, err, "SESSION_INVALID_HASH")
	})

	t.Run("zero expiry rejected", func(t *testing.T) {
		_, err := NewSession(userID, "somehash", time.Time{})
		errutil.AssertErrorCode(t, err, "SESSION_INVALID_EXPIRY")
	})
}

func TestSession_IsExpiredAt(t *testing.T) {
	now := time.Now()
	session := &Session{ExpiresAt: now}

	assert.False(t, session.IsExpiredAt(now.Add(-time.Second)))
	assert.True(t, session.IsExpiredAt(now), "expiry instant counts as expired")
	assert.True(t, session.IsExpiredAt(now.Add(time.Second)))
}
