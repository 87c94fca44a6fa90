// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPBKDF2Hasher_Hash(t *testing.T) {
	hasher := NewPBKDF2Hasher()

	t.Run("produces salt plus key blob", func(t *testing.T) {
		stored, err := hasher.Hash("Correct.Horse1")
		require.NoError(t, err)
		assert.Len(t, stored, pbkdf2SaltLen+pbkdf2KeyLen)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmptyPassword)
	})

	t.Run("salts are unique per hash", func(t *testing.T) {
		first, err := hasher.Hash("Correct.Horse1")
		require.NoError(t, err)
		second, err := hasher.Hash("Correct.Horse1")
		require.NoError(t, err)

		assert.NotEqual(t, first[:pbkdf2SaltLen], second[:pbkdf2SaltLen])
		assert.NotEqual(t, first, second)
	})
}

func TestPBKDF2Hasher_Verify(t *testing.T) {
	hasher := NewPBKDF2Hasher()

	t.Run("accepts the original password", func(t *testing.T) {
		stored, err := hasher.Hash("Correct.Horse1")
		require.NoError(t, err)

		ok, err := hasher.Verify(stored, "Correct.Horse1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejects a different password", func(t *testing.T) {
		stored, err := hasher.Hash("Correct.Horse1")
		require.NoError(t, err)

		ok, err := hasher.Verify(stored, "Wrong.Horse1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("short blob fails closed without error", func(t *testing.T) {
		ok, err := hasher.Verify([]byte("too short"), "Correct.Horse1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("nil blob fails closed without error", func(t *testing.T) {
		ok, err := hasher.Verify(nil, "Correct.Horse1")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
