//go:build integration

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gatehouse/gatehouse/internal/auth"
	authpg "github.com/gatehouse/gatehouse/internal/auth/postgres"
	"github.com/gatehouse/gatehouse/internal/store"
)

// startPostgresContainer starts a PostgreSQL container for testing.
func startPostgresContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := pgcontainer.Run(ctx,
		"postgres:16-alpine",
		pgcontainer.WithDatabase("test"),
		pgcontainer.WithUsername("test"),
		pgcontainer.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func setupRepos(t *testing.T) (*authpg.UserRepository, *authpg.SessionRepository) {
	t.Helper()
	ctx := context.Background()
	connStr := startPostgresContainer(t)

	migrator, err := store.NewMigrator(connStr)
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Close())

	pool, err := store.Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return authpg.NewUserRepository(pool), authpg.NewSessionRepository(pool)
}

func TestIntegration_UserLifecycle(t *testing.T) {
	ctx := context.Background()
	users, _ := setupRepos(t)

	user, err := auth.NewUser("alice", "alice@example.com", []byte("stored-hash"))
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, user))

	t.Run("duplicate email conflicts", func(t *testing.T) {
		dup, err := auth.NewUser("alice2", "Alice@Example.COM", []byte("stored-hash"))
		require.NoError(t, err)
		err = users.Create(ctx, dup)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "taken")
	})

	t.Run("lookup by email is case-insensitive", func(t *testing.T) {
		got, err := users.GetByEmail(ctx, "ALICE@example.COM")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, user.PasswordHash, got.PasswordHash)
	})

	t.Run("username update touches updated_at", func(t *testing.T) {
		require.NoError(t, users.UpdateUsername(ctx, user.ID, "alice_two"))

		got, err := users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice_two", got.Username)
		require.NotNil(t, got.UpdatedAt)
		assert.WithinDuration(t, time.Now(), *got.UpdatedAt, time.Minute)
	})

	t.Run("password update persists", func(t *testing.T) {
		require.NoError(t, users.UpdatePassword(ctx, user.ID, []byte("new-hash")))

		got, err := users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, []byte("new-hash"), got.PasswordHash)
	})

	t.Run("unknown user yields ErrNotFound", func(t *testing.T) {
		_, err := users.GetByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestIntegration_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	users, sessions := setupRepos(t)

	user, err := auth.NewUser("bob", "bob@example.com", []byte("stored-hash"))
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, user))

	_, hash, err := auth.GenerateSessionToken()
	require.NoError(t, err)

	session, err := auth.NewSession(user.ID, hash, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, sessions.Create(ctx, session))

	t.Run("lookup returns the stored session", func(t *testing.T) {
		got, err := sessions.GetByTokenHash(ctx, hash)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.UserID)
	})

	t.Run("duplicate token hash is rejected", func(t *testing.T) {
		dup, err := auth.NewSession(user.ID, hash, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Error(t, sessions.Create(ctx, dup))
	})

	t.Run("expired session behaves as absent", func(t *testing.T) {
		_, expiredHash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		expired, err := auth.NewSession(user.ID, expiredHash, time.Now().Add(-time.Minute))
		require.NoError(t, err)
		require.NoError(t, sessions.Create(ctx, expired))

		_, err = sessions.GetByTokenHash(ctx, expiredHash)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, sessions.Delete(ctx, hash))
		require.NoError(t, sessions.Delete(ctx, hash))

		_, err := sessions.GetByTokenHash(ctx, hash)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("expired sweep removes only expired rows", func(t *testing.T) {
		_, liveHash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		live, err := auth.NewSession(user.ID, liveHash, time.Now().Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, sessions.Create(ctx, live))

		removed, err := sessions.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, removed, int64(1))

		_, err = sessions.GetByTokenHash(ctx, liveHash)
		assert.NoError(t, err)
	})
}
