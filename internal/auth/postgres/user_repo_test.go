// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

func newUserRepoMock(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, pool.ExpectationsWereMet())
		pool.Close()
	})
	return NewUserRepository(pool), pool
}

func mockUser(t *testing.T) *auth.User {
	t.Helper()
	user, err := auth.NewUser("alice", "alice@example.com", []byte("stored-hash"))
	require.NoError(t, err)
	return user
}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo, pool := newUserRepoMock(t)
		user := mockUser(t)

		pool.ExpectExec("INSERT INTO users").
			WithArgs(user.ID.String(), user.Username, user.Email, user.PasswordHash,
				user.IsActive, user.CreatedAt, user.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, repo.Create(ctx, user))
	})

	t.Run("unique violation maps to conflict", func(t *testing.T) {
		repo, pool := newUserRepoMock(t)
		user := mockUser(t)

		pool.ExpectExec("INSERT INTO users").
			WithArgs(user.ID.String(), user.Username, user.Email, user.PasswordHash,
				user.IsActive, user.CreatedAt, user.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		err := repo.Create(ctx, user)
		errutil.AssertErrorCode(t, err, "USER_CONFLICT")
	})

	t.Run("other database error is not a conflict", func(t *testing.T) {
		repo, pool := newUserRepoMock(t)
		user := mockUser(t)

		pool.ExpectExec("INSERT INTO users").
			WithArgs(user.ID.String(), user.Username, user.Email, user.PasswordHash,
				user.IsActive, user.CreatedAt, user.UpdatedAt).
			WillReturnError(assert.AnError)

		err := repo.Create(ctx, user)
		errutil.AssertErrorCode(t, err, "USER_CREATE_FAILED")
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo, pool := newUserRepoMock(t)
		id := ulid.Make()
		created := time.Now()

		pool.ExpectQuery("SELECT (.+) FROM users").
			WithArgs("alice@example.com").
			WillReturnRows(pgxmock.NewRows(
				[]string{"id", "username", "email", "password_hash", "is_active", "created_at", "updated_at"},
			).AddRow(id.String(), "alice", "alice@example.com", []byte("stored-hash"), true, created, (*time.Time)(nil)))

		user, err := repo.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "alice", user.Username)
		assert.True(t, user.IsActive)
		assert.Nil(t, user.UpdatedAt)
	})

	t.Run("not found wraps ErrNotFound", func(t *testing.T) {
		repo, pool := newUserRepoMock(t)

		pool.ExpectQuery("SELECT (.+) FROM users").
			WithArgs("ghost@example.com").
			WillReturnRows(pgxmock.NewRows(
				[]string{"id", "username", "email", "password_hash", "is_active", "created_at", "updated_at"},
			))

		_, err := repo.GetByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "USER_NOT_FOUND")
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("not found wraps ErrNotFound", func(t *testing.T) {
		repo, pool := newUserRepoMock(t)
		id := ulid.Make()

		pool.ExpectQuery("SELECT (.+) FROM users").
			WithArgs(id.String()).
			WillReturnRows(pgxmock.NewRows(
				[]string{"id", "username", "email", "password_hash", "is_active", "created_at", "updated_at"},
			))

		_, err := repo.GetByID(ctx, id)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("unparseable id in storage is an error", func(t *testing.T) {
		repo, pool := newUserRepoMock(t)
		id := ulid.Make()

		pool.ExpectQuery("SELECT (.+) FROM users").
			WithArgs(id.String()).
			WillReturnRows(pgxmock.NewRows(
				[]string{"id", "username", "email", "password_hash", "is_active", "created_at", "updated_at"},
			).AddRow("not-a-ulid", "alice", "alice@example.com", []byte("h"), true, time.Now(), (*time.Time)(nil)))

		_, err := repo.GetByID(ctx, id)
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestUserRepository_UpdateUsername(t *testing.T) {
	ctx := context.Background()
	id := ulid.Make()

	t.Run("success", func(t *testing.T) {
		repo, pool := newUserRepoMock(t)

		pool.ExpectExec("UPDATE users SET username").
			WithArgs(id.String(), "alice_two").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.UpdateUsername(ctx, id, "alice_two"))
	})

	t.Run("missing user", func(t *testing.T) {
		repo, pool := newUserRepoMock(t)

		pool.ExpectExec("UPDATE users SET username").
			WithArgs(id.String(), "alice_two").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateUsername(ctx, id, "alice_two")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("taken username maps to conflict", func(t *testing.T) {
		repo, pool := newUserRepoMock(t)

		pool.ExpectExec("UPDATE users SET username").
			WithArgs(id.String(), "taken").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		err := repo.UpdateUsername(ctx, id, "taken")
		errutil.AssertErrorCode(t, err, "USER_CONFLICT")
	})
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	id := ulid.Make()

	t.Run("success", func(t *testing.T) {
		repo, pool := newUserRepoMock(t)

		pool.ExpectExec("UPDATE users SET password_hash").
			WithArgs(id.String(), []byte("new-hash")).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.UpdatePassword(ctx, id, []byte("new-hash")))
	})

	t.Run("missing user", func(t *testing.T) {
		repo, pool := newUserRepoMock(t)

		pool.ExpectExec("UPDATE users SET password_hash").
			WithArgs(id.String(), []byte("new-hash")).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdatePassword(ctx, id, []byte("new-hash"))
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}
