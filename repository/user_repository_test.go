package repository

import (
	"context"
	"database/sql"
	"errors"
	"go-auth-api/model"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{
	"id", "name", "email", "password_hash", "created_at", "last_login_at",
	"is_active", "profile_image_url", "refresh_token", "refresh_token_expiry",
}

func newRepoWithMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepository(db), mock
}

func TestUserRepository_GetUserByEmail(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	expiry := created.Add(7 * 24 * time.Hour)
	q := `(?s)^SELECT id, name, email, .* FROM users WHERE email = \$1$`

	t.Run("found with refresh token", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("asha@example.com").WillReturnRows(
			sqlmock.NewRows(userRowColumns).
				AddRow(1, "Asha", "asha@example.com", "$2a$12$hash", created, nil, true, nil, "tok", expiry))

		user, err := repo.GetUserByEmail(ctx, "asha@example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, 1, user.ID)
		assert.Equal(t, "Asha", user.Name)
		assert.True(t, user.IsActive)
		assert.Nil(t, user.LastLoginAt)
		assert.Nil(t, user.ProfileImageURL)
		require.NotNil(t, user.RefreshToken)
		assert.Equal(t, "tok", *user.RefreshToken)
		assert.True(t, expiry.Equal(*user.RefreshTokenExpiry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("nobody@example.com").WillReturnError(sql.ErrNoRows)

		user, err := repo.GetUserByEmail(ctx, "nobody@example.com")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("asha@example.com").WillReturnError(errors.New("connection reset"))

		user, err := repo.GetUserByEmail(ctx, "asha@example.com")
		assert.Nil(t, user)
		assert.ErrorContains(t, err, "connection reset")
	})
}

func TestUserRepository_GetUserByRefreshToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)^SELECT .* FROM users WHERE refresh_token = \$1$`).
		WithArgs("stale").
		WillReturnError(sql.ErrNoRows)

	user, err := repo.GetUserByRefreshToken(context.Background(), "stale")
	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateUser(t *testing.T) {
	ctx := context.Background()
	q := `(?s)^INSERT INTO users \(name, email, password_hash, is_active, profile_image_url, last_login_at, refresh_token, refresh_token_expiry\).*RETURNING id, created_at$`

	t.Run("success", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		created := time.Now().UTC()
		mock.ExpectQuery(q).
			WithArgs("Asha", "asha@example.com", "hash", true, nil, nil, nil, nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(42, created))

		user := &model.User{Name: "Asha", Email: "asha@example.com", PasswordHash: "hash", IsActive: true}
		require.NoError(t, repo.CreateUser(ctx, user))
		assert.Equal(t, 42, user.ID)
		assert.True(t, created.Equal(user.CreatedAt))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with session state", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		now := time.Now().UTC()
		expiry := now.Add(time.Hour)
		token := "tok"
		mock.ExpectQuery(q).
			WithArgs("Asha", "asha@example.com", "hash", true, nil, now, token, expiry).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, now))

		user := &model.User{
			Name: "Asha", Email: "asha@example.com", PasswordHash: "hash", IsActive: true,
			LastLoginAt: &now, RefreshToken: &token, RefreshTokenExpiry: &expiry,
		}
		require.NoError(t, repo.CreateUser(ctx, user))
		assert.Equal(t, 7, user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation from lib/pq", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WillReturnError(&pq.Error{Code: "23505"})

		err := repo.CreateUser(ctx, &model.User{Email: "asha@example.com"})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("unique violation from pgx", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.CreateUser(ctx, &model.User{Email: "asha@example.com"})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("other error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WillReturnError(errors.New("disk full"))

		err := repo.CreateUser(ctx, &model.User{Email: "asha@example.com"})
		assert.NotErrorIs(t, err, ErrDuplicateEmail)
		assert.ErrorContains(t, err, "disk full")
	})
}

func TestUserRepository_EmailExists(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`^SELECT EXISTS \(SELECT 1 FROM users WHERE email = \$1\)$`).
		WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.EmailExists(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepository_UpdateRefreshToken(t *testing.T) {
	ctx := context.Background()
	q := `^UPDATE users SET refresh_token = \$1, refresh_token_expiry = \$2 WHERE id = \$3$`
	expiry := time.Now().Add(time.Hour)

	t.Run("success", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("tok", sqlmock.AnyArg(), 1).WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateRefreshToken(ctx, 1, "tok", expiry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("tok", sqlmock.AnyArg(), 99).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateRefreshToken(ctx, 99, "tok", expiry), ErrUserNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WillReturnError(errors.New("timeout"))

		err := repo.UpdateRefreshToken(ctx, 1, "tok", expiry)
		assert.ErrorContains(t, err, "timeout")
	})
}

func TestUserRepository_RevokeRefreshToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`^UPDATE users SET refresh_token = NULL, refresh_token_expiry = NULL WHERE id = \$1$`).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.RevokeRefreshToken(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateLastLoginAndPassword(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`^UPDATE users SET last_login_at = \$1 WHERE id = \$2$`).
		WithArgs(sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^UPDATE users SET password_hash = \$1 WHERE id = \$2$`).
		WithArgs("new-hash", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdateLastLogin(context.Background(), 3, time.Now()))
	assert.NoError(t, repo.UpdatePassword(context.Background(), 3, "new-hash"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
