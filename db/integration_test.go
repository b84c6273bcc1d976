package db

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"go-auth-api/model"
	"go-auth-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL with driver and migrates it.
// The users table is emptied before and after the test.
func openTestDB(t *testing.T, driver string) *sql.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	conn, err := sql.Open(driver, url)
	require.NoError(t, err)
	require.NoError(t, conn.Ping())
	require.NoError(t, RunMigrations(conn))

	truncate := func() {
		_, err := conn.Exec(`TRUNCATE users RESTART IDENTITY`)
		require.NoError(t, err)
	}
	truncate()
	t.Cleanup(func() {
		truncate()
		conn.Close()
	})
	return conn
}

func TestUserRepository_Postgres(t *testing.T) {
	for _, driver := range []string{"postgres", "pgx"} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			repo := repository.NewUserRepository(openTestDB(t, driver))

			user := &model.User{Name: "Asha", Email: "asha@example.com", PasswordHash: "hash", IsActive: true}
			require.NoError(t, repo.CreateUser(ctx, user))
			assert.NotZero(t, user.ID)

			err := repo.CreateUser(ctx, &model.User{Name: "Copy", Email: "asha@example.com", PasswordHash: "hash"})
			assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

			expiry := time.Now().Add(7 * 24 * time.Hour).UTC().Truncate(time.Microsecond)
			require.NoError(t, repo.UpdateRefreshToken(ctx, user.ID, "token-1", expiry))

			holder, err := repo.GetUserByRefreshToken(ctx, "token-1")
			require.NoError(t, err)
			require.NotNil(t, holder)
			assert.Equal(t, user.ID, holder.ID)
			assert.True(t, expiry.Equal(*holder.RefreshTokenExpiry))

			require.NoError(t, repo.UpdateRefreshToken(ctx, user.ID, "token-2", expiry))
			stale, err := repo.GetUserByRefreshToken(ctx, "token-1")
			require.NoError(t, err)
			assert.Nil(t, stale)

			require.NoError(t, repo.RevokeRefreshToken(ctx, user.ID))
			revoked, err := repo.GetUserByID(ctx, user.ID)
			require.NoError(t, err)
			assert.Nil(t, revoked.RefreshToken)
			assert.Nil(t, revoked.RefreshTokenExpiry)

			exists, err := repo.EmailExists(ctx, "asha@example.com")
			require.NoError(t, err)
			assert.True(t, exists)

			assert.ErrorIs(t, repo.UpdateLastLogin(ctx, 9999, time.Now()), repository.ErrUserNotFound)
		})
	}
}

func TestRefreshTokenPairConstraint(t *testing.T) {
	conn := openTestDB(t, "postgres")

	_, err := conn.Exec(`INSERT INTO users (name, email, password_hash, refresh_token) VALUES ('A', 'a@example.com', 'h', 'orphan')`)
	assert.Error(t, err)
}
