package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-auth-api/logger"
	"go-auth-api/model"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

var (
	// ErrDuplicateEmail is returned by CreateUser when the email is already taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUserNotFound is returned by update operations that matched no row.
	ErrUserNotFound = errors.New("user not found")
)

const uniqueViolation = "23505"

// IUserRepository defines the contract for credential store operations.
// Lookups return (nil, nil) when no user matches.
type IUserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	GetUserByRefreshToken(ctx context.Context, token string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, userID int, at time.Time) error
	UpdateRefreshToken(ctx context.Context, userID int, token string, expiry time.Time) error
	RevokeRefreshToken(ctx context.Context, userID int) error
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
}

// UserRepository implements IUserRepository on database/sql. It works with
// both the lib/pq and the pgx stdlib drivers.
type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, name, email, password_hash, created_at, last_login_at, is_active, profile_image_url, refresh_token, refresh_token_expiry`

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		user        model.User
		lastLogin   sql.NullTime
		image       sql.NullString
		token       sql.NullString
		tokenExpiry sql.NullTime
	)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt,
		&lastLogin, &user.IsActive, &image, &token, &tokenExpiry)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}
	if image.Valid {
		user.ProfileImageURL = &image.String
	}
	if token.Valid && tokenExpiry.Valid {
		user.RefreshToken = &token.String
		user.RefreshTokenExpiry = &tokenExpiry.Time
	}
	return &user, nil
}

func (r *UserRepository) getUser(ctx context.Context, log *logrus.Entry, where string, arg any) (*model.User, error) {
	log.Debug("Executing query to get user")

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// GetUserByEmail looks a user up by exact (case-sensitive) email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx, logger.Log.WithField("lookup", "email"), `email = $1`, email)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	return r.getUser(ctx, logger.Log.WithField("user_id", id), `id = $1`, id)
}

// GetUserByRefreshToken returns the user currently holding token.
func (r *UserRepository) GetUserByRefreshToken(ctx context.Context, token string) (*model.User, error) {
	return r.getUser(ctx, logger.Log.WithField("lookup", "refresh_token"), `refresh_token = $1`, token)
}

// CreateUser inserts user, including any last login and refresh token it
// already carries, and fills in its ID and CreatedAt.
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	logger.Log.WithField("email", user.Email).Debug("Executing query to create a new user")

	query := `INSERT INTO users (name, email, password_hash, is_active, profile_image_url, last_login_at, refresh_token, refresh_token_expiry)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.IsActive, user.ProfileImageURL,
		user.LastLoginAt, user.RefreshToken, user.RefreshTokenExpiry,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	if err := r.DB.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) exec(ctx context.Context, userID int, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int, at time.Time) error {
	logger.Log.WithField("user_id", userID).Debug("Executing query to update last login")
	return r.exec(ctx, userID, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at, userID)
}

// UpdateRefreshToken overwrites the user's refresh token unconditionally.
func (r *UserRepository) UpdateRefreshToken(ctx context.Context, userID int, token string, expiry time.Time) error {
	logger.Log.WithFields(logrus.Fields{
		"user_id":    userID,
		"expires_at": expiry,
	}).Debug("Executing query to store refresh token")
	return r.exec(ctx, userID, `UPDATE users SET refresh_token = $1, refresh_token_expiry = $2 WHERE id = $3`, token, expiry, userID)
}

func (r *UserRepository) RevokeRefreshToken(ctx context.Context, userID int) error {
	logger.Log.WithField("user_id", userID).Debug("Executing query to revoke refresh token")
	return r.exec(ctx, userID, `UPDATE users SET refresh_token = NULL, refresh_token_expiry = NULL WHERE id = $1`, userID)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	logger.Log.WithField("user_id", userID).Debug("Executing query to update password")
	return r.exec(ctx, userID, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

var _ IUserRepository = (*UserRepository)(nil)
