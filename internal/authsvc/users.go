// internal/authsvc/users.go

// Package authsvc implements account signup, login, and token
// revocation for the API.
package authsvc

import (
	"context"
	"database/sql"
	"time"

	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// UserStore persists user accounts.
type UserStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewUserStore(db *sql.DB, log logger.Logger) *UserStore {
	return &UserStore{
		db:     db,
		logger: log.Named("user-store"),
	}
}

// Create inserts a new account. Emails are unique; the pre-check keeps
// the common duplicate case cheap and the constraint closes the race.
func (s *UserStore) Create(ctx context.Context, email, passwordHash string) (*models.User, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("check user exists", err)
	}
	if exists {
		return nil, errors.NewUserAlreadyExistsError(email)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return nil, errors.NewUserAlreadyExistsError(email)
		}
		return nil, errors.NewQueryExecutionFailedError("insert user", err)
	}

	s.logger.Info("User account created", map[string]interface{}{
		"userId": user.ID,
		"email":  user.Email,
	})

	return user, nil
}

// GetByEmail fetches an account by its unique email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = $1`, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewRecordNotFoundError(email)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get user by email", err)
	}
	return &user, nil
}

// GetByID fetches an account by ID.
func (s *UserStore) GetByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE id = $1`, userID).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewRecordNotFoundError(userID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get user by id", err)
	}
	return &user, nil
}
