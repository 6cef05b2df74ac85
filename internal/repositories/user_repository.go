package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messenger-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository reads identity rows. Account creation and credential
// management belong to the auth service; this side only consumes profiles.
type UserRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetByIDs(ctx context.Context, userIDs []uuid.UUID) ([]models.User, error)
	Search(ctx context.Context, selfID uuid.UUID, query string, limit int) ([]models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Get fetches one user.
func (r *UserRepo) Get(ctx context.Context, userID uuid.UUID) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, username, email, avatar_url, created_at FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByIDs fetches users in bulk; missing ids are silently absent from the
// result.
func (r *UserRepo) GetByIDs(ctx context.Context, userIDs []uuid.UUID) ([]models.User, error) {
	if len(userIDs) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT id, username, email, avatar_url, created_at FROM users WHERE id = ANY($1::uuid[])`,
		pq.Array(uuidStrings(userIDs)))
	return users, err
}

// Search matches username or email by substring, excluding the caller. An
// empty query returns suggested users.
func (r *UserRepo) Search(ctx context.Context, selfID uuid.UUID, query string, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = 20
	}
	var users []models.User
	if query == "" {
		err := r.db.SelectContext(ctx, &users, `SELECT id, username, email, avatar_url, created_at FROM users WHERE id <> $1 LIMIT $2`, selfID, limit)
		return users, err
	}
	err := r.db.SelectContext(ctx, &users, `SELECT id, username, email, avatar_url, created_at FROM users
        WHERE id <> $1 AND (username ILIKE $2 OR email ILIKE $2) LIMIT $3`, selfID, "%"+query+"%", limit)
	return users, err
}
