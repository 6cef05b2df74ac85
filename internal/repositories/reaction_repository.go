package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ReactionRepository abstracts reaction persistence.
type ReactionRepository interface {
	Toggle(ctx context.Context, messageID, userID uuid.UUID, emoji string) (added bool, count int, err error)
}

// ReactionRepo is a sqlx implementation of ReactionRepository.
type ReactionRepo struct {
	db *sqlx.DB
}

// NewReactionRepo constructs a ReactionRepo.
func NewReactionRepo(db *sqlx.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

// Toggle removes the (message, user, emoji) triple if it exists, otherwise
// creates it, and returns the resulting per-emoji count for the message.
// Remove-then-insert runs in one transaction so two racing toggles for the
// same triple serialize on the row rather than double-inserting.
func (r *ReactionRepo) Toggle(ctx context.Context, messageID, userID uuid.UUID, emoji string) (bool, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	added := false
	var removed uuid.UUID
	err = tx.QueryRowxContext(ctx, `DELETE FROM message_reactions WHERE message_id=$1 AND user_id=$2 AND emoji=$3 RETURNING id`,
		messageID, userID, emoji).Scan(&removed)
	if errors.Is(err, sql.ErrNoRows) {
		added = true
		_, err = tx.ExecContext(ctx, `INSERT INTO message_reactions (id, message_id, user_id, emoji) VALUES ($1, $2, $3, $4)`,
			uuid.New(), messageID, userID, emoji)
	}
	if err != nil {
		return false, 0, err
	}

	var count int
	if err = tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM message_reactions WHERE message_id=$1 AND emoji=$2`, messageID, emoji); err != nil {
		return false, 0, err
	}

	if err = tx.Commit(); err != nil {
		return false, 0, err
	}
	return added, count, nil
}
