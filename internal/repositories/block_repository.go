package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// BlockRepository abstracts block-relationship persistence.
type BlockRepository interface {
	Create(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error)
	Delete(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error)
	AnyBlocking(ctx context.Context, blockerIDs []uuid.UUID, blockedID uuid.UUID) (bool, error)
	BlockersOf(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// BlockRepo is a sqlx implementation of BlockRepository.
type BlockRepo struct {
	db *sqlx.DB
}

// NewBlockRepo constructs a BlockRepo.
func NewBlockRepo(db *sqlx.DB) *BlockRepo {
	return &BlockRepo{db: db}
}

// Create inserts the directed pair; it reports false when the pair already
// existed, making repeated blocks a no-op.
func (r *BlockRepo) Create(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO user_blocks (id, blocker_id, blocked_id) VALUES ($1, $2, $3)
        ON CONFLICT (blocker_id, blocked_id) DO NOTHING`, uuid.New(), blockerID, blockedID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	return count > 0, err
}

// Delete removes the directed pair; it reports false when no pair existed.
func (r *BlockRepo) Delete(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_blocks WHERE blocker_id=$1 AND blocked_id=$2`, blockerID, blockedID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	return count > 0, err
}

// AnyBlocking reports whether any of blockerIDs has blocked blockedID.
func (r *BlockRepo) AnyBlocking(ctx context.Context, blockerIDs []uuid.UUID, blockedID uuid.UUID) (bool, error) {
	if len(blockerIDs) == 0 {
		return false, nil
	}
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM user_blocks WHERE blocker_id = ANY($1::uuid[]) AND blocked_id=$2)`,
		pq.Array(uuidStrings(blockerIDs)), blockedID)
	return exists, err
}

// BlockersOf returns the ids of every user that has blocked userID.
func (r *BlockRepo) BlockersOf(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `SELECT blocker_id FROM user_blocks WHERE blocked_id=$1`, userID)
	return ids, err
}
