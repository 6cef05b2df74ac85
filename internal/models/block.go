package models

import (
	"time"

	"github.com/google/uuid"
)

// Block is a directed (blocker, blocked) pair, unique per pair. While it
// exists, the blocked user cannot deliver messages into any conversation the
// blocker participates in.
type Block struct {
	ID        uuid.UUID `db:"id" json:"id"`
	BlockerID uuid.UUID `db:"blocker_id" json:"blocker_id"`
	BlockedID uuid.UUID `db:"blocked_id" json:"blocked_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
