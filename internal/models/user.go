package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an identity row. Credential issuance lives in a separate service;
// this service only reads profile fields.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UserPublic is the profile shape exposed to other users.
type UserPublic struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url"`
}

// Public strips private fields.
func (u User) Public() UserPublic {
	return UserPublic{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
}
