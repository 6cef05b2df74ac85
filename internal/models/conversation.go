package models

import (
	"time"

	"github.com/google/uuid"
)

// Role expresses a participant's role within a conversation.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Conversation is either a direct (two-party) chat or a named group.
type Conversation struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          *string   `db:"name" json:"name,omitempty"`
	IsGroup       bool      `db:"is_group" json:"is_group"`
	LastMessageAt time.Time `db:"last_message_at" json:"last_message_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Participant is the (conversation, user) membership row.
// LastReadAt is the read cursor; messages created strictly after it and not
// sent by the participant count as unread.
type Participant struct {
	ConversationID uuid.UUID `db:"conversation_id" json:"conversation_id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Role           Role      `db:"role" json:"role"`
	JoinedAt       time.Time `db:"joined_at" json:"joined_at"`
	LastReadAt     time.Time `db:"last_read_at" json:"last_read_at"`
}

// ParticipantDetail joins the membership row with the user's public profile.
type ParticipantDetail struct {
	Participant
	Username  string  `db:"username" json:"username"`
	AvatarURL *string `db:"avatar_url" json:"avatar_url"`
}

// Profile returns the participant's public profile.
func (p ParticipantDetail) Profile() UserPublic {
	return UserPublic{ID: p.UserID, Username: p.Username, AvatarURL: p.AvatarURL}
}

// ConversationDetail is a conversation hydrated with its participants and a
// bounded window of recent messages (ascending by creation time). It is the
// read model the view projector works from.
type ConversationDetail struct {
	Conversation
	Participants []ParticipantDetail `json:"participants"`
	Messages     []Message           `json:"messages"`
}

// ParticipantIDs lists the user ids of all participants.
func (d ConversationDetail) ParticipantIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(d.Participants))
	for _, p := range d.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// FindParticipant returns the membership row for userID, if present.
func (d ConversationDetail) FindParticipant(userID uuid.UUID) (ParticipantDetail, bool) {
	for _, p := range d.Participants {
		if p.UserID == userID {
			return p, true
		}
	}
	return ParticipantDetail{}, false
}

// ChatView is the client-facing summary of one conversation, derived for a
// specific viewer.
type ChatView struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Avatar       *string      `json:"avatar,omitempty"`
	IsGroup      bool         `json:"is_group"`
	Participants []UserPublic `json:"participants"`
	LastMessage  string       `json:"last_message"`
	Time         string       `json:"time,omitempty"`
	UnreadCount  int          `json:"unreadCount"`
	IsOnline     bool         `json:"isOnline"`
	IsBlockedBy  bool         `json:"isBlockedBy"`
	Role         Role         `json:"role"`
}
