package models

import "github.com/google/uuid"

// Event type discriminators carried in the "type" field of every payload
// delivered over a live connection.
const (
	EventTypeMessage          = "message"
	EventTypeMessageUpdate    = "message_update"
	EventTypeReactionUpdate   = "reaction_update"
	EventTypeUserStatusChange = "user_status_change"
	EventTypeUserBlockUpdate  = "user_block_update"
	EventTypeGroupEvent       = "group_event"
)

// Group event subtypes.
const (
	GroupEventUserKicked     = "user_kicked"
	GroupEventMemberRemoved  = "member_removed"
	GroupEventAddedToGroup   = "added_to_group"
	GroupEventMemberAdded    = "member_added"
	GroupEventMemberLeft     = "member_left"
	GroupEventGroupDissolved = "group_dissolved"
)

// Event is any payload deliverable over a live connection. EventName returns
// the "type" discriminator for metrics and routing without unmarshalling.
type Event interface {
	EventName() string
}

// MessageEvent announces a newly created message to conversation participants.
type MessageEvent struct {
	Type string `json:"type"`
	MessageView
}

func (MessageEvent) EventName() string         { return EventTypeMessage }
func (MessageUpdateEvent) EventName() string   { return EventTypeMessageUpdate }
func (ReactionUpdateEvent) EventName() string  { return EventTypeReactionUpdate }
func (UserStatusEvent) EventName() string      { return EventTypeUserStatusChange }
func (UserBlockEvent) EventName() string       { return EventTypeUserBlockUpdate }
func (GroupMembershipEvent) EventName() string { return EventTypeGroupEvent }

// MessageUpdateEvent announces that a message became a tombstone.
type MessageUpdateEvent struct {
	Type        string       `json:"type"`
	ID          uuid.UUID    `json:"id"`
	ChatID      uuid.UUID    `json:"chatId"`
	IsRecalled  bool         `json:"isRecalled"`
	Text        *string      `json:"text"`
	Attachments []Attachment `json:"attachments"`
}

// ReactionUpdateEvent carries the result of a reaction toggle, including the
// recomputed per-emoji count.
type ReactionUpdateEvent struct {
	Type      string    `json:"type"`
	MessageID uuid.UUID `json:"messageId"`
	ChatID    uuid.UUID `json:"chatId"`
	Emoji     string    `json:"emoji"`
	Action    string    `json:"action"` // "added" | "removed"
	UserID    uuid.UUID `json:"userId"`
	Count     int       `json:"count"`
}

// UserStatusEvent announces an offline/online transition. Fired once per real
// transition, never once per handle.
type UserStatusEvent struct {
	Type     string    `json:"type"`
	UserID   uuid.UUID `json:"userId"`
	IsOnline bool      `json:"isOnline"`
}

// UserBlockEvent is delivered to exactly the two parties of a block change.
type UserBlockEvent struct {
	Type      string    `json:"type"`
	BlockerID uuid.UUID `json:"blockerId"`
	BlockedID uuid.UUID `json:"blockedId"`
	IsBlocked bool      `json:"isBlocked"`
}

// GroupMembershipEvent covers membership and moderation changes in a group.
// UserID names the subject of the event (the kicked/left/added user); Members
// carries public profiles when recipients need them (member_added).
type GroupMembershipEvent struct {
	Type    string       `json:"type"`
	Event   string       `json:"event"`
	ChatID  uuid.UUID    `json:"chatId"`
	UserID  *uuid.UUID   `json:"userId,omitempty"`
	Members []UserPublic `json:"members,omitempty"`
	Name    string       `json:"name,omitempty"`
}
