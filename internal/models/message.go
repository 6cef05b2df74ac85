package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageType classifies message content.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeVideo  MessageType = "video"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

// MessageState is the lifecycle tag of a message. A tombstoned message keeps
// its row (id, sender, timestamps, conversation linkage) but has no content
// or attachments and never becomes active again.
type MessageState string

const (
	MessageStateActive     MessageState = "active"
	MessageStateTombstoned MessageState = "tombstoned"
)

// Message is one entry in a conversation's append-only history.
// SenderID is nil for system-generated messages.
type Message struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	ConversationID uuid.UUID    `db:"conversation_id" json:"conversation_id"`
	SenderID       *uuid.UUID   `db:"sender_id" json:"sender_id"`
	Content        *string      `db:"content" json:"content"`
	Type           MessageType  `db:"type" json:"type"`
	State          MessageState `db:"state" json:"state"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`

	// SenderName is populated by the users join, empty for system messages.
	SenderName string `db:"sender_name" json:"sender_name,omitempty"`

	Attachments []Attachment `json:"attachments"`
}

// Tombstoned reports whether the message has been recalled.
func (m Message) Tombstoned() bool {
	return m.State == MessageStateTombstoned
}

// SentBy reports whether userID is the message's sender.
func (m Message) SentBy(userID uuid.UUID) bool {
	return m.SenderID != nil && *m.SenderID == userID
}

// Attachment is a file owned by exactly one message. The row is removed when
// its message is tombstoned.
type Attachment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	MessageID uuid.UUID `db:"message_id" json:"-"`
	FileURL   string    `db:"file_url" json:"fileUrl"`
	FileType  string    `db:"file_type" json:"fileType"`
	FileName  string    `db:"file_name" json:"fileName"`
	FileSize  int64     `db:"file_size" json:"fileSize"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// Reaction is a (message, user, emoji) triple; re-applying the same triple
// toggles it off.
type Reaction struct {
	ID        uuid.UUID `db:"id" json:"id"`
	MessageID uuid.UUID `db:"message_id" json:"message_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Emoji     string    `db:"emoji" json:"emoji"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MessageView is the API/broadcast shape of a message for a given viewer.
type MessageView struct {
	ID          uuid.UUID    `json:"id"`
	ChatID      uuid.UUID    `json:"chatId"`
	SenderID    *uuid.UUID   `json:"senderId"`
	Text        *string      `json:"text"`
	Type        MessageType  `json:"msgType"`
	Time        string       `json:"time"`
	SenderName  string       `json:"senderName"`
	IsIncoming  bool         `json:"isIncoming"`
	IsRecalled  bool         `json:"isRecalled"`
	Attachments []Attachment `json:"attachments"`
}
