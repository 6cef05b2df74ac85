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

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository abstracts message and attachment persistence.
type MessageRepository interface {
	Create(ctx context.Context, msg models.Message, attachments []models.Attachment) (models.Message, error)
	Get(ctx context.Context, messageID uuid.UUID) (models.Message, error)
	ListForConversation(ctx context.Context, conversationID uuid.UUID, search string) ([]models.Message, error)
	Tombstone(ctx context.Context, messageID uuid.UUID) error
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create stores the message with its attachments and advances the owning
// conversation's last-activity timestamp, all in one transaction.
func (r *MessageRepo) Create(ctx context.Context, msg models.Message, attachments []models.Attachment) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.State == "" {
		msg.State = models.MessageStateActive
	}
	err = tx.QueryRowxContext(ctx, `INSERT INTO messages (id, conversation_id, sender_id, content, type, state)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at`, msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.Type, msg.State).
		Scan(&msg.CreatedAt)
	if err != nil {
		return models.Message{}, err
	}

	msg.Attachments = make([]models.Attachment, 0, len(attachments))
	for _, att := range attachments {
		if att.ID == uuid.Nil {
			att.ID = uuid.New()
		}
		att.MessageID = msg.ID
		if _, err = tx.ExecContext(ctx, `INSERT INTO attachments (id, message_id, file_url, file_type, file_name, file_size)
            VALUES ($1, $2, $3, $4, $5, $6)`, att.ID, att.MessageID, att.FileURL, att.FileType, att.FileName, att.FileSize); err != nil {
			return models.Message{}, err
		}
		msg.Attachments = append(msg.Attachments, att)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE conversations SET last_message_at = GREATEST(last_message_at, $2) WHERE id=$1`, msg.ConversationID, msg.CreatedAt); err != nil {
		return models.Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// Get retrieves a single message with its attachments.
func (r *MessageRepo) Get(ctx context.Context, messageID uuid.UUID) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT m.id, m.conversation_id, m.sender_id, m.content, m.type, m.state, m.created_at, COALESCE(u.username, '') AS sender_name
        FROM messages m
        LEFT JOIN users u ON u.id = m.sender_id
        WHERE m.id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}

	msgs := []models.Message{msg}
	if err := attachMessageFiles(ctx, r.db, msgs); err != nil {
		return models.Message{}, err
	}
	return msgs[0], nil
}

// ListForConversation returns the conversation's messages in chronological
// order. A non-empty search filters active messages by content substring.
func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID uuid.UUID, search string) ([]models.Message, error) {
	query := `SELECT m.id, m.conversation_id, m.sender_id, m.content, m.type, m.state, m.created_at, COALESCE(u.username, '') AS sender_name
        FROM messages m
        LEFT JOIN users u ON u.id = m.sender_id
        WHERE m.conversation_id=$1`
	args := []any{conversationID}
	if search != "" {
		query += ` AND m.state = 'active' AND m.content ILIKE $2`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY m.created_at ASC`

	var msgs []models.Message
	if err := r.db.SelectContext(ctx, &msgs, query, args...); err != nil {
		return nil, err
	}
	if err := attachMessageFiles(ctx, r.db, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Tombstone recalls a message: the state flips to tombstoned, content is
// cleared and attachments are dropped, while the row itself survives.
// Tombstoning an already tombstoned message is a no-op.
func (r *MessageRepo) Tombstone(ctx context.Context, messageID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE messages SET state='tombstoned', content=NULL WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM attachments WHERE message_id=$1`, messageID); err != nil {
		return err
	}
	return tx.Commit()
}

// attachMessageFiles loads attachments for a batch of messages in one query.
func attachMessageFiles(ctx context.Context, db sqlx.QueryerContext, msgs []models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(msgs))
	byID := make(map[uuid.UUID]int, len(msgs))
	for i := range msgs {
		msgs[i].Attachments = []models.Attachment{}
		ids = append(ids, msgs[i].ID)
		byID[msgs[i].ID] = i
	}

	var attachments []models.Attachment
	err := sqlx.SelectContext(ctx, db, &attachments, `SELECT id, message_id, file_url, file_type, file_name, file_size, created_at
        FROM attachments WHERE message_id = ANY($1::uuid[]) ORDER BY created_at ASC`, pq.Array(uuidStrings(ids)))
	if err != nil {
		return err
	}
	for _, att := range attachments {
		if i, ok := byID[att.MessageID]; ok {
			msgs[i].Attachments = append(msgs[i].Attachments, att)
		}
	}
	return nil
}
