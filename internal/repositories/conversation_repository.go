package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrParticipantNotFound  = errors.New("participant not found")
)

// ConversationRepository abstracts conversation and participant persistence.
type ConversationRepository interface {
	FindOrCreateDirect(ctx context.Context, userA, userB uuid.UUID) (models.Conversation, bool, error)
	CreateGroup(ctx context.Context, creatorID uuid.UUID, name string, memberIDs []uuid.UUID) (models.Conversation, error)
	Get(ctx context.Context, conversationID uuid.UUID) (models.Conversation, error)
	GetDetail(ctx context.Context, conversationID uuid.UUID, messageWindow int) (models.ConversationDetail, error)
	ListDetailsForUser(ctx context.Context, userID uuid.UUID, messageWindow int) ([]models.ConversationDetail, error)
	GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (models.Participant, error)
	AddParticipants(ctx context.Context, conversationID uuid.UUID, userIDs []uuid.UUID) error
	RemoveParticipant(ctx context.Context, conversationID, userID uuid.UUID) error
	AdvanceReadCursor(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error
	Delete(ctx context.Context, conversationID uuid.UUID) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// directKey is the canonical identifier for the unordered user pair of a
// direct conversation. The unique index on it is the serialization point
// that makes concurrent creation converge on one row.
func directKey(userA, userB uuid.UUID) string {
	a, b := userA.String(), userB.String()
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// FindOrCreateDirect returns the direct conversation for the pair, creating
// it together with both participant rows in one transaction when absent.
// The second return value reports whether a new conversation was created.
func (r *ConversationRepo) FindOrCreateDirect(ctx context.Context, userA, userB uuid.UUID) (models.Conversation, bool, error) {
	key := directKey(userA, userB)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	created := true
	var conv models.Conversation
	err = tx.QueryRowxContext(ctx, `INSERT INTO conversations (id, is_group, direct_key) VALUES ($1, FALSE, $2)
        ON CONFLICT (direct_key) DO NOTHING
        RETURNING id, name, is_group, last_message_at, created_at`, uuid.New(), key).
		Scan(&conv.ID, &conv.Name, &conv.IsGroup, &conv.LastMessageAt, &conv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Lost the race or the pair already chatted; reuse the winner's row.
		created = false
		err = tx.GetContext(ctx, &conv, `SELECT id, name, is_group, last_message_at, created_at FROM conversations WHERE direct_key=$1`, key)
	}
	if err != nil {
		return models.Conversation{}, false, err
	}

	if created {
		for _, id := range []uuid.UUID{userA, userB} {
			if _, err = tx.ExecContext(ctx, `INSERT INTO conversation_participants (conversation_id, user_id, role) VALUES ($1, $2, 'member')`, conv.ID, id); err != nil {
				return models.Conversation{}, false, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Conversation{}, false, err
	}
	return conv, created, nil
}

// CreateGroup creates a group conversation and its members atomically. The
// creator gets the admin role; memberIDs are deduplicated and the creator's
// own id, if re-listed, is skipped.
func (r *ConversationRepo) CreateGroup(ctx context.Context, creatorID uuid.UUID, name string, memberIDs []uuid.UUID) (models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var conv models.Conversation
	err = tx.QueryRowxContext(ctx, `INSERT INTO conversations (id, name, is_group) VALUES ($1, $2, TRUE)
        RETURNING id, name, is_group, last_message_at, created_at`, uuid.New(), name).
		Scan(&conv.ID, &conv.Name, &conv.IsGroup, &conv.LastMessageAt, &conv.CreatedAt)
	if err != nil {
		return models.Conversation{}, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO conversation_participants (conversation_id, user_id, role) VALUES ($1, $2, 'admin')`, conv.ID, creatorID); err != nil {
		return models.Conversation{}, err
	}

	seen := map[uuid.UUID]struct{}{creatorID: {}}
	for _, id := range memberIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, err = tx.ExecContext(ctx, `INSERT INTO conversation_participants (conversation_id, user_id, role) VALUES ($1, $2, 'member')`, conv.ID, id); err != nil {
			return models.Conversation{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// Get fetches a conversation by id.
func (r *ConversationRepo) Get(ctx context.Context, conversationID uuid.UUID) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT id, name, is_group, last_message_at, created_at FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// GetDetail hydrates a conversation with its participants and the most
// recent messageWindow messages in ascending order.
func (r *ConversationRepo) GetDetail(ctx context.Context, conversationID uuid.UUID, messageWindow int) (models.ConversationDetail, error) {
	conv, err := r.Get(ctx, conversationID)
	if err != nil {
		return models.ConversationDetail{}, err
	}

	detail := models.ConversationDetail{Conversation: conv}
	if err := r.db.SelectContext(ctx, &detail.Participants, `SELECT p.conversation_id, p.user_id, p.role, p.joined_at, p.last_read_at, u.username, u.avatar_url
        FROM conversation_participants p
        INNER JOIN users u ON u.id = p.user_id
        WHERE p.conversation_id=$1
        ORDER BY p.joined_at ASC`, conversationID); err != nil {
		return models.ConversationDetail{}, err
	}

	detail.Messages, err = r.recentMessages(ctx, conversationID, messageWindow)
	if err != nil {
		return models.ConversationDetail{}, err
	}
	return detail, nil
}

// ListDetailsForUser returns hydrated conversations the user participates
// in, ordered by most recent activity.
func (r *ConversationRepo) ListDetailsForUser(ctx context.Context, userID uuid.UUID, messageWindow int) ([]models.ConversationDetail, error) {
	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, `SELECT c.id FROM conversations c
        INNER JOIN conversation_participants p ON p.conversation_id = c.id
        WHERE p.user_id=$1
        ORDER BY c.last_message_at DESC`, userID); err != nil {
		return nil, err
	}

	details := make([]models.ConversationDetail, 0, len(ids))
	for _, id := range ids {
		detail, err := r.GetDetail(ctx, id, messageWindow)
		if err != nil {
			if errors.Is(err, ErrConversationNotFound) {
				continue
			}
			return nil, err
		}
		details = append(details, detail)
	}
	return details, nil
}

// GetParticipant fetches the membership row for (conversation, user).
func (r *ConversationRepo) GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (models.Participant, error) {
	var p models.Participant
	err := r.db.GetContext(ctx, &p, `SELECT conversation_id, user_id, role, joined_at, last_read_at
        FROM conversation_participants WHERE conversation_id=$1 AND user_id=$2`, conversationID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, ErrParticipantNotFound
	}
	return p, err
}

// AddParticipants inserts membership rows, silently skipping users that are
// already members.
func (r *ConversationRepo) AddParticipants(ctx context.Context, conversationID uuid.UUID, userIDs []uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, id := range userIDs {
		if _, err = tx.ExecContext(ctx, `INSERT INTO conversation_participants (conversation_id, user_id, role) VALUES ($1, $2, 'member')
            ON CONFLICT (conversation_id, user_id) DO NOTHING`, conversationID, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RemoveParticipant deletes the membership row.
func (r *ConversationRepo) RemoveParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversation_participants WHERE conversation_id=$1 AND user_id=$2`, conversationID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

// AdvanceReadCursor moves the participant's read cursor to at. The cursor
// only moves forward; a stale timestamp leaves it untouched.
func (r *ConversationRepo) AdvanceReadCursor(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE conversation_participants SET last_read_at = GREATEST(last_read_at, $3)
        WHERE conversation_id=$1 AND user_id=$2`, conversationID, userID, at)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

// Delete removes the conversation; participants, messages, attachments and
// reactions go with it via cascading foreign keys.
func (r *ConversationRepo) Delete(ctx context.Context, conversationID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id=$1`, conversationID)
	return err
}

func (r *ConversationRepo) recentMessages(ctx context.Context, conversationID uuid.UUID, window int) ([]models.Message, error) {
	if window <= 0 {
		window = 50
	}
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, conversation_id, sender_id, content, type, state, created_at, sender_name FROM (
            SELECT m.id, m.conversation_id, m.sender_id, m.content, m.type, m.state, m.created_at, COALESCE(u.username, '') AS sender_name
            FROM messages m
            LEFT JOIN users u ON u.id = m.sender_id
            WHERE m.conversation_id=$1
            ORDER BY m.created_at DESC
            LIMIT $2
        ) recent ORDER BY created_at ASC`, conversationID, window)
	if err != nil {
		return nil, err
	}
	if err := attachMessageFiles(ctx, r.db, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
