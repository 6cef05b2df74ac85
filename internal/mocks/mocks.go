package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"messenger-service/internal/models"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) FindOrCreateDirect(ctx context.Context, userA, userB uuid.UUID) (models.Conversation, bool, error) {
	args := m.Called(ctx, userA, userB)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Bool(1), args.Error(2)
}

func (m *ConversationRepositoryMock) CreateGroup(ctx context.Context, creatorID uuid.UUID, name string, memberIDs []uuid.UUID) (models.Conversation, error) {
	args := m.Called(ctx, creatorID, name, memberIDs)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) Get(ctx context.Context, conversationID uuid.UUID) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) GetDetail(ctx context.Context, conversationID uuid.UUID, messageWindow int) (models.ConversationDetail, error) {
	args := m.Called(ctx, conversationID, messageWindow)
	var detail models.ConversationDetail
	if val := args.Get(0); val != nil {
		detail = val.(models.ConversationDetail)
	}
	return detail, args.Error(1)
}

func (m *ConversationRepositoryMock) ListDetailsForUser(ctx context.Context, userID uuid.UUID, messageWindow int) ([]models.ConversationDetail, error) {
	args := m.Called(ctx, userID, messageWindow)
	var details []models.ConversationDetail
	if val := args.Get(0); val != nil {
		details = val.([]models.ConversationDetail)
	}
	return details, args.Error(1)
}

func (m *ConversationRepositoryMock) GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (models.Participant, error) {
	args := m.Called(ctx, conversationID, userID)
	var p models.Participant
	if val := args.Get(0); val != nil {
		p = val.(models.Participant)
	}
	return p, args.Error(1)
}

func (m *ConversationRepositoryMock) AddParticipants(ctx context.Context, conversationID uuid.UUID, userIDs []uuid.UUID) error {
	args := m.Called(ctx, conversationID, userIDs)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) RemoveParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) AdvanceReadCursor(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, conversationID, userID, at)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) Delete(ctx context.Context, conversationID uuid.UUID) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, msg models.Message, attachments []models.Attachment) (models.Message, error) {
	args := m.Called(ctx, msg, attachments)
	var created models.Message
	if val := args.Get(0); val != nil {
		created = val.(models.Message)
	}
	return created, args.Error(1)
}

func (m *MessageRepositoryMock) Get(ctx context.Context, messageID uuid.UUID) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListForConversation(ctx context.Context, conversationID uuid.UUID, search string) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, search)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) Tombstone(ctx context.Context, messageID uuid.UUID) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

type ReactionRepositoryMock struct {
	mock.Mock
}

func (m *ReactionRepositoryMock) Toggle(ctx context.Context, messageID, userID uuid.UUID, emoji string) (bool, int, error) {
	args := m.Called(ctx, messageID, userID, emoji)
	return args.Bool(0), args.Int(1), args.Error(2)
}

type BlockRepositoryMock struct {
	mock.Mock
}

func (m *BlockRepositoryMock) Create(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Bool(0), args.Error(1)
}

func (m *BlockRepositoryMock) Delete(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Bool(0), args.Error(1)
}

func (m *BlockRepositoryMock) AnyBlocking(ctx context.Context, blockerIDs []uuid.UUID, blockedID uuid.UUID) (bool, error) {
	args := m.Called(ctx, blockerIDs, blockedID)
	return args.Bool(0), args.Error(1)
}

func (m *BlockRepositoryMock) BlockersOf(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	var ids []uuid.UUID
	if val := args.Get(0); val != nil {
		ids = val.([]uuid.UUID)
	}
	return ids, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Get(ctx context.Context, userID uuid.UUID) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByIDs(ctx context.Context, userIDs []uuid.UUID) ([]models.User, error) {
	args := m.Called(ctx, userIDs)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) Search(ctx context.Context, selfID uuid.UUID, query string, limit int) ([]models.User, error) {
	args := m.Called(ctx, selfID, query, limit)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) ToUsers(userIDs []uuid.UUID, event models.Event) {
	m.Called(userIDs, event)
}

func (m *NotifierMock) ToUser(userID uuid.UUID, event models.Event) {
	m.Called(userID, event)
}

func (m *NotifierMock) ToAllExcept(except uuid.UUID, event models.Event) {
	m.Called(except, event)
}

type PresenceMock struct {
	mock.Mock
}

func (m *PresenceMock) IsOnline(userID uuid.UUID) bool {
	args := m.Called(userID)
	return args.Bool(0)
}

type GuardMock struct {
	mock.Mock
}

func (m *GuardMock) CanSend(ctx context.Context, sender uuid.UUID, participants []uuid.UUID) error {
	args := m.Called(ctx, sender, participants)
	return args.Error(0)
}
