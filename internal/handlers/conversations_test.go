package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/service"
	"messenger-service/internal/uploads"
)

type handlerMocks struct {
	conversations *mocks.ConversationRepositoryMock
	messages      *mocks.MessageRepositoryMock
	reactions     *mocks.ReactionRepositoryMock
	blocks        *mocks.BlockRepositoryMock
	users         *mocks.UserRepositoryMock
	guard         *mocks.GuardMock
	notifier      *mocks.NotifierMock
	presence      *mocks.PresenceMock
}

func setupRouter(t *testing.T, userID uuid.UUID) (*gin.Engine, *handlerMocks) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := &handlerMocks{
		conversations: new(mocks.ConversationRepositoryMock),
		messages:      new(mocks.MessageRepositoryMock),
		reactions:     new(mocks.ReactionRepositoryMock),
		blocks:        new(mocks.BlockRepositoryMock),
		users:         new(mocks.UserRepositoryMock),
		guard:         new(mocks.GuardMock),
		notifier:      new(mocks.NotifierMock),
		presence:      new(mocks.PresenceMock),
	}
	svc := service.NewConversationService(
		m.conversations, m.messages, m.reactions, m.blocks, m.users,
		m.guard, m.notifier, m.presence, uploads.NewDiskStore(t.TempDir()),
	)
	handler := NewConversationHandler(svc, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.GET("/chats", handler.ListChats)
	r.POST("/chats", handler.CreateChat)
	r.POST("/chats/groups", handler.CreateGroup)
	r.GET("/chats/:chat_id/messages", handler.GetMessages)
	r.POST("/chats/:chat_id/messages", handler.SendMessage)
	r.DELETE("/chats/:chat_id/messages/:message_id", handler.DeleteMessage)
	r.POST("/chats/:chat_id/messages/:message_id/reactions", handler.ToggleReaction)
	r.POST("/chats/:chat_id/read", handler.MarkRead)
	r.POST("/chats/:chat_id/leave", handler.LeaveGroup)
	r.POST("/chats/:chat_id/members", handler.AddMembers)
	r.DELETE("/chats/:chat_id/members/:user_id", handler.KickMember)
	r.DELETE("/chats/:chat_id", handler.DissolveGroup)
	return r, m
}

func directDetail(viewer, other uuid.UUID) models.ConversationDetail {
	return models.ConversationDetail{
		Conversation: models.Conversation{ID: uuid.New(), IsGroup: false},
		Participants: []models.ParticipantDetail{
			{Participant: models.Participant{UserID: viewer, Role: models.RoleMember, LastReadAt: time.Now()}, Username: "viewer"},
			{Participant: models.Participant{UserID: other, Role: models.RoleMember}, Username: "other"},
		},
	}
}

func TestListChats(t *testing.T) {
	userID := uuid.New()
	router, m := setupRouter(t, userID)
	other := uuid.New()
	detail := directDetail(userID, other)

	m.conversations.On("ListDetailsForUser", mock.Anything, userID, mock.Anything).
		Return([]models.ConversationDetail{detail}, nil).Once()
	m.blocks.On("BlockersOf", mock.Anything, userID).Return(nil, nil).Once()
	m.presence.On("IsOnline", other).Return(false)

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var views []models.ChatView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&views))
	require.Len(t, views, 1)
	assert.Equal(t, "other", views[0].Name)
	m.conversations.AssertExpectations(t)
}

func TestCreateChatSelfRejected(t *testing.T) {
	userID := uuid.New()
	router, _ := setupRouter(t, userID)

	body, _ := json.Marshal(gin.H{"participantId": userID})
	req := httptest.NewRequest(http.MethodPost, "/chats", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageBlockedReturnsForbidden(t *testing.T) {
	userID := uuid.New()
	router, m := setupRouter(t, userID)
	detail := directDetail(userID, uuid.New())

	m.conversations.On("GetDetail", mock.Anything, detail.ID, mock.Anything).Return(detail, nil)
	m.guard.On("CanSend", mock.Anything, userID, detail.ParticipantIDs()).Return(service.ErrBlocked)

	body, _ := json.Marshal(gin.H{"text": "hi"})
	req := httptest.NewRequest(http.MethodPost, "/chats/"+detail.ID.String()+"/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	m.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageSuccess(t *testing.T) {
	userID := uuid.New()
	router, m := setupRouter(t, userID)
	detail := directDetail(userID, uuid.New())
	content := "hello"

	m.conversations.On("GetDetail", mock.Anything, detail.ID, mock.Anything).Return(detail, nil)
	m.guard.On("CanSend", mock.Anything, userID, detail.ParticipantIDs()).Return(nil)
	m.messages.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(models.Message{
		ID:             uuid.New(),
		ConversationID: detail.ID,
		SenderID:       &userID,
		Content:        &content,
		Type:           models.MessageTypeText,
		State:          models.MessageStateActive,
		CreatedAt:      time.Now(),
	}, nil)
	m.notifier.On("ToUsers", mock.Anything, mock.Anything).Return()

	body, _ := json.Marshal(gin.H{"text": content})
	req := httptest.NewRequest(http.MethodPost, "/chats/"+detail.ID.String()+"/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var view models.MessageView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, content, *view.Text)
	assert.Equal(t, detail.ID, view.ChatID)
}

func TestSendMessageInvalidChatID(t *testing.T) {
	router, _ := setupRouter(t, uuid.New())

	body, _ := json.Marshal(gin.H{"text": "hi"})
	req := httptest.NewRequest(http.MethodPost, "/chats/not-a-uuid/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMessageNotFound(t *testing.T) {
	userID := uuid.New()
	router, m := setupRouter(t, userID)
	chatID := uuid.New()
	msgID := uuid.New()

	m.messages.On("Get", mock.Anything, msgID).Return(models.Message{}, repositories.ErrMessageNotFound)

	req := httptest.NewRequest(http.MethodDelete, "/chats/"+chatID.String()+"/messages/"+msgID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarkReadSuccess(t *testing.T) {
	userID := uuid.New()
	router, m := setupRouter(t, userID)
	chatID := uuid.New()

	m.conversations.On("GetParticipant", mock.Anything, chatID, userID).
		Return(models.Participant{ConversationID: chatID, UserID: userID}, nil)
	m.conversations.On("AdvanceReadCursor", mock.Anything, chatID, userID, mock.AnythingOfType("time.Time")).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/chats/"+chatID.String()+"/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	m.conversations.AssertExpectations(t)
}

func TestToggleReactionSuccess(t *testing.T) {
	userID := uuid.New()
	router, m := setupRouter(t, userID)
	detail := directDetail(userID, uuid.New())
	msgID := uuid.New()

	m.conversations.On("GetDetail", mock.Anything, detail.ID, mock.Anything).Return(detail, nil)
	m.messages.On("Get", mock.Anything, msgID).Return(models.Message{ID: msgID, ConversationID: detail.ID}, nil)
	m.reactions.On("Toggle", mock.Anything, msgID, userID, "👍").Return(true, 1, nil)
	m.notifier.On("ToUsers", mock.Anything, mock.Anything).Return()

	body, _ := json.Marshal(gin.H{"emoji": "👍"})
	req := httptest.NewRequest(http.MethodPost, "/chats/"+detail.ID.String()+"/messages/"+msgID.String()+"/reactions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var event models.ReactionUpdateEvent
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&event))
	assert.Equal(t, "added", event.Action)
	assert.Equal(t, 1, event.Count)
}

func TestKickMemberForbiddenForNonAdmin(t *testing.T) {
	userID := uuid.New()
	router, m := setupRouter(t, userID)
	target := uuid.New()
	detail := models.ConversationDetail{
		Conversation: models.Conversation{ID: uuid.New(), IsGroup: true},
		Participants: []models.ParticipantDetail{
			{Participant: models.Participant{UserID: userID, Role: models.RoleMember}, Username: "caller"},
			{Participant: models.Participant{UserID: target, Role: models.RoleMember}, Username: "target"},
		},
	}

	m.conversations.On("GetDetail", mock.Anything, detail.ID, mock.Anything).Return(detail, nil)

	req := httptest.NewRequest(http.MethodDelete, "/chats/"+detail.ID.String()+"/members/"+target.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLeaveGroupDirectChatRejected(t *testing.T) {
	userID := uuid.New()
	router, m := setupRouter(t, userID)
	detail := directDetail(userID, uuid.New())

	m.conversations.On("GetDetail", mock.Anything, detail.ID, mock.Anything).Return(detail, nil)

	req := httptest.NewRequest(http.MethodPost, "/chats/"+detail.ID.String()+"/leave", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
