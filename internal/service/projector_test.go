package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
)

func strptr(s string) *string { return &s }

func directDetail(viewer, other uuid.UUID, lastRead time.Time) models.ConversationDetail {
	return models.ConversationDetail{
		Conversation: models.Conversation{ID: uuid.New(), IsGroup: false},
		Participants: []models.ParticipantDetail{
			{Participant: models.Participant{UserID: viewer, Role: models.RoleMember, LastReadAt: lastRead}, Username: "viewer"},
			{Participant: models.Participant{UserID: other, Role: models.RoleMember}, Username: "other", AvatarURL: strptr("/a.png")},
		},
	}
}

func TestProjectChat_DirectUsesOtherIdentity(t *testing.T) {
	viewer := uuid.New()
	other := uuid.New()
	presence := new(mocks.PresenceMock)
	presence.On("IsOnline", other).Return(true)

	view := ProjectChat(directDetail(viewer, other, time.Now()), viewer, map[uuid.UUID]bool{other: true}, presence)

	assert.Equal(t, "other", view.Name)
	assert.Equal(t, "/a.png", *view.Avatar)
	assert.True(t, view.IsOnline)
	assert.True(t, view.IsBlockedBy)
	assert.Equal(t, models.RoleMember, view.Role)
	assert.Len(t, view.Participants, 2)
}

func TestProjectChat_GroupNameDefaults(t *testing.T) {
	viewer := uuid.New()
	presence := new(mocks.PresenceMock)

	detail := models.ConversationDetail{
		Conversation: models.Conversation{ID: uuid.New(), IsGroup: true},
		Participants: []models.ParticipantDetail{
			{Participant: models.Participant{UserID: viewer, Role: models.RoleAdmin}, Username: "viewer"},
		},
	}
	view := ProjectChat(detail, viewer, nil, presence)
	assert.Equal(t, "Group Chat", view.Name)
	assert.False(t, view.IsOnline)
	assert.Equal(t, models.RoleAdmin, view.Role)

	detail.Name = strptr("Weekend Plans")
	view = ProjectChat(detail, viewer, nil, presence)
	assert.Equal(t, "Weekend Plans", view.Name)
}

func TestProjectChat_UnreadCountsOnlyOthersAfterCursor(t *testing.T) {
	viewer := uuid.New()
	other := uuid.New()
	cursor := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	detail := directDetail(viewer, other, cursor)
	detail.Messages = []models.Message{
		{SenderID: &other, Content: strptr("old"), CreatedAt: cursor.Add(-time.Hour)},
		{SenderID: &other, Content: strptr("hi"), CreatedAt: cursor.Add(time.Hour)},
		{SenderID: &viewer, Content: strptr("mine"), CreatedAt: cursor.Add(2 * time.Hour)},
	}

	presence := new(mocks.PresenceMock)
	presence.On("IsOnline", other).Return(false)

	view := ProjectChat(detail, viewer, nil, presence)
	assert.Equal(t, 1, view.UnreadCount)
	assert.Equal(t, "mine", view.LastMessage)
}

func TestProjectChat_UnreadZeroAfterMarkRead(t *testing.T) {
	viewer := uuid.New()
	other := uuid.New()
	now := time.Now()
	detail := directDetail(viewer, other, now)
	detail.Messages = []models.Message{
		{SenderID: &other, Content: strptr("hi"), CreatedAt: now.Add(-time.Minute)},
	}

	presence := new(mocks.PresenceMock)
	presence.On("IsOnline", other).Return(false)

	view := ProjectChat(detail, viewer, nil, presence)
	assert.Equal(t, 0, view.UnreadCount)
}

func TestPreviewText_Placeholders(t *testing.T) {
	img := models.Message{Attachments: []models.Attachment{{FileType: "image/png"}, {FileType: "image/jpeg"}}}
	assert.Equal(t, "Image", previewText(img))

	mixed := models.Message{Attachments: []models.Attachment{{FileType: "image/png"}, {FileType: "application/pdf"}}}
	assert.Equal(t, "File", previewText(mixed))

	withText := models.Message{Content: strptr("hello"), Attachments: []models.Attachment{{FileType: "image/png"}}}
	assert.Equal(t, "hello", previewText(withText))

	tombstone := models.Message{State: models.MessageStateTombstoned}
	assert.Equal(t, "Attachment", previewText(tombstone))

	typedImage := models.Message{Type: models.MessageTypeImage}
	assert.Equal(t, "Image", previewText(typedImage))
}

func TestProjectMessage_SystemAndViewerPerspective(t *testing.T) {
	viewer := uuid.New()
	sender := uuid.New()
	at := time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)

	system := models.Message{ID: uuid.New(), ConversationID: uuid.New(), Content: strptr("x left"), Type: models.MessageTypeSystem, CreatedAt: at}
	view := ProjectMessage(system, viewer)
	assert.Equal(t, "System", view.SenderName)
	assert.False(t, view.IsIncoming)
	assert.Equal(t, "14:30", view.Time)
	assert.NotNil(t, view.Attachments)

	incoming := models.Message{ID: uuid.New(), SenderID: &sender, SenderName: "alice", CreatedAt: at}
	assert.True(t, ProjectMessage(incoming, viewer).IsIncoming)
	assert.False(t, ProjectMessage(incoming, sender).IsIncoming)
}

func TestProjectMessage_TombstoneIsRecalled(t *testing.T) {
	sender := uuid.New()
	msg := models.Message{ID: uuid.New(), SenderID: &sender, State: models.MessageStateTombstoned}
	view := ProjectMessage(msg, sender)
	assert.True(t, view.IsRecalled)
	assert.Nil(t, view.Text)
}
