package service

import (
	"strings"

	"github.com/google/uuid"

	"messenger-service/internal/models"
)

// Wire timestamps are wall-clock hour:minute, matching what clients render.
const clockFormat = "15:04"

const systemSenderName = "System"

// ProjectChat derives the viewer-facing summary of one conversation. It is a
// pure function of the hydrated detail, the viewer's blocker set, and the
// presence read; it never mutates domain state.
func ProjectChat(detail models.ConversationDetail, viewerID uuid.UUID, blockedBy map[uuid.UUID]bool, presence Presence) models.ChatView {
	view := models.ChatView{
		ID:      detail.ID,
		IsGroup: detail.IsGroup,
		Name:    "Unknown",
	}

	participants := make([]models.UserPublic, 0, len(detail.Participants))
	for _, p := range detail.Participants {
		participants = append(participants, p.Profile())
	}
	view.Participants = participants

	if detail.IsGroup {
		view.Name = "Group Chat"
		if detail.Name != nil && *detail.Name != "" {
			view.Name = *detail.Name
		}
	} else {
		for _, p := range detail.Participants {
			if p.UserID == viewerID {
				continue
			}
			view.Name = p.Username
			view.Avatar = p.AvatarURL
			view.IsOnline = presence.IsOnline(p.UserID)
			view.IsBlockedBy = blockedBy[p.UserID]
			break
		}
	}

	if len(detail.Messages) > 0 {
		last := detail.Messages[len(detail.Messages)-1]
		view.LastMessage = previewText(last)
		view.Time = last.CreatedAt.Format(clockFormat)
	}

	if viewer, ok := detail.FindParticipant(viewerID); ok {
		view.Role = viewer.Role
		for _, msg := range detail.Messages {
			if msg.CreatedAt.After(viewer.LastReadAt) && !msg.SentBy(viewerID) {
				view.UnreadCount++
			}
		}
	}

	return view
}

// previewText renders the chat-list preview for a message: its content when
// present, otherwise a placeholder derived from attachments or type.
func previewText(msg models.Message) string {
	if msg.Content != nil && *msg.Content != "" {
		return *msg.Content
	}
	if len(msg.Attachments) > 0 {
		allImages := true
		for _, att := range msg.Attachments {
			if !strings.HasPrefix(att.FileType, "image/") {
				allImages = false
				break
			}
		}
		if allImages {
			return "Image"
		}
		return "File"
	}
	switch msg.Type {
	case models.MessageTypeImage:
		return "Image"
	case models.MessageTypeFile:
		return "File"
	default:
		return "Attachment"
	}
}

// ProjectMessage maps a message to its wire shape for the given viewer.
func ProjectMessage(msg models.Message, viewerID uuid.UUID) models.MessageView {
	senderName := msg.SenderName
	if msg.SenderID == nil {
		senderName = systemSenderName
	}
	attachments := msg.Attachments
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	return models.MessageView{
		ID:          msg.ID,
		ChatID:      msg.ConversationID,
		SenderID:    msg.SenderID,
		Text:        msg.Content,
		Type:        msg.Type,
		Time:        msg.CreatedAt.Format(clockFormat),
		SenderName:  senderName,
		IsIncoming:  msg.SenderID != nil && *msg.SenderID != viewerID,
		IsRecalled:  msg.Tombstoned(),
		Attachments: attachments,
	}
}
