package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/uploads"
)

// recentMessageWindow bounds how much history is hydrated for projection.
const recentMessageWindow = 50

// Notifier delivers events to live connections.
type Notifier interface {
	ToUsers(userIDs []uuid.UUID, event models.Event)
	ToUser(userID uuid.UUID, event models.Event)
	ToAllExcept(except uuid.UUID, event models.Event)
}

// Presence answers online checks for projection.
type Presence interface {
	IsOnline(userID uuid.UUID) bool
}

// Guard gates sends on block relationships. It returns ErrBlocked when any
// other participant has blocked the sender.
type Guard interface {
	CanSend(ctx context.Context, sender uuid.UUID, participants []uuid.UUID) error
}

// ConversationService owns conversation, participant, message, and reaction
// state transitions. Every write validates membership and role before
// mutating, and fans resulting events out through the notifier.
type ConversationService struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	reactions     repositories.ReactionRepository
	blocks        repositories.BlockRepository
	users         repositories.UserRepository
	guard         Guard
	notifier      Notifier
	presence      Presence
	store         uploads.Store
}

// NewConversationService wires the service.
func NewConversationService(
	conversations repositories.ConversationRepository,
	messages repositories.MessageRepository,
	reactions repositories.ReactionRepository,
	blocks repositories.BlockRepository,
	users repositories.UserRepository,
	guard Guard,
	notifier Notifier,
	presence Presence,
	store uploads.Store,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		reactions:     reactions,
		blocks:        blocks,
		users:         users,
		guard:         guard,
		notifier:      notifier,
		presence:      presence,
		store:         store,
	}
}

// FindOrCreateDirect resolves the direct conversation between the caller and
// the other user, creating it if absent. Safe to call repeatedly and from
// both sides of the pair.
func (s *ConversationService) FindOrCreateDirect(ctx context.Context, userID, otherID uuid.UUID) (models.ChatView, error) {
	if userID == otherID {
		return models.ChatView{}, invalidArgumentf("cannot open a chat with yourself")
	}
	if _, err := s.users.Get(ctx, otherID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.ChatView{}, notFoundf("user %s not found", otherID)
		}
		return models.ChatView{}, err
	}

	conv, _, err := s.conversations.FindOrCreateDirect(ctx, userID, otherID)
	if err != nil {
		return models.ChatView{}, err
	}
	return s.projectOne(ctx, conv.ID, userID)
}

// CreateGroup creates a named group. The creator always joins as admin;
// duplicate member ids and a re-listed creator are deduplicated.
func (s *ConversationService) CreateGroup(ctx context.Context, creatorID uuid.UUID, name string, memberIDs []uuid.UUID) (models.ChatView, error) {
	if strings.TrimSpace(name) == "" {
		return models.ChatView{}, invalidArgumentf("group name is required")
	}

	members := dedupe(memberIDs, creatorID)
	if len(members) == 0 {
		return models.ChatView{}, invalidArgumentf("a group needs at least one other member")
	}
	found, err := s.users.GetByIDs(ctx, members)
	if err != nil {
		return models.ChatView{}, err
	}
	if len(found) != len(members) {
		return models.ChatView{}, notFoundf("one or more members do not exist")
	}

	conv, err := s.conversations.CreateGroup(ctx, creatorID, name, members)
	if err != nil {
		return models.ChatView{}, err
	}
	return s.projectOne(ctx, conv.ID, creatorID)
}

// SendMessage validates membership and block state, persists the message with
// its attachments, and broadcasts it to all participants. The message type is
// inferred from the attachments.
func (s *ConversationService) SendMessage(ctx context.Context, senderID, conversationID uuid.UUID, text string, files []uploads.File) (models.MessageView, error) {
	detail, err := s.conversations.GetDetail(ctx, conversationID, recentMessageWindow)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return models.MessageView{}, notFoundf("chat not found")
		}
		return models.MessageView{}, err
	}
	sender, ok := detail.FindParticipant(senderID)
	if !ok {
		return models.MessageView{}, forbiddenf("not a participant")
	}
	if err := s.guard.CanSend(ctx, senderID, detail.ParticipantIDs()); err != nil {
		return models.MessageView{}, err
	}
	if strings.TrimSpace(text) == "" && len(files) == 0 {
		return models.MessageView{}, invalidArgumentf("message must have text or attachments")
	}

	attachments, err := s.saveFiles(conversationID, files)
	if err != nil {
		return models.MessageView{}, err
	}

	msg := models.Message{
		ConversationID: conversationID,
		SenderID:       &senderID,
		Type:           inferMessageType(files),
		State:          models.MessageStateActive,
		SenderName:     sender.Username,
	}
	if text != "" {
		msg.Content = &text
	}

	created, err := s.messages.Create(ctx, msg, attachments)
	if err != nil {
		return models.MessageView{}, err
	}
	created.SenderName = sender.Username

	view := ProjectMessage(created, senderID)
	s.notifier.ToUsers(detail.ParticipantIDs(), models.MessageEvent{
		Type:        models.EventTypeMessage,
		MessageView: view,
	})
	return view, nil
}

// DeleteMessage recalls a message: content and attachments are cleared while
// the row survives as a tombstone. Only the original sender may delete, and
// deleting an already-recalled message is a no-op success.
func (s *ConversationService) DeleteMessage(ctx context.Context, requesterID, conversationID, messageID uuid.UUID) error {
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return notFoundf("message not found")
		}
		return err
	}
	if msg.ConversationID != conversationID || !msg.SentBy(requesterID) {
		return notFoundf("message not found or not owned by user")
	}
	if msg.Tombstoned() {
		return nil
	}

	if err := s.messages.Tombstone(ctx, messageID); err != nil {
		return err
	}

	detail, err := s.conversations.GetDetail(ctx, conversationID, 0)
	if err != nil {
		return err
	}
	s.notifier.ToUsers(detail.ParticipantIDs(), models.MessageUpdateEvent{
		Type:        models.EventTypeMessageUpdate,
		ID:          messageID,
		ChatID:      conversationID,
		IsRecalled:  true,
		Text:        nil,
		Attachments: []models.Attachment{},
	})
	return nil
}

// MarkRead advances the caller's read cursor to now. The cursor never moves
// backwards.
func (s *ConversationService) MarkRead(ctx context.Context, userID, conversationID uuid.UUID) error {
	if _, err := s.conversations.GetParticipant(ctx, conversationID, userID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return notFoundf("chat not found or not a participant")
		}
		return err
	}
	return s.conversations.AdvanceReadCursor(ctx, conversationID, userID, time.Now())
}

// LeaveGroup removes the caller from a group and records a system message in
// the history. Direct conversations cannot be left.
func (s *ConversationService) LeaveGroup(ctx context.Context, userID, conversationID uuid.UUID) error {
	detail, err := s.conversations.GetDetail(ctx, conversationID, 0)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return notFoundf("chat not found")
		}
		return err
	}
	if !detail.IsGroup {
		return invalidArgumentf("cannot leave a direct chat")
	}
	leaver, ok := detail.FindParticipant(userID)
	if !ok {
		return notFoundf("not a participant")
	}

	if err := s.conversations.RemoveParticipant(ctx, conversationID, userID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return notFoundf("not a participant")
		}
		return err
	}

	remaining := withoutID(detail.ParticipantIDs(), userID)
	if err := s.postSystemMessage(ctx, conversationID, fmt.Sprintf("%s has left the group", leaver.Username), remaining); err != nil {
		return err
	}
	s.notifier.ToUsers(remaining, models.GroupMembershipEvent{
		Type:   models.EventTypeGroupEvent,
		Event:  models.GroupEventMemberLeft,
		ChatID: conversationID,
		UserID: &userID,
	})
	return nil
}

// KickMember removes a target member from a group. Admin-only; the target
// gets a dedicated removal signal, everyone else a membership update.
func (s *ConversationService) KickMember(ctx context.Context, adminID, conversationID, targetID uuid.UUID) error {
	detail, err := s.conversations.GetDetail(ctx, conversationID, 0)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return notFoundf("chat not found")
		}
		return err
	}
	if !detail.IsGroup {
		return invalidArgumentf("cannot kick from a direct chat")
	}
	admin, err := requireAdmin(detail, adminID)
	if err != nil {
		return err
	}
	if targetID == adminID {
		return invalidArgumentf("cannot kick yourself")
	}
	target, ok := detail.FindParticipant(targetID)
	if !ok {
		return notFoundf("member not found in this group")
	}

	if err := s.conversations.RemoveParticipant(ctx, conversationID, targetID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return notFoundf("member not found in this group")
		}
		return err
	}

	remaining := withoutID(detail.ParticipantIDs(), targetID)
	if err := s.postSystemMessage(ctx, conversationID, fmt.Sprintf("%s removed %s", admin.Username, target.Username), remaining); err != nil {
		return err
	}

	s.notifier.ToUser(targetID, models.GroupMembershipEvent{
		Type:   models.EventTypeGroupEvent,
		Event:  models.GroupEventUserKicked,
		ChatID: conversationID,
		UserID: &targetID,
	})
	s.notifier.ToUsers(remaining, models.GroupMembershipEvent{
		Type:   models.EventTypeGroupEvent,
		Event:  models.GroupEventMemberRemoved,
		ChatID: conversationID,
		UserID: &targetID,
	})
	return nil
}

// DissolveGroup notifies all participants, then removes the conversation with
// its participants and history. Admin-only.
func (s *ConversationService) DissolveGroup(ctx context.Context, adminID, conversationID uuid.UUID) error {
	detail, err := s.conversations.GetDetail(ctx, conversationID, 0)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return notFoundf("chat not found")
		}
		return err
	}
	if !detail.IsGroup {
		return invalidArgumentf("cannot dissolve a direct chat")
	}
	if _, err := requireAdmin(detail, adminID); err != nil {
		return err
	}

	name := "Group Chat"
	if detail.Name != nil && *detail.Name != "" {
		name = *detail.Name
	}
	s.notifier.ToUsers(detail.ParticipantIDs(), models.GroupMembershipEvent{
		Type:   models.EventTypeGroupEvent,
		Event:  models.GroupEventGroupDissolved,
		ChatID: conversationID,
		Name:   name,
	})

	return s.conversations.Delete(ctx, conversationID)
}

// AddMembers adds users to a group, silently skipping ids already present.
// Newly added members and pre-existing members receive differentiated
// signals. Admin-only.
func (s *ConversationService) AddMembers(ctx context.Context, adminID, conversationID uuid.UUID, userIDs []uuid.UUID) error {
	detail, err := s.conversations.GetDetail(ctx, conversationID, 0)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return notFoundf("chat not found")
		}
		return err
	}
	if !detail.IsGroup {
		return invalidArgumentf("cannot add members to a direct chat")
	}
	if _, err := requireAdmin(detail, adminID); err != nil {
		return err
	}

	existing := make(map[uuid.UUID]bool, len(detail.Participants))
	for _, p := range detail.Participants {
		existing[p.UserID] = true
	}
	var newIDs []uuid.UUID
	for _, id := range dedupe(userIDs, uuid.Nil) {
		if !existing[id] {
			newIDs = append(newIDs, id)
		}
	}
	if len(newIDs) == 0 {
		return nil
	}

	added, err := s.users.GetByIDs(ctx, newIDs)
	if err != nil {
		return err
	}
	if len(added) != len(newIDs) {
		return notFoundf("one or more users do not exist")
	}

	if err := s.conversations.AddParticipants(ctx, conversationID, newIDs); err != nil {
		return err
	}

	names := make([]string, 0, len(added))
	profiles := make([]models.UserPublic, 0, len(added))
	for _, u := range added {
		names = append(names, u.Username)
		profiles = append(profiles, u.Public())
	}

	oldIDs := detail.ParticipantIDs()
	if err := s.postSystemMessage(ctx, conversationID, fmt.Sprintf("%s joined the group", strings.Join(names, ", ")), append(append([]uuid.UUID{}, oldIDs...), newIDs...)); err != nil {
		return err
	}

	groupName := "Group Chat"
	if detail.Name != nil && *detail.Name != "" {
		groupName = *detail.Name
	}
	s.notifier.ToUsers(newIDs, models.GroupMembershipEvent{
		Type:   models.EventTypeGroupEvent,
		Event:  models.GroupEventAddedToGroup,
		ChatID: conversationID,
		Name:   groupName,
	})
	s.notifier.ToUsers(oldIDs, models.GroupMembershipEvent{
		Type:    models.EventTypeGroupEvent,
		Event:   models.GroupEventMemberAdded,
		ChatID:  conversationID,
		Members: profiles,
	})
	return nil
}

// ToggleReaction flips the (message, user, emoji) triple and broadcasts the
// recomputed count to all participants.
func (s *ConversationService) ToggleReaction(ctx context.Context, userID, conversationID, messageID uuid.UUID, emoji string) (models.ReactionUpdateEvent, error) {
	if emoji == "" {
		return models.ReactionUpdateEvent{}, invalidArgumentf("emoji is required")
	}
	detail, err := s.conversations.GetDetail(ctx, conversationID, 0)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return models.ReactionUpdateEvent{}, notFoundf("chat not found")
		}
		return models.ReactionUpdateEvent{}, err
	}
	if _, ok := detail.FindParticipant(userID); !ok {
		return models.ReactionUpdateEvent{}, forbiddenf("not a participant")
	}
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.ReactionUpdateEvent{}, notFoundf("message not found")
		}
		return models.ReactionUpdateEvent{}, err
	}
	if msg.ConversationID != conversationID {
		return models.ReactionUpdateEvent{}, notFoundf("message not found")
	}

	added, count, err := s.reactions.Toggle(ctx, messageID, userID, emoji)
	if err != nil {
		return models.ReactionUpdateEvent{}, err
	}

	action := "removed"
	if added {
		action = "added"
	}
	event := models.ReactionUpdateEvent{
		Type:      models.EventTypeReactionUpdate,
		MessageID: messageID,
		ChatID:    conversationID,
		Emoji:     emoji,
		Action:    action,
		UserID:    userID,
		Count:     count,
	}
	s.notifier.ToUsers(detail.ParticipantIDs(), event)
	return event, nil
}

// ListChats projects every conversation the user participates in, most
// recently active first.
func (s *ConversationService) ListChats(ctx context.Context, userID uuid.UUID) ([]models.ChatView, error) {
	details, err := s.conversations.ListDetailsForUser(ctx, userID, recentMessageWindow)
	if err != nil {
		return nil, err
	}
	blockedBy, err := s.blockerSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]models.ChatView, 0, len(details))
	for _, detail := range details {
		views = append(views, ProjectChat(detail, userID, blockedBy, s.presence))
	}
	return views, nil
}

// GetMessages returns the conversation history for a participant, optionally
// filtered by a content substring (tombstones excluded from search results).
func (s *ConversationService) GetMessages(ctx context.Context, userID, conversationID uuid.UUID, search string) ([]models.MessageView, error) {
	detail, err := s.conversations.GetDetail(ctx, conversationID, 0)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return nil, notFoundf("chat not found")
		}
		return nil, err
	}
	if _, ok := detail.FindParticipant(userID); !ok {
		return nil, forbiddenf("not a participant")
	}

	msgs, err := s.messages.ListForConversation(ctx, conversationID, search)
	if err != nil {
		return nil, err
	}
	views := make([]models.MessageView, 0, len(msgs))
	for _, msg := range msgs {
		views = append(views, ProjectMessage(msg, userID))
	}
	return views, nil
}

func (s *ConversationService) projectOne(ctx context.Context, conversationID, viewerID uuid.UUID) (models.ChatView, error) {
	detail, err := s.conversations.GetDetail(ctx, conversationID, recentMessageWindow)
	if err != nil {
		return models.ChatView{}, err
	}
	blockedBy, err := s.blockerSet(ctx, viewerID)
	if err != nil {
		return models.ChatView{}, err
	}
	return ProjectChat(detail, viewerID, blockedBy, s.presence), nil
}

func (s *ConversationService) blockerSet(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	blockers, err := s.blocks.BlockersOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]bool, len(blockers))
	for _, id := range blockers {
		set[id] = true
	}
	return set, nil
}

// postSystemMessage records a sender-less message in the history and
// announces it to the given recipients.
func (s *ConversationService) postSystemMessage(ctx context.Context, conversationID uuid.UUID, content string, recipients []uuid.UUID) error {
	msg := models.Message{
		ConversationID: conversationID,
		Content:        &content,
		Type:           models.MessageTypeSystem,
		State:          models.MessageStateActive,
	}
	created, err := s.messages.Create(ctx, msg, nil)
	if err != nil {
		return err
	}
	s.notifier.ToUsers(recipients, models.MessageEvent{
		Type:        models.EventTypeMessage,
		MessageView: ProjectMessage(created, uuid.Nil),
	})
	return nil
}

func (s *ConversationService) saveFiles(conversationID uuid.UUID, files []uploads.File) ([]models.Attachment, error) {
	if len(files) == 0 {
		return nil, nil
	}
	attachments := make([]models.Attachment, 0, len(files))
	for _, file := range files {
		stored, err := s.store.Save(conversationID, file)
		if err != nil {
			if errors.Is(err, uploads.ErrFileTooLarge) {
				return nil, invalidArgumentf("file %s exceeds the 10MB limit", file.Name)
			}
			return nil, err
		}
		attachments = append(attachments, models.Attachment{
			FileURL:  stored.URL,
			FileType: stored.MIME,
			FileName: stored.Name,
			FileSize: stored.Size,
		})
	}
	return attachments, nil
}

// requireAdmin is the single role gate shared by every admin-only operation.
func requireAdmin(detail models.ConversationDetail, userID uuid.UUID) (models.ParticipantDetail, error) {
	p, ok := detail.FindParticipant(userID)
	if !ok {
		return models.ParticipantDetail{}, forbiddenf("not a participant")
	}
	if p.Role != models.RoleAdmin {
		return models.ParticipantDetail{}, forbiddenf("admin role required")
	}
	return p, nil
}

// inferMessageType classifies a message by its attachments: all images means
// an image message, any other attachment mix means a file message.
func inferMessageType(files []uploads.File) models.MessageType {
	if len(files) == 0 {
		return models.MessageTypeText
	}
	for _, f := range files {
		if !uploads.IsImageMIME(f.ContentType) {
			return models.MessageTypeFile
		}
	}
	return models.MessageTypeImage
}

func dedupe(ids []uuid.UUID, drop uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || id == drop || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func withoutID(ids []uuid.UUID, drop uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
