package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/cache"
	"github.com/Mel4sa/WORKNEST-sub000/metrics"
	"github.com/Mel4sa/WORKNEST-sub000/models"
	"github.com/Mel4sa/WORKNEST-sub000/repositories"
	"github.com/Mel4sa/WORKNEST-sub000/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatService struct {
	Chats         repositories.ChatRepository
	Messages      repositories.MessageRepository
	Users         repositories.UserRepository
	Notifications *NotificationService
	Unread        *cache.UnreadCache
	now           func() time.Time
}

func NewChatService(
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	notifications *NotificationService,
	unread *cache.UnreadCache,
) *ChatService {
	return &ChatService{
		Chats:         chats,
		Messages:      messages,
		Users:         users,
		Notifications: notifications,
		Unread:        unread,
		now:           time.Now,
	}
}

type SendMessageInput struct {
	Content     string `json:"content" validate:"required,max=2000"`
	MessageType string `json:"messageType" validate:"omitempty,oneof=text image file"`
}

type EditMessageInput struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type MessagePage struct {
	Messages   []models.Message  `json:"messages"`
	Pagination models.Pagination `json:"pagination"`
}

// GetOrCreate returns the single chat between caller and other, creating it on first use.
func (s *ChatService) GetOrCreate(ctx context.Context, callerID primitive.ObjectID, otherRaw string) (*models.ChatView, error) {
	otherID, err := parseID(otherRaw, "user id")
	if err != nil {
		return nil, err
	}
	if otherID == callerID {
		return nil, newError(ErrValidation, "you cannot start a chat with yourself")
	}
	other, err := s.Users.FindByID(ctx, otherID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "user not found")
		}
		return nil, err
	}

	chat, err := s.Chats.FindOrCreate(ctx, callerID, otherID, s.now())
	if err != nil {
		return nil, err
	}
	summary := other.Summary()
	view := &models.ChatView{Chat: *chat, OtherUser: &summary}
	if err := s.decorate(ctx, view, callerID); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *ChatService) decorate(ctx context.Context, view *models.ChatView, callerID primitive.ObjectID) error {
	if view.LastMessage != nil {
		if last, err := s.Messages.FindByID(ctx, *view.LastMessage); err == nil {
			view.LastMessageDetails = last
		}
	}
	unread, err := s.Messages.CountUnread(ctx, []primitive.ObjectID{view.ID}, callerID)
	if err != nil {
		return err
	}
	view.UnreadCount = unread
	return nil
}

func (s *ChatService) List(ctx context.Context, callerID primitive.ObjectID) ([]models.ChatView, error) {
	chats, err := s.Chats.ListByParticipant(ctx, callerID)
	if err != nil {
		return nil, err
	}

	otherIDs := make([]primitive.ObjectID, 0, len(chats))
	for i := range chats {
		otherIDs = append(otherIDs, chats[i].Other(callerID))
	}
	users, err := s.Users.FindByIDs(ctx, otherIDs)
	if err != nil {
		return nil, err
	}
	summaries := make(map[primitive.ObjectID]models.UserSummary, len(users))
	for _, u := range users {
		summaries[u.ID] = u.Summary()
	}

	views := make([]models.ChatView, 0, len(chats))
	for _, chat := range chats {
		view := models.ChatView{Chat: chat}
		if u, ok := summaries[chat.Other(callerID)]; ok {
			view.OtherUser = &u
		}
		if err := s.decorate(ctx, &view, callerID); err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// participantChat hides chats the caller is not part of behind NotFound.
func (s *ChatService) participantChat(ctx context.Context, chatID, callerID primitive.ObjectID) (*models.Chat, error) {
	chat, err := s.Chats.FindByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "chat not found")
		}
		return nil, err
	}
	if !chat.HasParticipant(callerID) {
		return nil, newError(ErrNotFound, "chat not found")
	}
	return chat, nil
}

// History pages newest first and returns each page in chronological order.
func (s *ChatService) History(ctx context.Context, callerID, chatID primitive.ObjectID, page, limit int) (*MessagePage, error) {
	if _, err := s.participantChat(ctx, chatID, callerID); err != nil {
		return nil, err
	}
	page, limit = models.NormalizePage(page, limit)
	messages, total, err := s.Messages.ListByChat(ctx, chatID, page, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return &MessagePage{Messages: messages, Pagination: models.NewPagination(page, limit, total)}, nil
}

func (s *ChatService) Send(ctx context.Context, callerID, chatID primitive.ObjectID, in SendMessageInput) (*models.Message, error) {
	chat, err := s.participantChat(ctx, chatID, callerID)
	if err != nil {
		return nil, err
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationErr(err)
	}
	messageType := models.MessageText
	if in.MessageType != "" {
		messageType = models.MessageType(in.MessageType)
	}

	now := s.now()
	message := &models.Message{
		Chat:        chatID,
		Sender:      callerID,
		Content:     in.Content,
		MessageType: messageType,
		ReadBy:      []primitive.ObjectID{},
		CreatedAt:   now,
	}
	if err := s.Messages.Create(ctx, message); err != nil {
		return nil, err
	}
	if err := s.Chats.Touch(ctx, chatID, message.ID, now); err != nil {
		return nil, err
	}
	metrics.MessagesSent.Inc()

	recipient := chat.Other(callerID)
	s.Unread.Invalidate(recipient)
	preview := message.Content
	if messageType != models.MessageText {
		preview = "sent you a " + string(messageType)
	}
	s.Notifications.Notify(ctx, CreateNotificationInput{
		UserID:      recipient,
		Type:        models.NotifNewMessage,
		Title:       "New message",
		Message:     fmt.Sprintf("%s: %s", s.senderName(ctx, callerID), truncate(preview, 200)),
		RelatedUser: &callerID,
	})
	return message, nil
}

func (s *ChatService) ownMessage(ctx context.Context, callerID, messageID primitive.ObjectID, action string) (*models.Message, error) {
	message, err := s.Messages.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "message not found")
		}
		return nil, err
	}
	if message.Sender != callerID {
		return nil, newError(ErrForbidden, "you can only %s your own messages", action)
	}
	return message, nil
}

// Edit keeps the first original content across repeated edits.
func (s *ChatService) Edit(ctx context.Context, callerID, messageID primitive.ObjectID, in EditMessageInput) (*models.Message, error) {
	message, err := s.ownMessage(ctx, callerID, messageID, "edit")
	if err != nil {
		return nil, err
	}
	now := s.now()
	if now.Sub(message.CreatedAt) > models.MessageEditWindow {
		return nil, newError(ErrInvalidState, "edit window expired")
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationErr(err)
	}

	original := message.Content
	if message.Edited.IsEdited {
		original = message.Edited.OriginalContent
	}
	return s.Messages.UpdateContent(ctx, messageID, in.Content, models.EditInfo{
		IsEdited:        true,
		EditedAt:        &now,
		OriginalContent: original,
	})
}

// Delete removes a message younger than 24 hours. If it was the chat's last
// message, lastMessage falls back to the newest remaining one or null.
func (s *ChatService) Delete(ctx context.Context, callerID, messageID primitive.ObjectID) error {
	message, err := s.ownMessage(ctx, callerID, messageID, "delete")
	if err != nil {
		return err
	}
	if s.now().Sub(message.CreatedAt) > models.MessageDeleteTTL {
		return newError(ErrInvalidState, "cannot delete message older than 24 hours")
	}
	if err := s.Messages.Delete(ctx, messageID); err != nil {
		return err
	}

	chat, err := s.Chats.FindByID(ctx, message.Chat)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return err
	}
	s.Unread.Invalidate(chat.Other(callerID))
	if chat.LastMessage == nil || *chat.LastMessage != messageID {
		return nil
	}

	latest, err := s.Messages.Latest(ctx, chat.ID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return s.Chats.SetLastMessage(ctx, chat.ID, nil)
	case err != nil:
		return err
	default:
		return s.Chats.SetLastMessage(ctx, chat.ID, &latest.ID)
	}
}

func (s *ChatService) MarkRead(ctx context.Context, callerID, chatID primitive.ObjectID) (int64, error) {
	if _, err := s.participantChat(ctx, chatID, callerID); err != nil {
		return 0, err
	}
	modified, err := s.Messages.MarkChatRead(ctx, chatID, callerID)
	if err != nil {
		return 0, err
	}
	s.Unread.Invalidate(callerID)
	return modified, nil
}

// UnreadCount totals unread messages addressed to the caller across all chats.
func (s *ChatService) UnreadCount(ctx context.Context, callerID primitive.ObjectID) (int64, error) {
	if count, ok := s.Unread.Get(callerID); ok {
		return count, nil
	}
	chats, err := s.Chats.ListByParticipant(ctx, callerID)
	if err != nil {
		return 0, err
	}
	ids := make([]primitive.ObjectID, 0, len(chats))
	for _, c := range chats {
		ids = append(ids, c.ID)
	}
	count, err := s.Messages.CountUnread(ctx, ids, callerID)
	if err != nil {
		return 0, err
	}
	s.Unread.Set(callerID, count)
	return count, nil
}

func (s *ChatService) senderName(ctx context.Context, userID primitive.ObjectID) string {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil || user.Fullname == "" {
		return "Someone"
	}
	return user.Fullname
}
