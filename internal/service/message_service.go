package service

import (
	"context"
	"strings"

	"github.com/00xu00/blog/internal/middleware"
	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/notifications"
	"github.com/00xu00/blog/internal/repository"
	"github.com/00xu00/blog/internal/validation"
)

type MessageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	publisher   notifications.Publisher
}

type SendMessageInput struct {
	SenderID   uint
	ReceiverID uint   `json:"receiver_id" validate:"required"`
	Content    string `json:"content" validate:"required,max=5000"`
}

func NewMessageService(messageRepo repository.MessageRepository, userRepo repository.UserRepository, publisher notifications.Publisher) *MessageService {
	return &MessageService{messageRepo: messageRepo, userRepo: userRepo, publisher: publisher}
}

// SendMessage stores the message and pushes it to the receiver's sockets.
// A failed push is logged and does not fail the send.
func (s *MessageService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	in.Content = strings.TrimSpace(in.Content)
	if verr := validation.Struct(in); verr != nil {
		return nil, verr
	}
	if in.ReceiverID == in.SenderID {
		return nil, models.NewValidationError("you cannot message yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, in.ReceiverID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Content:    in.Content,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	s.publish(ctx, in.ReceiverID, notifications.EventMessageNew, msg)
	return msg, nil
}

func (s *MessageService) publish(ctx context.Context, userID uint, eventType string, msg *models.Message) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishUser(ctx, userID, notifications.Event{Type: eventType, Payload: msg})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish message event",
			"event", eventType, "message_id", msg.ID, "user_id", userID, "error", err)
	}
}

func (s *MessageService) ListMessages(ctx context.Context, userID uint, limit, offset int) ([]*models.Message, error) {
	return s.messageRepo.ListForUser(ctx, userID, limit, offset)
}

func (s *MessageService) Conversation(ctx context.Context, userID, otherID uint, limit, offset int) ([]*models.Message, error) {
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return nil, err
	}
	return s.messageRepo.Conversation(ctx, userID, otherID, limit, offset)
}

// MarkRead flags a message as read. Only its receiver may do so; anyone
// else gets NotFound. The sender is told through its sockets.
func (s *MessageService) MarkRead(ctx context.Context, userID, messageID uint) (*models.Message, error) {
	msg, err := s.messageRepo.MarkRead(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, msg.SenderID, notifications.EventMessageRead, msg)
	return msg, nil
}

func (s *MessageService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.messageRepo.UnreadCount(ctx, userID)
}
