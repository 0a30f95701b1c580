package repository

import (
	"context"

	"github.com/00xu00/blog/internal/models"

	"gorm.io/gorm"
)

// MessageRepository defines persistence for direct messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	ListForUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Message, error)
	Conversation(ctx context.Context, userID, otherID uint, limit, offset int) ([]*models.Message, error)
	MarkRead(ctx context.Context, id, receiverID uint) (*models.Message, error)
	UnreadCount(ctx context.Context, receiverID uint) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListForUser returns messages sent or received by userID, newest first.
func (r *messageRepository) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Message, error) {
	var msgs []*models.Message
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error
	return msgs, err
}

// Conversation returns the messages exchanged by two users, oldest first.
func (r *messageRepository) Conversation(ctx context.Context, userID, otherID uint, limit, offset int) ([]*models.Message, error) {
	var msgs []*models.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error
	return msgs, err
}

// MarkRead flags a message as read. Only its receiver may do so; for anyone
// else the message does not exist.
func (r *messageRepository) MarkRead(ctx context.Context, id, receiverID uint) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).Where("id = ? AND receiver_id = ?", id, receiverID).First(&msg).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, err
	}
	if msg.IsRead {
		return &msg, nil
	}
	if err := r.db.WithContext(ctx).Model(&msg).Update("is_read", true).Error; err != nil {
		return nil, err
	}
	msg.IsRead = true
	return &msg, nil
}

func (r *messageRepository) UnreadCount(ctx context.Context, receiverID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&n).Error
	return n, err
}
