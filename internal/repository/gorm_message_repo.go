package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
)

const defaultHistoryLimit = 200

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create persists a chat message as a single insert.
func (r *GormMessageRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	model := domain.MessageToModel(msg)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}

	msg.ID = model.ID
	msg.CreatedAt = model.CreatedAt
	return nil
}

// ListBetween returns the latest limit messages exchanged by two users,
// oldest first.
func (r *GormMessageRepository) ListBetween(ctx context.Context, userA, userB int64, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var models []domain.MessageModel
	err := r.db.WithContext(ctx).
		Model(&domain.MessageModel{}).
		Select("messages.*, users.name AS sender_name").
		Joins("LEFT JOIN users ON users.id = messages.sender_id").
		Where("(messages.sender_id = ? AND messages.receiver_id = ?) OR (messages.sender_id = ? AND messages.receiver_id = ?)",
			userA, userB, userB, userA).
		Order("messages.id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	msgs := make([]domain.ChatMessage, len(models))
	for i, model := range models {
		msgs[len(models)-1-i] = *model.ToDomain()
	}
	return msgs, nil
}
