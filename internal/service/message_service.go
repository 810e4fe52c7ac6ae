package service

import (
	"context"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/repository"
)

// messageServiceImpl implements MessageService interface.
type messageServiceImpl struct {
	messages repository.MessageRepository
	limit    int
}

// NewMessageService creates a history reader returning at most limit
// messages per conversation.
func NewMessageService(messages repository.MessageRepository, limit int) MessageService {
	return &messageServiceImpl{messages: messages, limit: limit}
}

// History returns the conversation between userID and peerID, oldest first.
func (s *messageServiceImpl) History(ctx context.Context, userID, peerID int64) ([]domain.ChatMessage, error) {
	if peerID <= 0 {
		return nil, ErrInvalidPeer
	}
	return s.messages.ListBetween(ctx, userID, peerID, s.limit)
}
