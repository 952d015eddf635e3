package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"chatdesk/internal/models"
)

// ReactionStore is the reaction and receipt persistence surface.
type ReactionStore interface {
	SaveReaction(ctx context.Context, reaction *models.Reaction) error
	GetReactionsByMessage(ctx context.Context, messageID string) ([]models.Reaction, error)
	UpdateMessagesStatus(ctx context.Context, ids []string, delivered, read bool) ([]models.Message, error)
}

// ReactionService owns reaction rows and delivery/read receipt application.
type ReactionService struct {
	store  ReactionStore
	logger *logrus.Logger
}

func NewReactionService(store ReactionStore, logger *logrus.Logger) *ReactionService {
	return &ReactionService{store: store, logger: logger}
}

// UpsertReaction stores a reaction, replacing any previous emoji carried
// under the same reaction id, and returns the full reaction set for the
// target message.
func (s *ReactionService) UpsertReaction(ctx context.Context, reaction *models.Reaction) ([]models.Reaction, error) {
	if reaction.ID == "" || reaction.MessageID == "" {
		return nil, fmt.Errorf("reaction upsert requires reaction and message IDs")
	}
	if err := s.store.SaveReaction(ctx, reaction); err != nil {
		return nil, fmt.Errorf("failed to save reaction: %w", err)
	}
	reactions, err := s.store.GetReactionsByMessage(ctx, reaction.MessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reactions: %w", err)
	}
	return reactions, nil
}

// ReactionsForMessage returns all reactions attached to a message.
func (s *ReactionService) ReactionsForMessage(ctx context.Context, messageID string) ([]models.Reaction, error) {
	return s.store.GetReactionsByMessage(ctx, messageID)
}

// UpdateMessageStatus applies a receipt to a batch of messages and returns
// the updated rows. A read receipt implies delivery.
func (s *ReactionService) UpdateMessageStatus(ctx context.Context, ids []string, status models.ReceiptStatus) ([]models.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	read := status == models.ReceiptStatusRead
	msgs, err := s.store.UpdateMessagesStatus(ctx, ids, true, read)
	if err != nil {
		return nil, fmt.Errorf("failed to update message status: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"message_count": len(msgs),
		"status":        status,
	}).Debug("Applied receipt")
	return msgs, nil
}
