package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"chatdesk/internal/models"
	"chatdesk/internal/normalize"
)

// MessageStore is the message persistence surface the upsert logic consumes.
type MessageStore interface {
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	UpdateMessage(ctx context.Context, msg *models.Message) error
	ListMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]models.Message, error)
}

// MessageService owns message row lifecycle. A re-upsert of a known id
// overwrites content and resets delivery state; receipts arriving after
// the rewrite restore it.
type MessageService struct {
	store  MessageStore
	logger *logrus.Logger
}

func NewMessageService(store MessageStore, logger *logrus.Logger) *MessageService {
	return &MessageService{store: store, logger: logger}
}

// UpsertMessage creates or overwrites the message row for ev and returns it.
// chatID is the already-resolved canonical chat identity.
func (s *MessageService) UpsertMessage(ctx context.Context, ev *models.MessageEvent, chatID, userID string) (*models.Message, error) {
	if ev.Info.ID == "" {
		return nil, fmt.Errorf("message upsert requires a message ID")
	}

	msg := &models.Message{
		ID:          ev.Info.ID,
		ChatID:      chatID,
		Message:     normalize.MessagePreview(ev.Content),
		MessageType: normalize.ClassifyMessageType(ev.Content),
		IsFromMe:    ev.Info.IsFromMe,
		IsEdit:      ev.Info.IsEdit,
		UserID:      userID,
	}
	if ts := normalize.NormalizeTimestamp(float64(ev.Info.Timestamp)); ts != nil {
		msg.Timestamp = *ts
	}
	if !ev.Info.IsFromMe {
		msg.ContactID = normalize.LocalPart(ev.Info.Sender)
	}
	if rel := normalize.MediaRelPath(msg.MessageType, msg.ID, documentOf(ev.Content)); rel != "" {
		msg.MediaPath = &rel
	}
	if replyTo := normalize.FindReplyTargetID(ev); replyTo != "" {
		msg.ReplyToMessageID = &replyTo
	}

	existing, err := s.store.GetMessage(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}

	now := time.Now()
	if existing == nil {
		msg.CreatedAt = now
		msg.UpdatedAt = now
		if err := s.store.CreateMessage(ctx, msg); err != nil {
			return nil, fmt.Errorf("failed to create message: %w", err)
		}
		s.logger.WithFields(logrus.Fields{
			LogFieldMessageID: SanitizeMessageID(msg.ID),
			LogFieldChatID:    SanitizeChatID(chatID),
			"message_type":    msg.MessageType,
		}).Debug("Created message")
		return msg, nil
	}

	// Content rewrite drops delivery state; receipts re-assert it.
	msg.IsDelivered = false
	msg.IsRead = false
	msg.CreatedAt = existing.CreatedAt
	msg.UpdatedAt = now
	if err := s.store.UpdateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a page of a chat's messages, newest first.
func (s *MessageService) ListMessages(ctx context.Context, chatID string, limit, offset int) ([]models.Message, error) {
	return s.store.ListMessagesByChat(ctx, chatID, limit, offset)
}

func documentOf(content *models.MessageContent) *models.DocumentMessage {
	if content == nil {
		return nil
	}
	return content.Document
}
