package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"chatdesk/internal/models"
)

// ChatStore is the chat persistence surface the upsert logic consumes.
type ChatStore interface {
	GetChat(ctx context.Context, chatID string) (*models.Chat, error)
	CreateChat(ctx context.Context, chat *models.Chat) error
	UpdateChat(ctx context.Context, chat *models.Chat) error
	ListChats(ctx context.Context, limit, offset int) ([]models.Chat, error)
}

// ChatUpsertParams carries everything a single inbound event contributes
// to a chat row. Zero values mean "no opinion": empty strings and nil
// pointers leave the stored value alone.
type ChatUpsertParams struct {
	ChatID          string
	LastMessage     string
	LastMessageTime int64
	// UnreadCount, when set, wins over the increment heuristic.
	UnreadCount  *int
	PushName     string
	ContactID    string
	UserID       string
	Status       models.ChatStatus
	Participants []models.Participant
	IsFromMe     bool
}

// ChatService owns chat row lifecycle: create-or-update with the
// unread-count, push-name, participant and status merge policies.
type ChatService struct {
	store  ChatStore
	logger *logrus.Logger
}

func NewChatService(store ChatStore, logger *logrus.Logger) *ChatService {
	return &ChatService{store: store, logger: logger}
}

// UpsertChat creates or updates the chat row identified by params.ChatID
// and returns the resulting row.
func (s *ChatService) UpsertChat(ctx context.Context, params ChatUpsertParams) (*models.Chat, error) {
	if params.ChatID == "" {
		return nil, fmt.Errorf("chat upsert requires a chat ID")
	}

	existing, err := s.store.GetChat(ctx, params.ChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	now := time.Now()

	if existing == nil {
		chat := &models.Chat{
			ID:              params.ChatID,
			LastMessage:     params.LastMessage,
			LastMessageTime: params.LastMessageTime,
			ContactID:       params.ContactID,
			UserID:          params.UserID,
			Participants:    params.Participants,
			Status:          models.ChatStatusOpen,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if params.Status != "" {
			chat.Status = params.Status
		}
		switch {
		case params.UnreadCount != nil:
			chat.UnreadCount = *params.UnreadCount
		case !params.IsFromMe:
			chat.UnreadCount = 1
		}
		if params.PushName != "" && !params.IsFromMe {
			chat.PushName = params.PushName
		}
		if err := s.store.CreateChat(ctx, chat); err != nil {
			return nil, fmt.Errorf("failed to create chat: %w", err)
		}
		s.logger.WithFields(logrus.Fields{
			LogFieldChatID: SanitizeChatID(chat.ID),
			"unread_count": chat.UnreadCount,
		}).Debug("Created chat")
		return chat, nil
	}

	existing.LastMessage = params.LastMessage
	existing.LastMessageTime = params.LastMessageTime
	existing.UpdatedAt = now

	switch {
	case params.UnreadCount != nil:
		existing.UnreadCount = *params.UnreadCount
	case !params.IsFromMe:
		existing.UnreadCount++
	}
	if params.PushName != "" && !params.IsFromMe {
		existing.PushName = params.PushName
	}
	if len(params.Participants) > 0 {
		existing.Participants = params.Participants
	}
	if params.ContactID != "" {
		existing.ContactID = params.ContactID
	}
	if params.UserID != "" {
		existing.UserID = params.UserID
	}
	if params.Status != "" {
		existing.Status = params.Status
	}

	if err := s.store.UpdateChat(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update chat: %w", err)
	}
	return existing, nil
}

// SetChatStatus updates only the workflow status of an existing chat.
func (s *ChatService) SetChatStatus(ctx context.Context, chatID string, status models.ChatStatus) (*models.Chat, error) {
	if !models.ValidChatStatus(status) {
		return nil, fmt.Errorf("invalid chat status: %s", status)
	}
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}
	if chat == nil {
		return nil, nil
	}
	chat.Status = status
	chat.UpdatedAt = time.Now()
	if err := s.store.UpdateChat(ctx, chat); err != nil {
		return nil, fmt.Errorf("failed to update chat status: %w", err)
	}
	return chat, nil
}

// ListChats returns chats ordered by most recent activity.
func (s *ChatService) ListChats(ctx context.Context, limit, offset int) ([]models.Chat, error) {
	return s.store.ListChats(ctx, limit, offset)
}
