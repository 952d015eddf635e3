package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"chatdesk/internal/errors"
	"chatdesk/internal/metrics"
	"chatdesk/internal/models"
	"chatdesk/internal/normalize"
)

// UnknownUserID is the sentinel owner used when an instance token does not
// resolve to a provisioned user. History is kept rather than dropped.
const UnknownUserID = "unknown"

// UserStore resolves instance tokens to owning users.
type UserStore interface {
	GetUserIDByToken(ctx context.Context, token string) (string, error)
}

// Notifier fans successful upserts out to connected clients.
type Notifier interface {
	NotifyNewMessage(msg *models.Message)
	NotifyChatChanged(chat *models.Chat)
	NotifyMessageChanged(msg *models.Message)
	NotifyReactionsChanged(chatID, messageID string, reactions []models.Reaction)
	NotifyPresence(chatID, userID string, isOnline, isTyping bool)
}

// MediaFetcher downloads and stores attachment bytes for a message event.
// Failures are tolerated; the message row keeps its path convention.
type MediaFetcher interface {
	FetchAndStore(ctx context.Context, ev *models.MessageEvent, msgType models.MessageType) error
}

// Dispatcher classifies inbound webhook envelopes by event type and routes
// them through the chat/message/reaction services.
type Dispatcher struct {
	chats     *ChatService
	messages  *MessageService
	reactions *ReactionService
	users     UserStore
	media     MediaFetcher
	notifier  Notifier
	logger    *logrus.Logger
}

func NewDispatcher(chats *ChatService, messages *MessageService, reactions *ReactionService, users UserStore, media MediaFetcher, notifier Notifier, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		chats:     chats,
		messages:  messages,
		reactions: reactions,
		users:     users,
		media:     media,
		notifier:  notifier,
		logger:    logger,
	}
}

// Dispatch routes one webhook envelope. Processing errors are returned for
// logging only; the webhook endpoint acknowledges receipt regardless.
func (d *Dispatcher) Dispatch(ctx context.Context, env *models.WebhookEnvelope) error {
	metrics.IncrementCounter("webhook_events_total",
		map[string]string{"type": env.Type}, "Webhook events received by type")

	userID := d.resolveUser(ctx, env.InstanceName)

	switch env.Type {
	case models.EventMessage:
		return d.handleMessage(ctx, env.Event, userID)
	case models.EventHistorySync:
		return d.handleHistorySync(ctx, env.Event, userID)
	case models.EventReadReceipt:
		return d.handleReadReceipt(ctx, env.Event)
	case models.EventChatPresence:
		return d.handleChatPresence(ctx, env.Event, userID)
	case models.EventPresence:
		// Reserved, intentionally ignored.
		return nil
	default:
		d.logger.WithField(LogFieldEventType, env.Type).Debug("Ignoring unknown event type")
		return nil
	}
}

func (d *Dispatcher) resolveUser(ctx context.Context, token string) string {
	if token == "" {
		return UnknownUserID
	}
	userID, err := d.users.GetUserIDByToken(ctx, token)
	if err != nil {
		d.logger.WithError(err).WithField(LogFieldInstance, token).
			Warn("Failed to resolve instance token")
		return UnknownUserID
	}
	if userID == "" {
		return UnknownUserID
	}
	return userID
}

func (d *Dispatcher) handleMessage(ctx context.Context, raw json.RawMessage, userID string) error {
	var ev models.MessageEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidPayload, "failed to decode message event")
	}
	if ev.Info.Chat == models.BroadcastStatusJID {
		return nil
	}
	if ev.Content != nil && ev.Content.Reaction != nil {
		return d.handleReaction(ctx, &ev)
	}

	if normalize.HasUpsertableContent(ev.Content) {
		msgType := normalize.ClassifyMessageType(ev.Content)
		if msgType != models.MessageTypeText && d.media != nil {
			if err := d.media.FetchAndStore(ctx, &ev, msgType); err != nil {
				d.logger.WithError(err).WithFields(logrus.Fields{
					LogFieldMessageID: SanitizeMessageID(ev.Info.ID),
					"message_type":    msgType,
					"sender":          SanitizeSender(ev.Info.Sender),
				}).Warn("Media fetch failed, keeping message metadata")
			}
		}
		if err := d.upsertMessagePass(ctx, &ev, normalize.ChatPreview(ev.Content), userID); err != nil {
			return err
		}
	}

	// Extended text runs as an independent second pass. Both passes target
	// the same message id, so the message row converges.
	if ev.Content != nil && ev.Content.ExtendedText != nil && ev.Content.ExtendedText.Text != "" {
		if err := d.upsertMessagePass(ctx, &ev, ev.Content.ExtendedText.Text, userID); err != nil {
			return err
		}
	}
	return nil
}

// upsertMessagePass performs one chat+message upsert round for a live event.
func (d *Dispatcher) upsertMessagePass(ctx context.Context, ev *models.MessageEvent, chatPreview, userID string) error {
	chatID := normalize.ResolveChatID(ev.Info)
	if chatID == "" {
		return nil
	}

	var lastMessageTime int64
	if ts := normalize.NormalizeTimestamp(float64(ev.Info.Timestamp)); ts != nil {
		lastMessageTime = *ts
	}
	contactID := ""
	if !ev.Info.IsFromMe {
		contactID = normalize.LocalPart(ev.Info.Sender)
	}

	chat, err := d.chats.UpsertChat(ctx, ChatUpsertParams{
		ChatID:          chatID,
		LastMessage:     chatPreview,
		LastMessageTime: lastMessageTime,
		UnreadCount:     ev.UnreadCount,
		PushName:        ev.Info.PushName,
		ContactID:       contactID,
		UserID:          userID,
		IsFromMe:        ev.Info.IsFromMe,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseQuery, "chat upsert failed").
			WithContext(LogFieldChatID, SanitizeChatID(chatID))
	}

	msg, err := d.messages.UpsertMessage(ctx, ev, chatID, userID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseQuery, "message upsert failed").
			WithContext(LogFieldMessageID, SanitizeMessageID(ev.Info.ID))
	}

	if d.notifier != nil {
		d.notifier.NotifyChatChanged(chat)
		d.notifier.NotifyNewMessage(msg)
	}
	return nil
}

func (d *Dispatcher) handleReaction(ctx context.Context, ev *models.MessageEvent) error {
	r := ev.Content.Reaction
	if r.Key == nil || r.Key.ID == "" || ev.Info.ID == "" {
		d.logger.Debug("Ignoring reaction without a target message key")
		return nil
	}

	var createdAt int64
	if ts := normalize.NormalizeTimestamp(float64(ev.Info.Timestamp)); ts != nil {
		createdAt = *ts
	}
	reaction := &models.Reaction{
		ID:          ev.Info.ID,
		MessageID:   r.Key.ID,
		Participant: normalize.LocalPart(ev.Info.Sender),
		Emoji:       r.Text,
		CreatedAt:   createdAt,
	}
	reactions, err := d.reactions.UpsertReaction(ctx, reaction)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseQuery, "reaction upsert failed")
	}
	if d.notifier != nil {
		d.notifier.NotifyReactionsChanged(normalize.ResolveChatID(ev.Info), r.Key.ID, reactions)
	}
	return nil
}

func (d *Dispatcher) handleHistorySync(ctx context.Context, raw json.RawMessage, userID string) error {
	var ev models.HistorySyncEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidPayload, "failed to decode history sync event")
	}
	if ev.Data.SyncType != models.HistorySyncTypeRecent {
		d.logger.WithField(LogFieldSyncType, ev.Data.SyncType).Debug("Ignoring history sync type")
		return nil
	}

	var wg sync.WaitGroup
	for _, rawConv := range ev.Data.Conversations {
		var conv models.HistoryConversation
		if err := json.Unmarshal(rawConv, &conv); err != nil {
			d.logger.WithError(err).Warn("Skipping undecodable history conversation")
			continue
		}
		if conv.ID == "" || conv.ID == models.BroadcastStatusJID {
			continue
		}
		wg.Add(1)
		// Conversations proceed independently; one failure must not stall
		// the rest of the batch.
		go func(conv models.HistoryConversation) {
			defer wg.Done()
			if err := d.syncConversation(ctx, &conv, userID); err != nil {
				d.logger.WithError(err).WithFields(logrus.Fields{
					LogFieldChatID: SanitizeChatID(conv.ID),
					LogFieldUserID: userID,
				}).Error("Failed to sync history conversation")
			}
		}(conv)
	}
	wg.Wait()
	return nil
}

func (d *Dispatcher) syncConversation(ctx context.Context, conv *models.HistoryConversation, userID string) error {
	// Newest first; the chat preview is taken from the single most-recent
	// entry so per-message write interleaving cannot change it.
	entries := make([]models.HistoryMessage, len(conv.Messages))
	copy(entries, conv.Messages)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].MsgOrderID > entries[j].MsgOrderID
	})

	chatID := normalize.LocalPart(conv.ID)
	preview := ""
	isFromMe := false
	if len(entries) > 0 {
		if ev := historyEvent(conv.ID, &entries[0]); ev != nil {
			preview = normalize.ChatPreview(ev.Content)
			isFromMe = ev.Info.IsFromMe
		}
	}
	var lastMessageTime int64
	if ts := normalize.NormalizeTimestamp(conv.ConversationTimestamp); ts != nil {
		lastMessageTime = *ts
	}

	chat, err := d.chats.UpsertChat(ctx, ChatUpsertParams{
		ChatID:          chatID,
		LastMessage:     preview,
		LastMessageTime: lastMessageTime,
		UnreadCount:     conv.UnreadCount,
		PushName:        conv.Name,
		UserID:          userID,
		Participants:    normalize.ExtractParticipants(conv.Raw),
		IsFromMe:        isFromMe,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseQuery, "history chat upsert failed").
			WithContext(LogFieldChatID, SanitizeChatID(conv.ID))
	}
	if d.notifier != nil {
		d.notifier.NotifyChatChanged(chat)
	}

	for i := range entries {
		ev := historyEvent(conv.ID, &entries[i])
		if ev == nil {
			continue
		}
		msg, err := d.messages.UpsertMessage(ctx, ev, chatID, userID)
		if err != nil {
			d.logger.WithError(err).WithFields(logrus.Fields{
				LogFieldChatID:    SanitizeChatID(conv.ID),
				LogFieldMessageID: SanitizeMessageID(ev.Info.ID),
			}).Error("Failed to upsert history message")
			continue
		}
		if d.notifier != nil {
			d.notifier.NotifyNewMessage(msg)
		}
	}
	return nil
}

// historyEvent re-synthesizes a history entry into the canonical live event
// shape. Entries lacking both a timestamp and a message key are skipped.
func historyEvent(chatJID string, entry *models.HistoryMessage) *models.MessageEvent {
	item := entry.Message
	if item == nil {
		return nil
	}
	if item.MessageTimestamp == 0 && item.Key == nil {
		return nil
	}

	ev := &models.MessageEvent{
		Info: models.MessageInfo{
			Chat:     chatJID,
			PushName: item.PushName,
		},
	}
	if ts := normalize.NormalizeTimestamp(item.MessageTimestamp); ts != nil {
		ev.Info.Timestamp = *ts
	}
	if item.Key != nil {
		ev.Info.ID = item.Key.ID
		ev.Info.IsFromMe = item.Key.FromMe
		ev.Info.Sender = item.Key.Participant
		if ev.Info.Sender == "" {
			ev.Info.Sender = item.Key.RemoteJID
		}
	}
	if ev.Info.ID == "" {
		return nil
	}
	if len(item.Message) > 0 {
		var content models.MessageContent
		if err := json.Unmarshal(item.Message, &content); err == nil {
			ev.Content = &content
		}
		var raw map[string]interface{}
		if err := json.Unmarshal(item.Message, &raw); err == nil {
			ev.RawContent = raw
		}
	}
	return ev
}

func (d *Dispatcher) handleReadReceipt(ctx context.Context, raw json.RawMessage) error {
	var ev models.ReadReceiptEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidPayload, "failed to decode read receipt event")
	}
	if len(ev.MessageIDs) == 0 {
		return nil
	}
	status := models.ReceiptStatusDelivered
	if ev.Type == string(models.ReceiptStatusRead) {
		status = models.ReceiptStatusRead
	}
	msgs, err := d.reactions.UpdateMessageStatus(ctx, ev.MessageIDs, status)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseQuery, "receipt update failed")
	}
	if d.notifier != nil {
		for i := range msgs {
			d.notifier.NotifyMessageChanged(&msgs[i])
		}
	}
	return nil
}

func (d *Dispatcher) handleChatPresence(ctx context.Context, raw json.RawMessage, userID string) error {
	var ev models.ChatPresenceEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidPayload, "failed to decode chat presence event")
	}
	chatID := normalize.LocalPart(ev.Chat)
	if chatID == "" {
		return nil
	}
	isOnline := ev.State == "available" || ev.State == "online"
	isTyping := ev.State == "composing" || ev.State == "recording"
	if d.notifier != nil {
		d.notifier.NotifyPresence(chatID, userID, isOnline, isTyping)
	}
	return nil
}
