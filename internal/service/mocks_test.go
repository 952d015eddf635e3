package service

import (
	"context"
	"fmt"
	"sync"

	"chatdesk/internal/models"
)

// mockStore is an in-memory implementation of the storage surfaces the
// services consume. Errors can be injected per operation name.
type mockStore struct {
	mu        sync.Mutex
	chats     map[string]*models.Chat
	messages  map[string]*models.Message
	reactions map[string]*models.Reaction
	tokens    map[string]string

	failOn map[string]error

	createChatCalls    int
	updateChatCalls    int
	createMessageCalls int
	updateMessageCalls int
	messageUpsertOrder []string
}

func newMockStore() *mockStore {
	return &mockStore{
		chats:     make(map[string]*models.Chat),
		messages:  make(map[string]*models.Message),
		reactions: make(map[string]*models.Reaction),
		tokens:    make(map[string]string),
		failOn:    make(map[string]error),
	}
}

func (m *mockStore) err(op string) error {
	return m.failOn[op]
}

func (m *mockStore) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("GetChat"); err != nil {
		return nil, err
	}
	chat, ok := m.chats[chatID]
	if !ok {
		return nil, nil
	}
	cp := *chat
	return &cp, nil
}

func (m *mockStore) CreateChat(ctx context.Context, chat *models.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("CreateChat"); err != nil {
		return err
	}
	m.createChatCalls++
	cp := *chat
	m.chats[chat.ID] = &cp
	return nil
}

func (m *mockStore) UpdateChat(ctx context.Context, chat *models.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("UpdateChat"); err != nil {
		return err
	}
	if _, ok := m.chats[chat.ID]; !ok {
		return fmt.Errorf("chat not found: %s", chat.ID)
	}
	m.updateChatCalls++
	cp := *chat
	m.chats[chat.ID] = &cp
	return nil
}

func (m *mockStore) ListChats(ctx context.Context, limit, offset int) ([]models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("ListChats"); err != nil {
		return nil, err
	}
	var out []models.Chat
	for _, chat := range m.chats {
		out = append(out, *chat)
	}
	return out, nil
}

func (m *mockStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("GetMessage"); err != nil {
		return nil, err
	}
	msg, ok := m.messages[id]
	if !ok {
		return nil, nil
	}
	cp := *msg
	return &cp, nil
}

func (m *mockStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("CreateMessage"); err != nil {
		return err
	}
	m.createMessageCalls++
	m.messageUpsertOrder = append(m.messageUpsertOrder, msg.ID)
	cp := *msg
	m.messages[msg.ID] = &cp
	return nil
}

func (m *mockStore) UpdateMessage(ctx context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("UpdateMessage"); err != nil {
		return err
	}
	m.updateMessageCalls++
	m.messageUpsertOrder = append(m.messageUpsertOrder, msg.ID)
	cp := *msg
	m.messages[msg.ID] = &cp
	return nil
}

func (m *mockStore) ListMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for _, msg := range m.messages {
		if msg.ChatID == chatID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m *mockStore) SaveReaction(ctx context.Context, reaction *models.Reaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("SaveReaction"); err != nil {
		return err
	}
	cp := *reaction
	m.reactions[reaction.ID] = &cp
	return nil
}

func (m *mockStore) GetReactionsByMessage(ctx context.Context, messageID string) ([]models.Reaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("GetReactionsByMessage"); err != nil {
		return nil, err
	}
	var out []models.Reaction
	for _, r := range m.reactions {
		if r.MessageID == messageID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateMessagesStatus(ctx context.Context, ids []string, delivered, read bool) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("UpdateMessagesStatus"); err != nil {
		return nil, err
	}
	var out []models.Message
	for _, id := range ids {
		msg, ok := m.messages[id]
		if !ok {
			continue
		}
		if delivered {
			msg.IsDelivered = true
		}
		if read {
			msg.IsRead = true
		}
		out = append(out, *msg)
	}
	return out, nil
}

func (m *mockStore) GetUserIDByToken(ctx context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("GetUserIDByToken"); err != nil {
		return "", err
	}
	return m.tokens[token], nil
}

// mockNotifier records fan-out calls in order.
type mockNotifier struct {
	mu              sync.Mutex
	newMessages     []*models.Message
	changedChats    []*models.Chat
	changedMessages []*models.Message
	reactionUpdates []string
	presenceUpdates []string
}

func (n *mockNotifier) NotifyNewMessage(msg *models.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.newMessages = append(n.newMessages, msg)
}

func (n *mockNotifier) NotifyChatChanged(chat *models.Chat) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changedChats = append(n.changedChats, chat)
}

func (n *mockNotifier) NotifyMessageChanged(msg *models.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changedMessages = append(n.changedMessages, msg)
}

func (n *mockNotifier) NotifyReactionsChanged(chatID, messageID string, reactions []models.Reaction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reactionUpdates = append(n.reactionUpdates, fmt.Sprintf("%s/%s/%d", chatID, messageID, len(reactions)))
}

func (n *mockNotifier) NotifyPresence(chatID, userID string, isOnline, isTyping bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.presenceUpdates = append(n.presenceUpdates, fmt.Sprintf("%s/%s/%t/%t", chatID, userID, isOnline, isTyping))
}

// mockMediaFetcher records fetch requests and can fail on demand.
type mockMediaFetcher struct {
	mu      sync.Mutex
	fetched []string
	fail    error
}

func (f *mockMediaFetcher) FetchAndStore(ctx context.Context, ev *models.MessageEvent, msgType models.MessageType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, fmt.Sprintf("%s/%s", ev.Info.ID, msgType))
	return f.fail
}
