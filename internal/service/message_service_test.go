package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdesk/internal/models"
)

func messageEvent(t *testing.T, payload string) *models.MessageEvent {
	t.Helper()
	var ev models.MessageEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &ev))
	return &ev
}

func TestUpsertMessageCreate(t *testing.T) {
	store := newMockStore()
	svc := NewMessageService(store, testLogger())

	ev := messageEvent(t, `{
		"Info": {"Chat": "111@s.whatsapp.net", "Sender": "111:3@s.whatsapp.net",
		          "ID": "msg-1", "Timestamp": 1700000000, "IsFromMe": false, "PushName": "Alice"},
		"Message": {"conversation": "hello there"}
	}`)

	msg, err := svc.UpsertMessage(context.Background(), ev, "111", "agent-1")
	require.NoError(t, err)
	require.NotNil(t, msg)

	assert.Equal(t, "msg-1", msg.ID)
	assert.Equal(t, "111", msg.ChatID)
	assert.Equal(t, "hello there", msg.Message)
	assert.Equal(t, models.MessageTypeText, msg.MessageType)
	assert.Equal(t, int64(1700000000000), msg.Timestamp, "seconds-scale timestamp converted to ms")
	assert.Equal(t, "111", msg.ContactID, "contact derived from sender local-part")
	assert.Equal(t, "agent-1", msg.UserID)
	assert.False(t, msg.IsDelivered)
	assert.False(t, msg.IsRead)
	assert.Nil(t, msg.MediaPath)
	assert.Nil(t, msg.ReplyToMessageID)
}

func TestUpsertMessageOutboundHasNoContact(t *testing.T) {
	store := newMockStore()
	svc := NewMessageService(store, testLogger())

	ev := messageEvent(t, `{
		"Info": {"Chat": "111@s.whatsapp.net", "Sender": "me@s.whatsapp.net",
		          "ID": "msg-2", "Timestamp": 1700000000, "IsFromMe": true},
		"Message": {"conversation": "outbound"}
	}`)

	msg, err := svc.UpsertMessage(context.Background(), ev, "111", "agent-1")
	require.NoError(t, err)
	assert.Empty(t, msg.ContactID)
	assert.True(t, msg.IsFromMe)
}

func TestUpsertMessageMediaPath(t *testing.T) {
	store := newMockStore()
	svc := NewMessageService(store, testLogger())

	ev := messageEvent(t, `{
		"Info": {"Chat": "111@s.whatsapp.net", "Sender": "111@s.whatsapp.net",
		          "ID": "msg-3", "Timestamp": 1700000000},
		"Message": {"imageMessage": {"mimetype": "image/jpeg"}}
	}`)

	msg, err := svc.UpsertMessage(context.Background(), ev, "111", "")
	require.NoError(t, err)
	assert.Equal(t, models.MessageTypeImage, msg.MessageType)
	require.NotNil(t, msg.MediaPath)
	assert.Equal(t, "imgs/msg-3.jpeg", *msg.MediaPath)
}

func TestUpsertMessageReplyTarget(t *testing.T) {
	store := newMockStore()
	svc := NewMessageService(store, testLogger())

	ev := messageEvent(t, `{
		"Info": {"Chat": "111@s.whatsapp.net", "Sender": "111@s.whatsapp.net",
		          "ID": "msg-4", "Timestamp": 1700000000},
		"Message": {"extendedTextMessage": {"text": "replying", "contextInfo": {"stanzaId": "msg-1"}}}
	}`)

	msg, err := svc.UpsertMessage(context.Background(), ev, "111", "")
	require.NoError(t, err)
	require.NotNil(t, msg.ReplyToMessageID)
	assert.Equal(t, "msg-1", *msg.ReplyToMessageID)
}

func TestUpsertMessageIdempotentWithReset(t *testing.T) {
	store := newMockStore()
	svc := NewMessageService(store, testLogger())

	ev := messageEvent(t, `{
		"Info": {"Chat": "111@s.whatsapp.net", "Sender": "111@s.whatsapp.net",
		          "ID": "msg-5", "Timestamp": 1700000000, "IsFromMe": false},
		"Message": {"conversation": "same event"}
	}`)

	first, err := svc.UpsertMessage(context.Background(), ev, "111", "")
	require.NoError(t, err)

	// Simulate a receipt landing between deliveries.
	stored := store.messages["msg-5"]
	stored.IsDelivered = true
	stored.IsRead = true

	second, err := svc.UpsertMessage(context.Background(), ev, "111", "")
	require.NoError(t, err)

	assert.Equal(t, 1, store.createMessageCalls, "duplicate delivery must not create a second row")
	assert.Equal(t, 1, store.updateMessageCalls)
	assert.Equal(t, first.Message, second.Message)
	assert.False(t, second.IsDelivered, "re-upsert resets delivery state")
	assert.False(t, second.IsRead, "re-upsert resets read state")
	assert.False(t, store.messages["msg-5"].IsDelivered)
	assert.False(t, store.messages["msg-5"].IsRead)
}

func TestUpsertMessageRequiresID(t *testing.T) {
	svc := NewMessageService(newMockStore(), testLogger())
	_, err := svc.UpsertMessage(context.Background(), &models.MessageEvent{}, "111", "")
	assert.Error(t, err)
}
