package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageEventUnmarshalTypedAndRaw(t *testing.T) {
	payload := `{
		"Info": {"Chat": "123@s.whatsapp.net", "Sender": "456@s.whatsapp.net", "ID": "msg-1", "Timestamp": 1700000000000, "IsFromMe": false, "PushName": "Alice"},
		"Message": {"conversation": "hello", "contextInfo": {"stanzaId": "prev-1"}},
		"unreadCount": 4
	}`

	var ev MessageEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &ev))

	assert.Equal(t, "123@s.whatsapp.net", ev.Info.Chat)
	assert.Equal(t, "msg-1", ev.Info.ID)
	assert.Equal(t, "Alice", ev.Info.PushName)
	require.NotNil(t, ev.Content)
	assert.Equal(t, "hello", ev.Content.Conversation)
	require.NotNil(t, ev.Content.ContextInfo)
	assert.Equal(t, "prev-1", ev.Content.ContextInfo.StanzaID)
	require.NotNil(t, ev.UnreadCount)
	assert.Equal(t, 4, *ev.UnreadCount)

	// Raw view keeps fields the typed union does not model.
	require.NotNil(t, ev.RawContent)
	assert.Contains(t, ev.RawContent, "conversation")
}

func TestMessageEventUnmarshalMalformedContent(t *testing.T) {
	payload := `{
		"Info": {"Chat": "123@s.whatsapp.net", "ID": "msg-2"},
		"Message": "not an object"
	}`

	var ev MessageEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &ev))

	assert.Nil(t, ev.Content)
	assert.Nil(t, ev.RawContent)
	assert.Equal(t, "msg-2", ev.Info.ID)
}

func TestMessageEventUnmarshalNoContent(t *testing.T) {
	var ev MessageEvent
	require.NoError(t, json.Unmarshal([]byte(`{"Info": {"ID": "msg-3"}}`), &ev))
	assert.Nil(t, ev.Content)
	assert.Nil(t, ev.RawContent)
}

func TestHistoryConversationIDCasing(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"uppercase ID", `{"ID": "100@g.us"}`, "100@g.us"},
		{"lowercase id", `{"id": "200@g.us"}`, "200@g.us"},
		{"uppercase wins", `{"ID": "100@g.us", "id": "200@g.us"}`, "100@g.us"},
		{"missing", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var conv HistoryConversation
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &conv))
			assert.Equal(t, tt.want, conv.ID)
		})
	}
}

func TestHistoryConversationKeepsRaw(t *testing.T) {
	payload := `{
		"id": "300@g.us",
		"name": "Support",
		"unreadCount": 2,
		"Participants": [{"JID": "1@s.whatsapp.net"}],
		"messages": [{"msgOrderID": 7, "message": {"messageTimestamp": 1700000000}}]
	}`

	var conv HistoryConversation
	require.NoError(t, json.Unmarshal([]byte(payload), &conv))

	assert.Equal(t, "300@g.us", conv.ID)
	assert.Equal(t, "Support", conv.Name)
	require.NotNil(t, conv.UnreadCount)
	assert.Equal(t, 2, *conv.UnreadCount)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, int64(7), conv.Messages[0].MsgOrderID)
	assert.Contains(t, conv.Raw, "Participants")
}
