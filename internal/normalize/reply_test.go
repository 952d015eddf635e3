package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdesk/internal/models"
)

func eventFromJSON(t *testing.T, payload string) *models.MessageEvent {
	t.Helper()
	var ev models.MessageEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &ev))
	return &ev
}

func TestFindReplyTargetID(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected string
	}{
		{
			name:     "explicit wrapper field wins",
			payload:  `{"replyToMessageId": "wrapper-id", "Message": {"extendedTextMessage": {"contextInfo": {"stanzaId": "ctx-id"}}}}`,
			expected: "wrapper-id",
		},
		{
			name:     "extended text context stanza id",
			payload:  `{"Message": {"extendedTextMessage": {"text": "re", "contextInfo": {"stanzaId": "stanza-1"}}}}`,
			expected: "stanza-1",
		},
		{
			name:     "extended text quoted message id",
			payload:  `{"Message": {"extendedTextMessage": {"text": "re", "contextInfo": {"quotedMessageId": "quoted-1"}}}}`,
			expected: "quoted-1",
		},
		{
			name:     "top level context info",
			payload:  `{"Message": {"conversation": "hi", "contextInfo": {"stanzaId": "top-1"}}}`,
			expected: "top-1",
		},
		{
			name:     "tree walk finds nested stanza id",
			payload:  `{"Message": {"imageMessage": {"nested": {"deeper": {"stanzaID": "deep-1"}}}}}`,
			expected: "deep-1",
		},
		{
			name:     "tree walk is case insensitive",
			payload:  `{"Message": {"something": {"QuotedMessageID": "case-1"}}}`,
			expected: "case-1",
		},
		{
			name:     "tree walk descends into arrays",
			payload:  `{"Message": {"items": [{"noise": 1}, {"stanzaId": "arr-1"}]}}`,
			expected: "arr-1",
		},
		{
			name:     "no reply metadata",
			payload:  `{"Message": {"conversation": "plain"}}`,
			expected: "",
		},
		{
			name:     "non-string candidate values are ignored",
			payload:  `{"Message": {"stanzaId": 42}}`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FindReplyTargetID(eventFromJSON(t, tt.payload)))
		})
	}
}

func TestFindReplyTargetIDNilEvent(t *testing.T) {
	assert.Equal(t, "", FindReplyTargetID(nil))
}

func TestSearchReplyIDDepthBound(t *testing.T) {
	// Build a chain deeper than the search cap with the id at the bottom.
	leaf := map[string]interface{}{"stanzaId": "too-deep"}
	node := interface{}(leaf)
	for i := 0; i < maxReplySearchDepth+2; i++ {
		node = map[string]interface{}{"wrap": node}
	}

	assert.Equal(t, "", searchReplyID(node, 0))

	// The same id within the cap is found.
	shallow := map[string]interface{}{"wrap": map[string]interface{}{"stanzaId": "in-range"}}
	assert.Equal(t, "in-range", searchReplyID(shallow, 0))
}
