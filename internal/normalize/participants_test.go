package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdesk/internal/models"
)

func rawObject(t *testing.T, jsonStr string) map[string]interface{} {
	t.Helper()
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(jsonStr), &raw))
	return raw
}

func TestExtractParticipants(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []models.Participant
	}{
		{
			name: "object entries with flags",
			raw: `{"participants": [
				{"id": "111@s.whatsapp.net", "isAdmin": true},
				{"id": "222@s.whatsapp.net", "displayName": "Bob"}
			]}`,
			expected: []models.Participant{
				{JID: "111@s.whatsapp.net", Phone: "111", IsAdmin: true},
				{JID: "222@s.whatsapp.net", Phone: "222", DisplayName: "Bob"},
			},
		},
		{
			name: "string entries",
			raw:  `{"members": ["111@s.whatsapp.net", "222@s.whatsapp.net"]}`,
			expected: []models.Participant{
				{JID: "111@s.whatsapp.net", Phone: "111"},
				{JID: "222@s.whatsapp.net", Phone: "222"},
			},
		},
		{
			name: "alias casing variant",
			raw:  `{"Participants": [{"JID": "333@s.whatsapp.net"}]}`,
			expected: []models.Participant{
				{JID: "333@s.whatsapp.net", Phone: "333"},
			},
		},
		{
			name: "singular member alias",
			raw:  `{"member": [{"wid": "444@s.whatsapp.net"}]}`,
			expected: []models.Participant{
				{JID: "444@s.whatsapp.net", Phone: "444"},
			},
		},
		{
			name: "map coerced to values in key order",
			raw: `{"participants": {
				"b": {"id": "222@s.whatsapp.net"},
				"a": {"id": "111@s.whatsapp.net"}
			}}`,
			expected: []models.Participant{
				{JID: "111@s.whatsapp.net", Phone: "111"},
				{JID: "222@s.whatsapp.net", Phone: "222"},
			},
		},
		{
			name: "structured address object",
			raw:  `{"participants": [{"id": {"User": "555", "Server": "s.whatsapp.net"}}]}`,
			expected: []models.Participant{
				{JID: "555@s.whatsapp.net", Phone: "555"},
			},
		},
		{
			name: "entries without identity are skipped",
			raw:  `{"participants": [{"isAdmin": true}, "", {"id": "666@s.whatsapp.net"}]}`,
			expected: []models.Participant{
				{JID: "666@s.whatsapp.net", Phone: "666"},
			},
		},
		{
			name:     "no participant field",
			raw:      `{"name": "a group"}`,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractParticipants(rawObject(t, tt.raw))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractParticipantsDedupMerge(t *testing.T) {
	raw := rawObject(t, `{"participants": [
		{"id": "111@s.whatsapp.net", "isAdmin": true},
		{"id": "111@s.whatsapp.net", "isAdmin": false, "displayName": "Alice"}
	]}`)

	got := ExtractParticipants(raw)
	require.Len(t, got, 1)
	assert.Equal(t, "111@s.whatsapp.net", got[0].JID)
	assert.True(t, got[0].IsAdmin, "admin flags should OR-merge")
	assert.Equal(t, "Alice", got[0].DisplayName, "first non-empty display name wins")
}

func TestExtractParticipantsNilInput(t *testing.T) {
	assert.Nil(t, ExtractParticipants(nil))
}
