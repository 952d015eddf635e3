package normalize

import (
	"fmt"
	"sort"

	"chatdesk/internal/models"
)

// participantKeys are the legacy field-name aliases a conversation object may
// carry its member list under, tried in order.
var participantKeys = []string{
	"participants", "Participants",
	"members", "Members",
	"member", "Member",
}

// idKeys are the aliases a raw participant entry may carry its address under.
var idKeys = []string{"id", "jid", "participant", "wid", "ID", "JID", "Participant"}

// ExtractParticipants locates and normalizes the member list of a raw
// conversation object. Entries are deduplicated by JID: admin flags are
// OR-merged and the first non-empty display name wins. Encounter order is
// preserved; no other ordering is guaranteed.
func ExtractParticipants(raw map[string]interface{}) []models.Participant {
	if raw == nil {
		return nil
	}

	var entries []interface{}
	for _, key := range participantKeys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case []interface{}:
			entries = val
		case map[string]interface{}:
			// Some legacy payloads ship the list as a keyed object; coerce to
			// its values in stable key order.
			keys := make([]string, 0, len(val))
			for k := range val {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				entries = append(entries, val[k])
			}
		}
		if len(entries) > 0 {
			break
		}
	}

	var out []models.Participant
	index := map[string]int{}
	for _, entry := range entries {
		p, ok := normalizeParticipant(entry)
		if !ok {
			continue
		}
		if i, seen := index[p.JID]; seen {
			merged := out[i]
			merged.IsAdmin = merged.IsAdmin || p.IsAdmin
			merged.IsSuperAdmin = merged.IsSuperAdmin || p.IsSuperAdmin
			if merged.DisplayName == "" {
				merged.DisplayName = p.DisplayName
			}
			out[i] = merged
			continue
		}
		index[p.JID] = len(out)
		out = append(out, p)
	}
	return out
}

func normalizeParticipant(entry interface{}) (models.Participant, bool) {
	switch v := entry.(type) {
	case string:
		if v == "" {
			return models.Participant{}, false
		}
		return models.Participant{JID: v, Phone: LocalPart(v)}, true
	case map[string]interface{}:
		jid := participantJID(v)
		if jid == "" {
			return models.Participant{}, false
		}
		p := models.Participant{
			JID:          jid,
			Phone:        LocalPart(jid),
			IsAdmin:      boolField(v, "isAdmin", "IsAdmin", "admin"),
			IsSuperAdmin: boolField(v, "isSuperAdmin", "IsSuperAdmin", "superAdmin"),
		}
		if name, ok := stringField(v, "displayName", "DisplayName", "name", "notify"); ok {
			p.DisplayName = name
		}
		return p, true
	}
	return models.Participant{}, false
}

// participantJID probes the id aliases; the value may be a bare string or a
// structured address object ({User, Server} or {user, server}).
func participantJID(obj map[string]interface{}) string {
	for _, key := range idKeys {
		v, ok := obj[key]
		if !ok || v == nil {
			continue
		}
		switch id := v.(type) {
		case string:
			if id != "" {
				return id
			}
		case map[string]interface{}:
			user, _ := stringField(id, "user", "User")
			server, _ := stringField(id, "server", "Server")
			if user != "" && server != "" {
				return fmt.Sprintf("%s@%s", user, server)
			}
			if user != "" {
				return user
			}
		}
	}
	return ""
}

func stringField(obj map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := obj[key].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func boolField(obj map[string]interface{}, keys ...string) bool {
	for _, key := range keys {
		if v, ok := obj[key].(bool); ok && v {
			return true
		}
	}
	return false
}
