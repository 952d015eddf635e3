package normalize

import (
	"strings"

	"chatdesk/internal/models"
)

// Content trees are shallow; the cap exists so a pathological payload cannot
// recurse without bound.
const maxReplySearchDepth = 8

// FindReplyTargetID resolves the message a reply points at. Explicit wrapper
// and context-info locations are tried first; legacy and history-sync payloads
// that cannot be fully typed fall back to a bounded depth-first walk of the
// raw content tree looking for a stanza-id or quoted-message-id field under
// either casing convention. First match wins. Empty string means no target.
func FindReplyTargetID(ev *models.MessageEvent) string {
	if ev == nil {
		return ""
	}
	if ev.ReplyToID != "" {
		return ev.ReplyToID
	}
	if c := ev.Content; c != nil {
		if c.ExtendedText != nil && c.ExtendedText.ContextInfo != nil {
			if id := replyIDFromContext(c.ExtendedText.ContextInfo); id != "" {
				return id
			}
		}
		if c.ContextInfo != nil {
			if id := replyIDFromContext(c.ContextInfo); id != "" {
				return id
			}
		}
	}
	return searchReplyID(ev.RawContent, 0)
}

func replyIDFromContext(ci *models.ContextInfo) string {
	if ci.StanzaID != "" {
		return ci.StanzaID
	}
	return ci.QuotedMessageID
}

func isReplyIDKey(key string) bool {
	switch strings.ToLower(key) {
	case "stanzaid", "quotedmessageid":
		return true
	}
	return false
}

func searchReplyID(node interface{}, depth int) string {
	if depth > maxReplySearchDepth {
		return ""
	}
	switch v := node.(type) {
	case map[string]interface{}:
		for key, val := range v {
			if isReplyIDKey(key) {
				if id, ok := val.(string); ok && id != "" {
					return id
				}
			}
		}
		for _, val := range v {
			if id := searchReplyID(val, depth+1); id != "" {
				return id
			}
		}
	case []interface{}:
		for _, item := range v {
			if id := searchReplyID(item, depth+1); id != "" {
				return id
			}
		}
	}
	return ""
}
