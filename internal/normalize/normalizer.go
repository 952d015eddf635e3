// Package normalize reduces loosely-typed upstream webhook payloads to the
// canonical values the upsert pipeline operates on. Every function here is
// pure and total: malformed or partial input yields a safe default, never an
// error, because the upstream payload shape is not contractually guaranteed.
package normalize

import (
	"math"
	"strings"

	"chatdesk/internal/models"
)

// GroupDomainMarker identifies group conversation JIDs.
const GroupDomainMarker = "@g.us"

// LocalPart strips the @domain suffix and any :device suffix from a provider
// address, keeping only the part before the first '@' or ':'.
func LocalPart(jid string) string {
	if i := strings.IndexAny(jid, "@:"); i >= 0 {
		return jid[:i]
	}
	return jid
}

// IsGroupJID reports whether the identity belongs to a group conversation.
func IsGroupJID(jid string) bool {
	return strings.Contains(jid, GroupDomainMarker)
}

// ResolveChatID chooses the chat a message belongs to. Direct messages carry
// the human's id as Chat (optionally with a routing alias as SenderAlt), while
// group messages carry the group id as Chat and the human sender separately;
// the alias is only trusted for inbound direct messages.
func ResolveChatID(info models.MessageInfo) string {
	if !info.IsFromMe && info.SenderAlt != "" && !IsGroupJID(info.Chat) {
		return LocalPart(info.SenderAlt)
	}
	return LocalPart(info.Chat)
}

// ChatPreview maps message content to the chat-list snippet. The order is a
// deliberate priority list: plain text beats every media kind even when both
// are present.
func ChatPreview(content *models.MessageContent) string {
	if content == nil {
		return ""
	}
	switch {
	case content.Conversation != "":
		return content.Conversation
	case content.ExtendedText != nil && content.ExtendedText.Text != "":
		return content.ExtendedText.Text
	case content.Image != nil:
		return "[Image]"
	case content.Video != nil:
		return "[Video]"
	case content.Sticker != nil:
		return "[Sticker]"
	case content.Audio != nil:
		return "[Audio]"
	case content.Document != nil && content.Document.Title != "":
		return "[Document] " + content.Document.Title
	}
	return ""
}

// MessagePreview maps content to the message-row body. Distinct from
// ChatPreview: the stored message text serves a different display purpose
// than the chat-list snippet and only falls through text and document fields.
func MessagePreview(content *models.MessageContent) string {
	if content == nil {
		return ""
	}
	switch {
	case content.Conversation != "":
		return content.Conversation
	case content.ExtendedText != nil && content.ExtendedText.Text != "":
		return content.ExtendedText.Text
	case content.Document != nil && content.Document.Title != "":
		return content.Document.Title
	case content.Document != nil && content.Document.FileName != "":
		return content.Document.FileName
	}
	return ""
}

// ClassifyMessageType derives the stored message type from inbound content.
// Only text, image, sticker and audio are inferred here; video and document
// rows are produced by the outbound sending path, not by this classifier.
func ClassifyMessageType(content *models.MessageContent) models.MessageType {
	if content == nil {
		return models.MessageTypeText
	}
	switch {
	case content.Image != nil:
		return models.MessageTypeImage
	case content.Sticker != nil:
		return models.MessageTypeSticker
	case content.Audio != nil:
		return models.MessageTypeAudio
	}
	return models.MessageTypeText
}

// HasUpsertableContent reports whether a live message event should flow
// through the chat/message upsert path at all.
func HasUpsertableContent(content *models.MessageContent) bool {
	if content == nil {
		return false
	}
	return content.Conversation != "" || content.Image != nil ||
		content.Sticker != nil || content.Audio != nil
}

// NormalizeTimestamp converts an upstream conversation timestamp to epoch
// milliseconds. Values below 10^10 are treated as seconds; this tolerance for
// upstream scale inconsistency is intentional. Missing, NaN or non-positive
// input yields nil.
func NormalizeTimestamp(raw float64) *int64 {
	if math.IsNaN(raw) || raw <= 0 {
		return nil
	}
	ms := int64(raw)
	if raw < 1e10 {
		ms = int64(raw) * 1000
	}
	return &ms
}
