package service

import (
	"chatdesk/internal/privacy"
)

// Standard structured log field names used across the pipeline.
const (
	LogFieldChatID    = "chat_id"
	LogFieldMessageID = "message_id"
	LogFieldEventType = "event_type"
	LogFieldUserID    = "user_id"
	LogFieldInstance  = "instance"
	LogFieldSyncType  = "sync_type"
	LogFieldError     = "error"
)

// SanitizeChatID masks a chat identity for logging.
func SanitizeChatID(chatID string) string {
	return privacy.MaskJID(chatID)
}

// SanitizeSender masks a sender address for logging.
func SanitizeSender(sender string) string {
	return privacy.MaskJID(sender)
}

// SanitizeMessageID shortens a message id for logging.
func SanitizeMessageID(msgID string) string {
	if len(msgID) > 12 {
		return msgID[:12] + "..."
	}
	return msgID
}
