package models

import "time"

type ChatStatus string

const (
	ChatStatusOpen       ChatStatus = "open"
	ChatStatusClosed     ChatStatus = "closed"
	ChatStatusProcessing ChatStatus = "processing"
	ChatStatusPending    ChatStatus = "pending"
	ChatStatusUnassigned ChatStatus = "unassigned"
	ChatStatusFollowUp   ChatStatus = "follow_up"
	ChatStatusResolved   ChatStatus = "resolved"
)

// ValidChatStatus reports whether s is one of the known chat statuses.
func ValidChatStatus(s ChatStatus) bool {
	switch s {
	case ChatStatusOpen, ChatStatusClosed, ChatStatusProcessing, ChatStatusPending,
		ChatStatusUnassigned, ChatStatusFollowUp, ChatStatusResolved:
		return true
	}
	return false
}

// Chat is a conversation thread keyed by the bare phone or group identifier
// (local-part only, never a full JID).
type Chat struct {
	ID              string        `json:"id"`
	LastMessage     string        `json:"lastMessage"`
	LastMessageTime int64         `json:"lastMessageTime"` // epoch ms
	UnreadCount     int           `json:"unreadCount"`
	PushName        string        `json:"pushName"`
	ContactID       string        `json:"contactId"`
	UserID          string        `json:"userId"`
	Status          ChatStatus    `json:"status"`
	Participants    []Participant `json:"participants,omitempty"`
	IsArchived      bool          `json:"isArchived"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`

	// Transient presence flags, never persisted authoritatively.
	IsOnline bool `json:"isOnline,omitempty"`
	IsTyping bool `json:"isTyping,omitempty"`
}

// Participant is a normalized group member. Unique by JID within a chat.
type Participant struct {
	JID          string `json:"jid"`
	Phone        string `json:"phone"`
	IsAdmin      bool   `json:"isAdmin"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
	DisplayName  string `json:"displayName,omitempty"`
}
