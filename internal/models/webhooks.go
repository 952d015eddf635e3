package models

import "encoding/json"

// Webhook event kinds sent by the WhatsApp-compatible upstream.
const (
	EventMessage      = "Message"
	EventHistorySync  = "HistorySync"
	EventChatPresence = "ChatPresence"
	EventReadReceipt  = "ReadReceipt"
	EventPresence     = "Presence"
)

// BroadcastStatusJID is the reserved status-broadcast channel. Traffic on it
// never produces chats or messages.
const BroadcastStatusJID = "status@broadcast"

// History sync type carrying full/recent history. Other sync types are ignored.
const HistorySyncTypeRecent = 3

// WebhookEnvelope is the outer payload posted by the upstream for every event.
type WebhookEnvelope struct {
	Type         string          `json:"type"`
	InstanceName string          `json:"instanceName"`
	Event        json.RawMessage `json:"event"`
}

// MessageInfo carries the addressing and identity fields of a message event.
type MessageInfo struct {
	Chat      string `json:"Chat"`
	Sender    string `json:"Sender"`
	SenderAlt string `json:"SenderAlt"`
	ID        string `json:"ID"`
	Timestamp int64  `json:"Timestamp"`
	IsFromMe  bool   `json:"IsFromMe"`
	PushName  string `json:"PushName"`
	IsEdit    bool   `json:"isEdit"`
}

// MessageEvent is a single inbound/outbound message notification. Content is
// kept both typed (for the known provider shapes) and raw (for the legacy
// reply-id tree walk); upstream does not guarantee either shape.
type MessageEvent struct {
	Info        MessageInfo
	Content     *MessageContent
	RawContent  map[string]interface{}
	UnreadCount *int
	ReplyToID   string
}

func (e *MessageEvent) UnmarshalJSON(data []byte) error {
	var aux struct {
		Info        MessageInfo     `json:"Info"`
		Message     json.RawMessage `json:"Message"`
		UnreadCount *int            `json:"unreadCount"`
		ReplyToID   string          `json:"replyToMessageId"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Info = aux.Info
	e.UnreadCount = aux.UnreadCount
	e.ReplyToID = aux.ReplyToID
	if len(aux.Message) > 0 {
		// Content decoding is tolerant: a malformed content object leaves the
		// typed view nil and the pipeline falls back to safe defaults.
		var content MessageContent
		if err := json.Unmarshal(aux.Message, &content); err == nil {
			e.Content = &content
		}
		var raw map[string]interface{}
		if err := json.Unmarshal(aux.Message, &raw); err == nil {
			e.RawContent = raw
		}
	}
	return nil
}

// MessageContent is the typed union of known provider content shapes.
type MessageContent struct {
	Conversation string               `json:"conversation,omitempty"`
	ExtendedText *ExtendedTextMessage `json:"extendedTextMessage,omitempty"`
	Image        *MediaMessage        `json:"imageMessage,omitempty"`
	Sticker      *MediaMessage        `json:"stickerMessage,omitempty"`
	Audio        *MediaMessage        `json:"audioMessage,omitempty"`
	Video        *MediaMessage        `json:"videoMessage,omitempty"`
	Document     *DocumentMessage     `json:"documentMessage,omitempty"`
	Reaction     *ReactionMessage     `json:"reactionMessage,omitempty"`
	ContextInfo  *ContextInfo         `json:"contextInfo,omitempty"`
}

type ExtendedTextMessage struct {
	Text        string       `json:"text"`
	ContextInfo *ContextInfo `json:"contextInfo,omitempty"`
}

type MediaMessage struct {
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mimetype,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

type DocumentMessage struct {
	Title    string `json:"title,omitempty"`
	FileName string `json:"fileName,omitempty"`
	MimeType string `json:"mimetype,omitempty"`
}

type ReactionMessage struct {
	Key  *MessageKey `json:"key,omitempty"`
	Text string      `json:"text"`
}

type MessageKey struct {
	ID          string `json:"ID"`
	FromMe      bool   `json:"fromMe"`
	RemoteJID   string `json:"remoteJID"`
	Participant string `json:"participant"`
}

// ContextInfo carries quote/forward metadata when the provider supplies it in
// the canonical location.
type ContextInfo struct {
	StanzaID        string `json:"stanzaId,omitempty"`
	QuotedMessageID string `json:"quotedMessageId,omitempty"`
	Participant     string `json:"participant,omitempty"`
}

// HistorySyncEvent is a bulk backfill carrying multiple conversations.
type HistorySyncEvent struct {
	Data HistorySyncData `json:"Data"`
}

type HistorySyncData struct {
	SyncType      int               `json:"syncType"`
	Conversations []json.RawMessage `json:"conversations"`
}

// HistoryConversation is one conversation summary inside a history sync.
// Legacy payloads vary in field casing and participant layout, so the raw
// object is preserved for alias probing.
type HistoryConversation struct {
	ID                    string
	Name                  string
	UnreadCount           *int
	ConversationTimestamp float64
	Messages              []HistoryMessage
	Raw                   map[string]interface{}
}

func (c *HistoryConversation) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID                    string           `json:"ID"`
		IDLower               string           `json:"id"`
		Name                  string           `json:"name"`
		UnreadCount           *int             `json:"unreadCount"`
		ConversationTimestamp float64          `json:"conversationTimestamp"`
		Messages              []HistoryMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.ID = aux.ID
	if c.ID == "" {
		c.ID = aux.IDLower
	}
	c.Name = aux.Name
	c.UnreadCount = aux.UnreadCount
	c.ConversationTimestamp = aux.ConversationTimestamp
	c.Messages = aux.Messages
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err == nil {
		c.Raw = raw
	}
	return nil
}

// HistoryMessage is one entry in a conversation's embedded message list.
type HistoryMessage struct {
	MsgOrderID int64               `json:"msgOrderID"`
	Message    *HistoryMessageItem `json:"message"`
}

type HistoryMessageItem struct {
	Key              *MessageKey     `json:"key,omitempty"`
	Message          json.RawMessage `json:"message,omitempty"`
	MessageTimestamp float64         `json:"messageTimestamp"`
	PushName         string          `json:"pushName,omitempty"`
}

// ReadReceiptEvent is a batch delivery/read acknowledgment.
type ReadReceiptEvent struct {
	Chat       string   `json:"Chat"`
	Sender     string   `json:"Sender"`
	MessageIDs []string `json:"MessageIDs"`
	Type       string   `json:"Type"` // "read" or "" (plain delivery)
}

// ChatPresenceEvent reports typing/online state for one chat.
type ChatPresenceEvent struct {
	Chat  string `json:"Chat"`
	State string `json:"State"` // available|online|composing|recording|paused
}
