package models

import "time"

type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeSticker  MessageType = "sticker"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeVideo    MessageType = "video"
	MessageTypeDocument MessageType = "document"
)

// ReceiptStatus is the discriminator carried by a ReadReceipt event.
type ReceiptStatus string

const (
	ReceiptStatusRead      ReceiptStatus = "read"
	ReceiptStatusDelivered ReceiptStatus = "delivered"
)

// Message is a single inbound or outbound content unit belonging to a Chat,
// keyed by the provider-assigned message id.
type Message struct {
	ID               string      `json:"id"`
	ChatID           string      `json:"chatId"`
	Message          string      `json:"message"`
	Timestamp        int64       `json:"timestamp"` // epoch ms
	MessageType      MessageType `json:"messageType"`
	IsFromMe         bool        `json:"isFromMe"`
	ContactID        string      `json:"contactId"`
	MediaPath        *string     `json:"mediaPath,omitempty"`
	IsDelivered      bool        `json:"isDelivered"`
	IsRead           bool        `json:"isRead"`
	IsEdit           bool        `json:"isEdit"`
	ReplyToMessageID *string     `json:"replyToMessageId,omitempty"`
	UserID           string      `json:"userId,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}
