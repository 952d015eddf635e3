package models

// Reaction is an emoji annotation attached to a Message. It is keyed by the
// reaction event's own id, not by (message, participant); an empty emoji
// signals removal in some provider flows.
type Reaction struct {
	ID          string `json:"id"`
	MessageID   string `json:"messageId"`
	Participant string `json:"participant"`
	Emoji       string `json:"emoji"`
	CreatedAt   int64  `json:"createdAt"` // epoch ms
}
