package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chatdesk/internal/models"
)

func TestMediaRelPath(t *testing.T) {
	tests := []struct {
		name     string
		msgType  models.MessageType
		id       string
		doc      *models.DocumentMessage
		expected string
	}{
		{"image", models.MessageTypeImage, "m1", nil, "imgs/m1.jpeg"},
		{"sticker", models.MessageTypeSticker, "m2", nil, "imgs/m2.webp"},
		{"audio", models.MessageTypeAudio, "m3", nil, "audio/m3.ogg"},
		{"video", models.MessageTypeVideo, "m4", nil, "video/m4.mp4"},
		{
			"document with filename",
			models.MessageTypeDocument, "m5",
			&models.DocumentMessage{FileName: "report.pdf"},
			"docs/report.pdf",
		},
		{
			"document falls back to mimetype subtype",
			models.MessageTypeDocument, "m6",
			&models.DocumentMessage{MimeType: "application/pdf"},
			"docs/m6.pdf",
		},
		{
			"document mimetype parameters stripped",
			models.MessageTypeDocument, "m7",
			&models.DocumentMessage{MimeType: "text/csv; charset=utf-8"},
			"docs/m7.csv",
		},
		{
			"document without metadata",
			models.MessageTypeDocument, "m8", nil,
			"docs/m8.bin",
		},
		{"text has no media path", models.MessageTypeText, "m9", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MediaRelPath(tt.msgType, tt.id, tt.doc))
		})
	}
}
