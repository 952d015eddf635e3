package normalize

import (
	"fmt"
	"strings"

	"chatdesk/internal/models"
)

// MediaRelPath synthesizes the relative storage path for a message's media
// following the fixed per-kind directory and extension conventions. Document
// names prefer the provider-supplied filename, then the mimetype subtype, then
// a .bin fallback. Returns "" for text messages.
func MediaRelPath(t models.MessageType, messageID string, doc *models.DocumentMessage) string {
	switch t {
	case models.MessageTypeImage:
		return fmt.Sprintf("imgs/%s.jpeg", messageID)
	case models.MessageTypeSticker:
		return fmt.Sprintf("imgs/%s.webp", messageID)
	case models.MessageTypeAudio:
		return fmt.Sprintf("audio/%s.ogg", messageID)
	case models.MessageTypeVideo:
		return fmt.Sprintf("video/%s.mp4", messageID)
	case models.MessageTypeDocument:
		if doc != nil && doc.FileName != "" {
			return "docs/" + doc.FileName
		}
		if doc != nil {
			if subtype := mimeSubtype(doc.MimeType); subtype != "" {
				return fmt.Sprintf("docs/%s.%s", messageID, subtype)
			}
		}
		return fmt.Sprintf("docs/%s.bin", messageID)
	}
	return ""
}

func mimeSubtype(mimetype string) string {
	if i := strings.Index(mimetype, "/"); i >= 0 && i+1 < len(mimetype) {
		sub := mimetype[i+1:]
		// Strip any mime parameters.
		if j := strings.Index(sub, ";"); j >= 0 {
			sub = sub[:j]
		}
		return strings.TrimSpace(sub)
	}
	return ""
}
