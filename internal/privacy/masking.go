// Package privacy masks customer identifiers before they reach logs.
package privacy

import (
	"strings"

	"chatdesk/internal/constants"
)

// MaskPhone masks a phone-number-like identifier, keeping only the last
// digits. Example: "491234567890" -> "********7890".
func MaskPhone(phone string) string {
	if phone == "" {
		return ""
	}

	keep := constants.DefaultPhoneMaskLength

	if strings.HasPrefix(phone, "+") {
		if len(phone) <= keep+1 {
			return "+" + strings.Repeat("*", len(phone)-1)
		}
		return "+" + strings.Repeat("*", len(phone)-keep-1) + phone[len(phone)-keep:]
	}

	if len(phone) <= keep {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-keep) + phone[len(phone)-keep:]
}

// MaskJID masks a provider address while preserving its domain so group and
// direct chats stay distinguishable in logs.
// Example: "1234567890@g.us" -> "******7890@g.us".
func MaskJID(jid string) string {
	if jid == "" {
		return ""
	}

	if i := strings.Index(jid, "@"); i >= 0 {
		return MaskPhone(jid[:i]) + jid[i:]
	}
	return MaskPhone(jid)
}
