// Package transcript renders message lists as the speaker-labelled text the
// analyzers consume, and parses exported chat logs into message lists.
package transcript

import (
	"strings"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Format renders messages as a Human:/Assistant: transcript. Unknown roles
// keep their own label. Empty messages are skipped.
func Format(msgs []Message) string {
	var sb strings.Builder
	for _, msg := range msgs {
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		switch msg.Role {
		case RoleUser, "human":
			sb.WriteString("Human: ")
		case RoleAssistant, "ai":
			sb.WriteString("Assistant: ")
		default:
			sb.WriteString(msg.Role + ": ")
		}
		sb.WriteString(text)
	}
	return sb.String()
}
