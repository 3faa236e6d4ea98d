package domain

import (
	"strings"
	"time"
)

// RedactionMarker flags content that must never be indexed. Any message
// window containing it is skipped entirely during chunking.
const RedactionMarker = "REDACTED"

// ConversationMessage is a normalized speaker-tagged, timestamped message
// from a chat-shaped source.
type ConversationMessage struct {
	// Speaker is the display name of the message author.
	Speaker string

	// Text is the message content.
	Text string

	// Timestamp is when the message was sent.
	Timestamp time.Time
}

// Redacted reports whether the message carries the redaction marker.
func (m ConversationMessage) Redacted() bool {
	return strings.Contains(m.Text, RedactionMarker)
}
