// Package chatexport ingests chat history exports. Exports are normalized
// JSON conversations; each message carries a sender, text and timestamp.
package chatexport

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

// exportMessage is the normalized wire format for a single message.
type exportMessage struct {
	From      string    `json:"from"`
	Value     string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// exportConversation wraps the message list. Bare arrays are accepted too.
type exportConversation struct {
	Conversations []exportMessage `json:"conversations"`
}

// Parse converts a normalized chat export into conversation messages,
// preserving order. Non-printable control characters are stripped from
// message text.
func Parse(content string) ([]domain.ConversationMessage, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, nil
	}

	var export exportConversation
	if err := json.Unmarshal([]byte(trimmed), &export); err != nil || export.Conversations == nil {
		// Fall back to a bare message array
		var bare []exportMessage
		if bareErr := json.Unmarshal([]byte(trimmed), &bare); bareErr != nil {
			return nil, fmt.Errorf("parse chat export: %w", bareErr)
		}
		export.Conversations = bare
	}

	messages := make([]domain.ConversationMessage, 0, len(export.Conversations))
	for _, msg := range export.Conversations {
		messages = append(messages, domain.ConversationMessage{
			Speaker:   msg.From,
			Text:      stripNonPrintable(msg.Value),
			Timestamp: msg.Timestamp.UTC(),
		})
	}
	return messages, nil
}

// stripNonPrintable drops carriage returns, zero-width marks and other
// non-printable runes that chat apps leave in exports.
func stripNonPrintable(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
