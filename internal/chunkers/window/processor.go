// Package window provides message-window chunking for chat-shaped sources.
// Consecutive messages are grouped into overlapping windows; same-speaker
// runs are concatenated with a speaker-change delimiter.
package window

import (
	"context"
	"fmt"
	"strings"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

// DefaultMaxMessages is the default window size in messages.
const DefaultMaxMessages = 8

// DefaultOverlap is the default number of messages shared between
// consecutive windows.
const DefaultOverlap = 1

// ParseFunc turns raw chat-export content into normalized messages.
type ParseFunc func(content string) ([]domain.ConversationMessage, error)

// Processor chunks conversations into overlapping message windows. Each
// window becomes one EmbeddingDocument whose timestamp is the timestamp of
// its first message. Windows containing the redaction marker are skipped.
type Processor struct {
	parse       ParseFunc
	maxMessages int
	overlap     int
}

// Option configures the window processor.
type Option func(*Processor)

// WithMaxMessages sets the window size in messages.
func WithMaxMessages(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxMessages = n
		}
	}
}

// WithOverlap sets the number of messages shared between windows.
func WithOverlap(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.overlap = n
		}
	}
}

// New creates a window processor. parse converts raw content into
// normalized messages; it may be nil if only ChunkMessages is used.
func New(parse ParseFunc, opts ...Option) *Processor {
	p := &Processor{
		parse:       parse,
		maxMessages: DefaultMaxMessages,
		overlap:     DefaultOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave room to advance
	if p.overlap >= p.maxMessages {
		p.overlap = p.maxMessages - 1
	}

	return p
}

// Name returns the chunker name.
func (p *Processor) Name() string {
	return "message_window"
}

// Chunk parses the raw document as a conversation and windows it.
func (p *Processor) Chunk(_ context.Context, doc *domain.RawDocument, source string) ([]domain.EmbeddingDocument, error) {
	if p.parse == nil {
		return nil, fmt.Errorf("window chunker: no parser configured")
	}
	messages, err := p.parse(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("parse conversation: %w", err)
	}

	docs := p.ChunkMessages(messages, source, doc.ID)
	return docs, nil
}

// ChunkMessages windows an already-normalized conversation. Message order
// is preserved within each window.
func (p *Processor) ChunkMessages(messages []domain.ConversationMessage, source, sourceDocumentID string) []domain.EmbeddingDocument {
	windows := p.windows(messages)

	docs := make([]domain.EmbeddingDocument, 0, len(windows))
	for _, win := range windows {
		if anyRedacted(win) {
			continue
		}

		doc := domain.NewEmbeddingDocument(formatWindow(win), source, win[0].Timestamp)
		doc.SourceDocumentID = sourceDocumentID
		docs = append(docs, doc)
	}
	return docs
}

// windows slices messages into overlapping groups of up to maxMessages.
func (p *Processor) windows(messages []domain.ConversationMessage) [][]domain.ConversationMessage {
	var out [][]domain.ConversationMessage
	step := p.maxMessages - p.overlap

	for start := 0; start < len(messages); start += step {
		end := start + p.maxMessages
		if end > len(messages) {
			end = len(messages)
		}
		out = append(out, messages[start:end])
		if end == len(messages) {
			break
		}
	}
	return out
}

// formatWindow concatenates a window, prefixing each speaker change with
// "\n<speaker>:\n" and joining same-speaker runs directly.
func formatWindow(win []domain.ConversationMessage) string {
	var parts []string
	lastSpeaker := ""
	for _, msg := range win {
		if msg.Speaker != lastSpeaker {
			parts = append(parts, fmt.Sprintf("\n%s:\n%s", msg.Speaker, msg.Text))
			lastSpeaker = msg.Speaker
		} else {
			parts = append(parts, msg.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func anyRedacted(win []domain.ConversationMessage) bool {
	for _, msg := range win {
		if msg.Redacted() {
			return true
		}
	}
	return false
}
