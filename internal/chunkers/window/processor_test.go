package window

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

func msg(speaker, text string, minute int) domain.ConversationMessage {
	return domain.ConversationMessage{
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Date(2024, 3, 1, 10, minute, 0, 0, time.UTC),
	}
}

func TestChunkMessages(t *testing.T) {
	t.Run("covers every message", func(t *testing.T) {
		p := New(nil, WithMaxMessages(3), WithOverlap(1))

		messages := []domain.ConversationMessage{
			msg("alice", "one", 0),
			msg("bob", "two", 1),
			msg("alice", "three", 2),
			msg("bob", "four", 3),
			msg("alice", "five", 4),
		}

		docs := p.ChunkMessages(messages, "chat_export", "doc-1")
		require.Len(t, docs, 2)

		assert.Contains(t, docs[0].Text, "one")
		assert.Contains(t, docs[0].Text, "three")
		assert.Contains(t, docs[1].Text, "three")
		assert.Contains(t, docs[1].Text, "five")
	})

	t.Run("timestamp comes from the first message in the window", func(t *testing.T) {
		p := New(nil, WithMaxMessages(2), WithOverlap(0))

		messages := []domain.ConversationMessage{
			msg("alice", "one", 0),
			msg("bob", "two", 1),
			msg("alice", "three", 2),
		}

		docs := p.ChunkMessages(messages, "chat_export", "doc-1")
		require.Len(t, docs, 2)

		assert.Equal(t, messages[0].Timestamp, docs[0].Timestamp)
		assert.Equal(t, messages[2].Timestamp, docs[1].Timestamp)
	})

	t.Run("sets source and source document id", func(t *testing.T) {
		p := New(nil)

		docs := p.ChunkMessages([]domain.ConversationMessage{msg("alice", "hi", 0)}, "chat_export", "doc-9")
		require.Len(t, docs, 1)

		assert.Equal(t, "chat_export", docs[0].Source)
		assert.Equal(t, "doc-9", docs[0].SourceDocumentID)
	})

	t.Run("skips windows containing redacted messages", func(t *testing.T) {
		p := New(nil, WithMaxMessages(2), WithOverlap(0))

		messages := []domain.ConversationMessage{
			msg("alice", "one", 0),
			msg("bob", "this is "+domain.RedactionMarker, 1),
			msg("alice", "three", 2),
			msg("bob", "four", 3),
		}

		docs := p.ChunkMessages(messages, "chat_export", "doc-1")
		require.Len(t, docs, 1)
		assert.Contains(t, docs[0].Text, "three")
		assert.NotContains(t, docs[0].Text, domain.RedactionMarker)
	})

	t.Run("empty input yields no documents", func(t *testing.T) {
		p := New(nil)
		assert.Empty(t, p.ChunkMessages(nil, "chat_export", ""))
	})
}

func TestFormatWindow(t *testing.T) {
	t.Run("labels speaker changes", func(t *testing.T) {
		text := formatWindow([]domain.ConversationMessage{
			msg("alice", "hi", 0),
			msg("bob", "hello", 1),
		})

		assert.Equal(t, "alice:\nhi\n\nbob:\nhello", text)
	})

	t.Run("joins same-speaker runs without relabeling", func(t *testing.T) {
		text := formatWindow([]domain.ConversationMessage{
			msg("alice", "hi", 0),
			msg("alice", "how are you", 1),
		})

		assert.Equal(t, "alice:\nhi\nhow are you", text)
	})
}

func TestChunk(t *testing.T) {
	parse := func(content string) ([]domain.ConversationMessage, error) {
		return []domain.ConversationMessage{msg("alice", content, 0)}, nil
	}

	t.Run("parses and windows raw content", func(t *testing.T) {
		p := New(parse)
		doc := &domain.RawDocument{ID: "doc-1", Content: "hello world"}

		docs, err := p.Chunk(context.Background(), doc, "chat_export")
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Contains(t, docs[0].Text, "hello world")
		assert.Equal(t, "doc-1", docs[0].SourceDocumentID)
	})

	t.Run("fails without a parser", func(t *testing.T) {
		p := New(nil)
		_, err := p.Chunk(context.Background(), &domain.RawDocument{Content: "x"}, "chat_export")
		assert.Error(t, err)
	})
}

func TestWindowOptions(t *testing.T) {
	t.Run("overlap is capped below window size", func(t *testing.T) {
		p := New(nil, WithMaxMessages(3), WithOverlap(5))

		messages := []domain.ConversationMessage{
			msg("a", "one", 0), msg("b", "two", 1), msg("a", "three", 2), msg("b", "four", 3),
		}

		// Step of 1 still terminates and covers all messages.
		docs := p.ChunkMessages(messages, "chat_export", "")
		assert.NotEmpty(t, docs)
		assert.Contains(t, docs[len(docs)-1].Text, "four")
	})
}
