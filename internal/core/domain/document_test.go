package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSameIdentity(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	base := EmbeddingDocument{
		Text:             "hello",
		Source:           "chat_export",
		Timestamp:        ts,
		SourceDocumentID: "doc-1",
	}

	t.Run("equal tuples match", func(t *testing.T) {
		other := base
		other.ID = 42
		imp := 0.9
		other.Importance = &imp

		assert.True(t, base.SameIdentity(other))
	})

	t.Run("timestamps compare by instant, not location", func(t *testing.T) {
		other := base
		other.Timestamp = ts.In(time.FixedZone("UTC+2", 2*60*60))

		assert.True(t, base.SameIdentity(other))
	})

	t.Run("any tuple field difference breaks identity", func(t *testing.T) {
		changed := base
		changed.Text = "different"
		assert.False(t, base.SameIdentity(changed))

		changed = base
		changed.Source = "text_files"
		assert.False(t, base.SameIdentity(changed))

		changed = base
		changed.Timestamp = ts.Add(time.Second)
		assert.False(t, base.SameIdentity(changed))

		changed = base
		changed.SourceDocumentID = "doc-2"
		assert.False(t, base.SameIdentity(changed))
	})
}

func TestChatCompletionRequestClone(t *testing.T) {
	req := ChatCompletionRequest{
		Model: "m",
		Messages: []Message{
			{Role: RoleSystem, Content: "original"},
		},
	}

	clone := req.Clone()
	clone.Messages[0].Content = "modified"

	assert.Equal(t, "original", req.Messages[0].Content)
}

func TestConversationMessageRedacted(t *testing.T) {
	assert.True(t, ConversationMessage{Text: "the code is " + RedactionMarker}.Redacted())
	assert.False(t, ConversationMessage{Text: "nothing secret"}.Redacted())
}
