package sentence

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

func TestSplit(t *testing.T) {
	t.Run("short content stays in one chunk", func(t *testing.T) {
		p := New()
		chunks := p.Split("First sentence. Second sentence.")

		require.Len(t, chunks, 1)
		assert.Contains(t, chunks[0], "First sentence.")
		assert.Contains(t, chunks[0], "Second sentence.")
	})

	t.Run("respects the chunk size bound", func(t *testing.T) {
		p := New(WithChunkSize(40), WithOverlap(0))

		var sentences []string
		for i := 0; i < 10; i++ {
			sentences = append(sentences, "This sentence is filler text.")
		}
		chunks := p.Split(strings.Join(sentences, " "))

		require.Greater(t, len(chunks), 1)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), 40)
		}
	})

	t.Run("covers all content", func(t *testing.T) {
		p := New(WithChunkSize(40), WithOverlap(0))
		content := "Alpha alpha alpha. Beta beta beta. Gamma gamma gamma. Delta delta delta."

		joined := strings.Join(p.Split(content), " ")
		for _, word := range []string{"Alpha", "Beta", "Gamma", "Delta"} {
			assert.Contains(t, joined, word)
		}
	})

	t.Run("seeds chunks with the overlap tail", func(t *testing.T) {
		p := New(WithChunkSize(40), WithOverlap(10))
		chunks := p.Split("First sentence goes right here. Second sentence goes right here.")

		require.Len(t, chunks, 2)
		tail := chunks[0][len(chunks[0])-10:]
		assert.True(t, strings.HasPrefix(chunks[1], tail))
	})

	t.Run("hard-splits oversized sentences", func(t *testing.T) {
		p := New(WithChunkSize(20), WithOverlap(0))
		chunks := p.Split(strings.Repeat("x", 55) + ".")

		require.GreaterOrEqual(t, len(chunks), 3)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), 20)
		}
	})

	t.Run("empty content yields nothing", func(t *testing.T) {
		p := New()
		assert.Nil(t, p.Split(""))
		assert.Nil(t, p.Split("   \n\t  "))
	})

	t.Run("keeps trailing text without terminal punctuation", func(t *testing.T) {
		p := New()
		chunks := p.Split("I went to the store. then we talked about boats for a while")

		require.Len(t, chunks, 1)
		assert.Contains(t, chunks[0], "I went to the store.")
		assert.Contains(t, chunks[0], "boats for a while")
	})

	t.Run("content without terminal punctuation still chunks", func(t *testing.T) {
		p := New()
		chunks := p.Split("no punctuation at all")

		require.Len(t, chunks, 1)
		assert.Equal(t, "no punctuation at all", chunks[0])
	})
}

func TestChunk(t *testing.T) {
	t.Run("propagates provenance and timestamp", func(t *testing.T) {
		p := New()
		created := time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)
		doc := &domain.RawDocument{
			ID:        "doc-3",
			Content:   "Just one sentence.",
			CreatedAt: created,
		}

		docs, err := p.Chunk(context.Background(), doc, "text_files")
		require.NoError(t, err)
		require.Len(t, docs, 1)

		assert.Equal(t, "text_files", docs[0].Source)
		assert.Equal(t, "doc-3", docs[0].SourceDocumentID)
		assert.Equal(t, created, docs[0].Timestamp)
	})

	t.Run("zero creation time falls back to now", func(t *testing.T) {
		p := New()
		docs, err := p.Chunk(context.Background(), &domain.RawDocument{Content: "Hello."}, "text_files")

		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.WithinDuration(t, time.Now().UTC(), docs[0].Timestamp, time.Minute)
	})

	t.Run("empty document yields no chunks", func(t *testing.T) {
		p := New()
		docs, err := p.Chunk(context.Background(), &domain.RawDocument{Content: ""}, "text_files")

		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}
