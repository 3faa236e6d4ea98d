// Package sentence provides length-based chunking for free text. Content
// is split on sentence boundaries into chunks of bounded size with a
// configurable character overlap between consecutive chunks.
package sentence

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

// DefaultChunkSize is the default maximum chunk length in characters.
const DefaultChunkSize = 512

// DefaultOverlap is the default number of characters carried over from the
// end of one chunk into the next.
const DefaultOverlap = 50

// sentenceSplitter matches sentence-like segments ending in terminal
// punctuation.
var sentenceSplitter = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// Processor splits raw text into sentence-aligned chunks. Each chunk
// becomes one EmbeddingDocument whose timestamp is inherited from the
// source document's creation time (falling back to the current time).
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the sentence processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a sentence processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the chunker name.
func (p *Processor) Name() string {
	return "sentence"
}

// Chunk splits the document content into embedding documents. Every
// non-empty input yields at least one chunk.
func (p *Processor) Chunk(_ context.Context, doc *domain.RawDocument, source string) ([]domain.EmbeddingDocument, error) {
	texts := p.Split(doc.Content)
	if len(texts) == 0 {
		return nil, nil
	}

	timestamp := doc.CreatedAt
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	docs := make([]domain.EmbeddingDocument, 0, len(texts))
	for _, text := range texts {
		d := domain.NewEmbeddingDocument(text, source, timestamp)
		d.SourceDocumentID = doc.ID
		docs = append(docs, d)
	}
	return docs, nil
}

// Split divides content into sentence-aligned pieces of roughly chunkSize
// characters, each starting with the overlap tail of its predecessor. A
// seeded chunk may exceed chunkSize by the overlap. Oversized single
// sentences are hard-split.
func (p *Processor) Split(content string) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}

	matches := sentenceSplitter.FindAllStringIndex(trimmed, -1)
	var sentences []string
	last := 0
	for _, m := range matches {
		sentences = append(sentences, trimmed[m[0]:m[1]])
		last = m[1]
	}
	// Trailing text without terminal punctuation is still a sentence;
	// every byte of input must land in some chunk.
	if rest := trimmed[last:]; strings.TrimSpace(rest) != "" {
		sentences = append(sentences, rest)
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	var chunks []string
	var current strings.Builder
	seeded := false

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunk := current.String()
		chunks = append(chunks, chunk)
		current.Reset()
		seeded = false

		// Seed the next chunk with the overlap tail
		if p.overlap > 0 && len(chunk) > p.overlap {
			current.WriteString(chunk[len(chunk)-p.overlap:])
			seeded = true
		}
	}

	for _, sentence := range sentences {
		// Hard-split sentences that alone exceed the chunk size
		for len(sentence) > p.chunkSize {
			flush()
			current.Reset()
			seeded = false
			chunks = append(chunks, sentence[:p.chunkSize])
			sentence = sentence[p.chunkSize:]
		}
		if sentence == "" {
			continue
		}

		// A chunk holding only the overlap seed must absorb at least one
		// sentence before it can flush again.
		if !seeded && current.Len() > 0 && current.Len()+1+len(sentence) > p.chunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
		seeded = false
	}
	flush()

	return chunks
}
