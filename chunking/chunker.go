package chunking

import (
	"fmt"
	"strings"

	"github.com/poiesic/docqa/core"
)

const (
	// DefaultMaxTokens is the default token window of a chunk.
	DefaultMaxTokens = 512

	// DefaultOverlap is the default number of tokens shared by consecutive
	// windows of one paragraph (20% of the default window).
	DefaultOverlap = 102
)

// Chunker splits text into chunks. It holds no mutable state and is safe
// for concurrent use.
type Chunker struct {
	maxTokens int
	overlap   int
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithMaxTokens sets the token window.
// Default is DefaultMaxTokens.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) error {
		if n < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidMaxTokens, n)
		}
		c.maxTokens = n
		return nil
	}
}

// WithOverlap sets the number of tokens shared by consecutive windows.
// An overlap that does not fit inside the window is clamped to a fifth of it.
// Default is DefaultOverlap.
func WithOverlap(n int) Option {
	return func(c *Chunker) error {
		if n < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidOverlap, n)
		}
		c.overlap = n
		return nil
	}
}

// New creates a Chunker.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		maxTokens: DefaultMaxTokens,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.overlap >= c.maxTokens {
		c.overlap = c.maxTokens / 5
	}
	return c, nil
}

// MaxTokens returns the token window.
func (c *Chunker) MaxTokens() int {
	return c.maxTokens
}

// Overlap returns the effective overlap after clamping.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk splits text into chunks of the document identified by documentID.
// Ordinals start at 0 and follow text order. Text with no visible content
// yields no chunks.
func (c *Chunker) Chunk(text string, documentID core.ID) []core.Chunk {
	var chunks []core.Chunk
	for _, para := range Paragraphs(text) {
		words := strings.Fields(para)
		if len(words) <= c.maxTokens {
			chunks = append(chunks, core.Chunk{
				DocumentID: documentID,
				Ordinal:    len(chunks),
				Text:       para,
			})
			continue
		}
		for _, window := range c.windows(words) {
			chunks = append(chunks, core.Chunk{
				DocumentID: documentID,
				Ordinal:    len(chunks),
				Text:       strings.Join(window, " "),
			})
		}
	}
	return chunks
}

// windows cuts words into windows of maxTokens words, each starting
// maxTokens-overlap words after the previous one. The last window ends at
// the last word.
func (c *Chunker) windows(words []string) [][]string {
	step := c.maxTokens - c.overlap
	var out [][]string
	for start := 0; ; start += step {
		end := min(start+c.maxTokens, len(words))
		out = append(out, words[start:end])
		if end == len(words) {
			return out
		}
	}
}

// Paragraphs normalizes line endings and splits text on blank lines, which
// are lines holding only whitespace. Paragraphs are trimmed and empty ones
// are dropped.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var (
		paras   []string
		current []string
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		if para := strings.TrimSpace(strings.Join(current, "\n")); para != "" {
			paras = append(paras, para)
		}
		current = current[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return paras
}
