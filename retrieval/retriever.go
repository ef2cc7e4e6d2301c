package retrieval

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/index"
)

// DefaultTopK is the number of chunks returned when k is not positive.
const DefaultTopK = 7

// Retrieve returns the min(k, len(chunks)) chunks of index most similar to
// query, best first. A k of zero or less means DefaultTopK.
func Retrieve(index *core.Index, query []float32, k int) ([]core.ScoredChunk, error) {
	return retrieve(index, query, k, slog.Default())
}

func retrieve(index *core.Index, query []float32, k int, logger *slog.Logger) ([]core.ScoredChunk, error) {
	if index.Empty() {
		return nil, core.ErrEmptyIndex
	}
	if k <= 0 {
		k = DefaultTopK
	}

	results := make([]core.ScoredChunk, len(index.Chunks))
	mismatched := 0
	for i, chunk := range index.Chunks {
		if len(chunk.Embedding) != len(query) {
			mismatched++
		}
		results[i] = core.ScoredChunk{
			Chunk: chunk,
			Score: cosine(query, chunk.Embedding),
		}
	}
	if mismatched > 0 {
		logger.Debug("embedding dimension mismatch, comparing shared prefix",
			"project", index.ProjectID, "query_dim", len(query), "chunks", mismatched)
	}

	slices.SortStableFunc(results, func(a, b core.ScoredChunk) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(a.Chunk.DocumentID, b.Chunk.DocumentID); c != 0 {
			return c
		}
		return cmp.Compare(a.Chunk.Ordinal, b.Chunk.Ordinal)
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Retriever retrieves chunks by question text.
type Retriever struct {
	embedder     ai.Embedder
	topK         int
	embedTimeout time.Duration
	logger       *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithTopK sets the number of chunks returned.
// Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(r *Retriever) error {
		if k < 1 {
			return fmt.Errorf("top k must be at least 1, got %d", k)
		}
		r.topK = k
		return nil
	}
}

// WithEmbedTimeout bounds the question embedding call.
// Default is index.DefaultEmbedTimeout.
func WithEmbedTimeout(timeout time.Duration) Option {
	return func(r *Retriever) error {
		if timeout <= 0 {
			return fmt.Errorf("embed timeout must be positive, got %s", timeout)
		}
		r.embedTimeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a new retriever embedding questions with embedder.
func NewRetriever(embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		embedder:     embedder,
		topK:         DefaultTopK,
		embedTimeout: index.DefaultEmbedTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "retriever")
	return r, nil
}

// TopK returns the configured number of chunks per retrieval.
func (r *Retriever) TopK() int {
	return r.topK
}

// Retrieve is the package-level Retrieve with the retriever's logger and
// top k.
func (r *Retriever) Retrieve(index *core.Index, query []float32) ([]core.ScoredChunk, error) {
	return retrieve(index, query, r.topK, r.logger)
}

// RetrieveText embeds question and retrieves the closest chunks of index.
// An empty index fails before the embedder is called. Embedding failures,
// including the embed timeout, wrap core.ErrIndexBuild.
func (r *Retriever) RetrieveText(ctx context.Context, idx *core.Index, question string) ([]core.ScoredChunk, error) {
	if idx.Empty() {
		return nil, core.ErrEmptyIndex
	}

	embedCtx, cancel := context.WithTimeout(ctx, r.embedTimeout)
	defer cancel()
	embedding, err := r.embedder.EmbedText(embedCtx, question)
	if err != nil {
		r.logger.Error("error generating embedding for question", "project", idx.ProjectID, "err", err)
		return nil, fmt.Errorf("%w: embedding question: %w", core.ErrIndexBuild, err)
	}

	results, err := r.Retrieve(idx, embedding)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("retrieved chunks", "project", idx.ProjectID, "hits", len(results))
	return results, nil
}
