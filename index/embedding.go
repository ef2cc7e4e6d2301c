package index

import (
	"context"
	"fmt"

	"github.com/poiesic/docqa/core"
)

// embedChunks fills in the Embedding of every chunk, batchSize texts per
// call, under the embed timeout.
func (b *Builder) embedChunks(ctx context.Context, chunks []core.Chunk, progress Progress) error {
	ctx, cancel := context.WithTimeout(ctx, b.embedTimeout)
	defer cancel()

	progress.Start(len(chunks))
	defer progress.Finish()

	for start := 0; start < len(chunks); start += b.batchSize {
		end := min(start+b.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		embeddings, err := b.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding chunks %d-%d: %w", start, end-1, err)
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(batch), len(embeddings))
		}
		for i := range batch {
			batch[i].Embedding = embeddings[i]
		}
		progress.Increment(len(batch))
	}
	return nil
}
