// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package index

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/chunking"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

const (
	// DefaultBatchSize is the number of chunk texts sent per embedding call.
	DefaultBatchSize = 32

	// DefaultEmbedTimeout bounds the embedding stage of one build.
	DefaultEmbedTimeout = 60 * time.Second
)

// Extractor derives the plain text of a document.
// *document.Extractor satisfies it.
type Extractor interface {
	ExtractDocument(ctx context.Context, doc core.Document) (string, error)
}

// Builder builds project indexes. A single Builder may serve concurrent
// builds of different projects; they share its worker pool.
type Builder struct {
	files        storage.FileStore
	extractor    Extractor
	embedder     ai.Embedder
	chunker      *chunking.Chunker
	pool         *ants.Pool
	batchSize    int
	embedTimeout time.Duration
	logger       *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithPoolSize sets the worker pool size for concurrent extraction.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}

		if b.pool != nil {
			b.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		b.pool = pool
		return nil
	}
}

// WithBatchSize sets how many chunk texts are embedded per call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}
		b.batchSize = size
		return nil
	}
}

// WithEmbedTimeout bounds the embedding stage of a build.
// Default is DefaultEmbedTimeout.
func WithEmbedTimeout(timeout time.Duration) Option {
	return func(b *Builder) error {
		if timeout <= 0 {
			return fmt.Errorf("embed timeout must be positive, got %s", timeout)
		}
		b.embedTimeout = timeout
		return nil
	}
}

// WithChunker sets the chunker.
// Default is a chunker with default window and overlap.
func WithChunker(chunker *chunking.Chunker) Option {
	return func(b *Builder) error {
		if chunker != nil {
			b.chunker = chunker
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a new index builder.
func NewBuilder(
	files storage.FileStore,
	extractor Extractor,
	embedder ai.Embedder,
	opts ...Option,
) (*Builder, error) {
	if files == nil {
		return nil, ErrFileStoreRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	chunker, err := chunking.New()
	if err != nil {
		return nil, err
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		files:        files,
		extractor:    extractor,
		embedder:     embedder,
		chunker:      chunker,
		pool:         pool,
		batchSize:    DefaultBatchSize,
		embedTimeout: DefaultEmbedTimeout,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(b); optErr != nil {
			b.Release()
			return nil, optErr
		}
	}
	b.logger = b.logger.With("component", "index-builder")

	return b, nil
}

// Build rebuilds the index of a project from its current documents.
func (b *Builder) Build(ctx context.Context, projectID string) (*core.Index, error) {
	return b.BuildWithProgress(ctx, projectID, nil)
}

// BuildWithProgress is Build with a progress observer for the embedding stage.
// Every error wraps core.ErrIndexBuild.
func (b *Builder) BuildWithProgress(ctx context.Context, projectID string, progress Progress) (*core.Index, error) {
	if progress == nil {
		progress = noopProgress{}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIndexBuild, err)
	}

	docs, err := b.files.ListDocuments(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIndexBuild, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: project %s: %w", core.ErrIndexBuild, projectID, ErrNoDocuments)
	}

	chunks, err := b.chunkDocuments(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIndexBuild, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: project %s: %w", core.ErrIndexBuild, projectID, ErrNoChunks)
	}

	b.logger.Debug("embedding chunks", "project", projectID, "documents", len(docs), "chunks", len(chunks))
	if err := b.embedChunks(ctx, chunks, progress); err != nil {
		b.logger.Error("error generating embeddings", "project", projectID, "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrIndexBuild, err)
	}

	b.logger.Info("index built", "project", projectID, "documents", len(docs), "chunks", len(chunks))
	return &core.Index{
		ProjectID: projectID,
		Chunks:    chunks,
		BuiltAt:   time.Now().UTC(),
	}, nil
}

// chunkDocuments extracts and chunks every document on the pool and returns
// the chunks in listing order. The first failing document in listing order
// fails the batch.
func (b *Builder) chunkDocuments(ctx context.Context, docs []core.Document) ([]core.Chunk, error) {
	results := make([][]core.Chunk, len(docs))
	errs := make([]error, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			text, err := b.extractor.ExtractDocument(ctx, doc)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = b.chunker.Chunk(text, doc.ID)
		})
		if err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("submitting %s: %w", doc.Path, err)
		}
	}
	wg.Wait()

	var chunks []core.Chunk
	for i, doc := range docs {
		if errs[i] != nil {
			b.logger.Warn("document failed", "path", doc.Path, "err", errs[i])
			return nil, errs[i]
		}
		b.logger.Debug("chunked document", "path", doc.Path, "chunks", len(results[i]))
		chunks = append(chunks, results[i]...)
	}
	return chunks, nil
}

// Release releases the worker pool.
// The builder should not be used after calling Release.
func (b *Builder) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}
