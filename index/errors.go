package index

import "errors"

var (
	// ErrFileStoreRequired is returned when a file store is not provided.
	ErrFileStoreRequired = errors.New("file store required")

	// ErrExtractorRequired is returned when a document extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrNoDocuments indicates a project without any supported documents.
	ErrNoDocuments = errors.New("project has no documents")

	// ErrNoChunks indicates documents that produced no text at all.
	ErrNoChunks = errors.New("documents produced no chunks")

	// ErrEmbeddingMismatch indicates the embedder returned the wrong number of vectors.
	ErrEmbeddingMismatch = errors.New("embedding result mismatch")
)
