// Package index builds the searchable chunk index of a project.
//
// The Builder lists a project's documents, extracts and chunks them
// concurrently on a worker pool, then embeds every chunk in batches:
//   - Documents are processed in parallel but reassembled in listing order
//   - Embedding calls are bounded by a timeout
//   - Any failure fails the whole build with core.ErrIndexBuild
//
// Indexes are never cached; every Build is a full rebuild.
package index
