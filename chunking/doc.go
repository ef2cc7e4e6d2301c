// Package chunking splits extracted document text into retrieval-sized chunks.
//
// Text is split into paragraphs on blank lines. A paragraph that fits in the
// token window becomes one chunk; a longer paragraph is cut into overlapping
// windows of whitespace-delimited words. Output is deterministic for a given
// text and configuration.
package chunking
