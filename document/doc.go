// Package document converts project files to plain text and back.
//
// The Extractor reads a document through a storage.FileStore and returns its
// text; the Writer saves edited text back in the document's own format.
// Supported formats are txt, md, docx, pdf and csv; pdf is read-only.
//
// Conversions are lossy by nature: docx styling is not preserved when text is
// written back, and csv files are rendered as an aligned table when read.
package document
