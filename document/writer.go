package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// Writer saves edited text back to project documents.
type Writer struct {
	files  storage.FileStore
	logger *slog.Logger
}

// NewWriter creates a Writer storing through files.
func NewWriter(files storage.FileStore, opts ...Option) (*Writer, error) {
	if files == nil {
		return nil, ErrFileStoreRequired
	}
	o := buildOptions(opts)
	return &Writer{
		files:  files,
		logger: o.logger.With("component", "writer"),
	}, nil
}

// Write replaces the document at path with content encoded in format.
// pdf and unknown formats fail with core.ErrUnsupportedFormat; encoding or
// I/O failures fail with core.ErrWrite.
func (w *Writer) Write(ctx context.Context, path string, format core.Format, content string) error {
	data, err := EncodeBytes(format, content)
	if errors.Is(err, core.ErrUnsupportedFormat) {
		return fmt.Errorf("%w: %s", err, path)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrWrite, path, err)
	}
	if err := w.files.WriteBytes(ctx, path, data); err != nil {
		w.logger.Error("failed to save document", "path", path, "err", err)
		return fmt.Errorf("%w: %s: %w", core.ErrWrite, path, err)
	}
	w.logger.Debug("saved document", "path", path, "format", format.String(), "bytes", len(data))
	return nil
}

// WriteDocument is Write for a resolved document.
func (w *Writer) WriteDocument(ctx context.Context, doc core.Document, content string) error {
	return w.Write(ctx, doc.Path, doc.Format, content)
}

// EncodeBytes converts text to file content in the given format.
func EncodeBytes(format core.Format, content string) ([]byte, error) {
	if !format.Writable() {
		return nil, fmt.Errorf("%w: cannot write %s", core.ErrUnsupportedFormat, format)
	}
	switch format {
	case core.FormatTxt, core.FormatMd:
		return []byte(content), nil
	case core.FormatDocx:
		return encodeDocx(content)
	case core.FormatCsv:
		return encodeCSV(content)
	default:
		return nil, fmt.Errorf("%w: cannot write %s", core.ErrUnsupportedFormat, format)
	}
}
