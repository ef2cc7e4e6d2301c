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


package document

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// Extractor derives plain text from project documents.
type Extractor struct {
	files  storage.FileStore
	logger *slog.Logger
}

// Option configures an Extractor or a Writer.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewExtractor creates an Extractor reading through files.
func NewExtractor(files storage.FileStore, opts ...Option) (*Extractor, error) {
	if files == nil {
		return nil, ErrFileStoreRequired
	}
	o := buildOptions(opts)
	return &Extractor{
		files:  files,
		logger: o.logger.With("component", "extractor"),
	}, nil
}

// Extract returns the text of the document at path.
// Unsupported formats fail with core.ErrUnsupportedFormat; unreadable or
// malformed files fail with core.ErrExtraction naming the path and format.
func (e *Extractor) Extract(ctx context.Context, path string, format core.Format) (string, error) {
	if !format.Valid() {
		return "", fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, path)
	}

	data, err := e.files.ReadBytes(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%w: %s (%s): %w", core.ErrExtraction, path, format, err)
	}

	text, err := ExtractBytes(format, data)
	if err != nil {
		e.logger.Warn("extraction failed", "path", path, "format", format.String(), "err", err)
		return "", fmt.Errorf("%w: %s (%s): %w", core.ErrExtraction, path, format, err)
	}
	e.logger.Debug("extracted document", "path", path, "format", format.String(), "chars", len(text))
	return text, nil
}

// ExtractDocument is Extract for a resolved document.
func (e *Extractor) ExtractDocument(ctx context.Context, doc core.Document) (string, error) {
	return e.Extract(ctx, doc.Path, doc.Format)
}

// ExtractBytes converts raw file content of the given format to text.
func ExtractBytes(format core.Format, data []byte) (string, error) {
	switch format {
	case core.FormatTxt, core.FormatMd:
		if !utf8.Valid(data) {
			return "", ErrInvalidEncoding
		}
		return string(data), nil
	case core.FormatDocx:
		return extractDocx(data)
	case core.FormatPdf:
		return extractPDF(data)
	case core.FormatCsv:
		return extractCSV(data)
	default:
		return "", fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, format)
	}
}
