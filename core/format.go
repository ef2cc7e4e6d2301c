package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the closed set of document formats the pipeline understands.
type Format int

const (
	FormatTxt Format = iota + 1
	FormatMd
	FormatDocx
	FormatPdf
	FormatCsv
)

var formatNames = map[Format]string{
	FormatTxt:  "txt",
	FormatMd:   "md",
	FormatDocx: "docx",
	FormatPdf:  "pdf",
	FormatCsv:  "csv",
}

// String returns the extension name of the format without the dot.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	_, ok := formatNames[f]
	return ok
}

// Writable reports whether edited text can be saved back in this format.
func (f Format) Writable() bool {
	return f.Valid() && f != FormatPdf
}

// ParseFormat resolves a file extension (with or without the leading dot,
// case-insensitive) to a Format.
func ParseFormat(ext string) (Format, error) {
	name := strings.ToLower(strings.TrimPrefix(ext, "."))
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// FormatFromPath resolves the format of a file from its extension.
func FormatFromPath(path string) (Format, error) {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return 0, fmt.Errorf("%w (%s)", err, path)
	}
	return format, nil
}
