package document

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"text/tabwriter"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractCSV renders the file as a whitespace-aligned table: the header
// row followed by data rows in file order. Short rows are padded and
// trailing spaces are trimmed from every line.
func extractCSV(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var (
		rows  [][]string
		width int
	)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		rows = append(rows, record)
		width = max(width, len(record))
	}
	if len(rows) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		cells := make([]string, width)
		for i := range cells {
			if i < len(row) {
				cells[i] = flattenCell(row[i])
			}
		}
		tw.Write([]byte(strings.Join(cells, "\t") + "\n"))
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n"), nil
}

// flattenCell keeps a cell on one table line.
func flattenCell(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(s)
}

// encodeCSV writes a one-column table with header "content" and one row per
// non-empty line of content.
func encodeCSV(content string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"content"}); err != nil {
		return nil, err
	}
	for _, line := range splitLines(strings.TrimSpace(content)) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := w.Write([]string{line}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
