package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const docxMainPart = "word/document.xml"

// extractDocx returns the text of every w:p paragraph in document order,
// one paragraph per line. Runs are concatenated; w:tab becomes a tab and
// w:br/w:cr become newlines.
func extractDocx(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	for _, file := range reader.File {
		if file.Name != docxMainPart {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return parseDocumentXML(rc)
	}
	return "", ErrMissingDocumentPart
}

func parseDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		para       strings.Builder
		inPara     int
		inRun      int
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if inPara == 0 {
					para.Reset()
				}
				inPara++
			case "r":
				inRun++
			case "t":
				inText = inPara > 0
			case "tab":
				// Tab stop definitions inside w:pPr are not text.
				if inRun > 0 {
					para.WriteByte('\t')
				}
			case "br", "cr":
				if inRun > 0 {
					para.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				inPara--
				if inPara == 0 {
					paragraphs = append(paragraphs, para.String())
				}
			case "r":
				inRun--
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

const (
	docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

	docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

	docxDocumentStart = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

	docxDocumentEnd = `</w:body></w:document>`
)

// encodeDocx builds a new minimal WordprocessingML package holding one
// paragraph per line of content. Tabs inside a line become w:tab elements.
func encodeDocx(content string) ([]byte, error) {
	var body bytes.Buffer
	body.WriteString(docxDocumentStart)
	for _, line := range splitLines(content) {
		body.WriteString("<w:p>")
		if line != "" {
			body.WriteString("<w:r>")
			for i, segment := range strings.Split(line, "\t") {
				if i > 0 {
					body.WriteString("<w:tab/>")
				}
				if segment == "" {
					continue
				}
				body.WriteString(`<w:t xml:space="preserve">`)
				if err := xml.EscapeText(&body, []byte(segment)); err != nil {
					return nil, err
				}
				body.WriteString("</w:t>")
			}
			body.WriteString("</w:r>")
		}
		body.WriteString("</w:p>")
	}
	body.WriteString(docxDocumentEnd)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxRels)},
		{docxMainPart, body.Bytes()},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(part.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// splitLines splits on \n, \r\n and \r. A trailing line break does not
// start an extra empty line, and empty content has no lines.
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}
