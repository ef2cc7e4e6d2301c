package document

import "errors"

var (
	// ErrFileStoreRequired is returned when a nil file store is supplied.
	ErrFileStoreRequired = errors.New("file store is required")

	// ErrInvalidEncoding indicates a text file that is not valid UTF-8.
	ErrInvalidEncoding = errors.New("text is not valid UTF-8")

	// ErrMissingDocumentPart indicates a docx package without word/document.xml.
	ErrMissingDocumentPart = errors.New("docx has no word/document.xml part")
)
