package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   *Query
		wantErr error
	}{
		{name: "valid query", query: &Query{ProjectID: "1", Question: "What is this?"}},
		{name: "nil query", query: nil, wantErr: ErrValidation},
		{name: "missing project", query: &Query{Question: "What?"}, wantErr: ErrValidation},
		{name: "empty question", query: &Query{ProjectID: "1"}, wantErr: ErrEmptyQuestion},
		{name: "whitespace question", query: &Query{ProjectID: "1", Question: " \t\n "}, wantErr: ErrEmptyQuestion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{name: "valid", doc: &Document{ProjectID: "1", Path: "a.txt", Format: FormatTxt}},
		{name: "nil", doc: nil, wantErr: ErrValidation},
		{name: "no project", doc: &Document{Path: "a.txt", Format: FormatTxt}, wantErr: ErrValidation},
		{name: "no path", doc: &Document{ProjectID: "1", Format: FormatTxt}, wantErr: ErrValidation},
		{name: "zero format", doc: &Document{ProjectID: "1", Path: "a.bin"}, wantErr: ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateRole(t *testing.T) {
	assert.NoError(t, ValidateRole(RoleUser))
	assert.NoError(t, ValidateRole(RoleAssistant))
	assert.ErrorIs(t, ValidateRole(Role(9)), ErrValidation)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		ext  string
		want Format
	}{
		{".txt", FormatTxt},
		{"md", FormatMd},
		{".DOCX", FormatDocx},
		{".pdf", FormatPdf},
		{"Csv", FormatCsv},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			got, err := ParseFormat(tt.ext)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFormat(".xlsx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormat_Writable(t *testing.T) {
	assert.True(t, FormatTxt.Writable())
	assert.True(t, FormatDocx.Writable())
	assert.True(t, FormatCsv.Writable())
	assert.False(t, FormatPdf.Writable())
	assert.False(t, Format(0).Writable())
	assert.Equal(t, "pdf", FormatPdf.String())
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), "internal"},
		{"validation", fmt.Errorf("%w: %w", ErrValidation, ErrEmptyQuestion), "validation"},
		{"extraction", fmt.Errorf("%w: a.pdf: eof", ErrExtraction), "extraction"},
		{
			"extraction inside build",
			fmt.Errorf("%w: %w", ErrIndexBuild, fmt.Errorf("%w: a.pdf", ErrExtraction)),
			"index_build",
		},
		{
			"missing project inside build",
			fmt.Errorf("%w: %w", ErrIndexBuild, ErrProjectNotFound),
			"project_not_found",
		},
		{"generation", fmt.Errorf("%w: timeout", ErrGeneration), "generation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}
