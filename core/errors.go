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


package core

import "errors"

// Pipeline error kinds. Callers match them with errors.Is; the wrapped
// message carries the offending path, format or project.
var (
	// ErrUnsupportedFormat indicates a file extension the pipeline cannot handle.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtraction indicates a document could not be read or parsed into text.
	ErrExtraction = errors.New("extraction failed")

	// ErrWrite indicates edited text could not be saved back to a document.
	ErrWrite = errors.New("write failed")

	// ErrIndexBuild indicates the project index could not be built.
	ErrIndexBuild = errors.New("index build failed")

	// ErrEmptyIndex indicates retrieval was attempted against an index without chunks.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrGeneration indicates the text generation provider failed or timed out.
	ErrGeneration = errors.New("generation failed")

	// ErrValidation indicates a malformed request.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyQuestion indicates a question that is missing or blank.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrProjectNotFound indicates the project does not exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrDocumentNotFound indicates the document does not exist in the project.
	ErrDocumentNotFound = errors.New("document not found")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrValidation, "validation"},
	{ErrProjectNotFound, "project_not_found"},
	{ErrDocumentNotFound, "document_not_found"},
	{ErrIndexBuild, "index_build"},
	{ErrUnsupportedFormat, "unsupported_format"},
	{ErrEmptyIndex, "empty_index"},
	{ErrExtraction, "extraction"},
	{ErrWrite, "write"},
	{ErrGeneration, "generation"},
}

// Kind returns the stable name of the pipeline error kind carried by err, or
// "internal" when err carries none. Missing projects and documents win over
// build and retrieval kinds, and an index build failure reports "index_build"
// even when its cause is an extraction error.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}
