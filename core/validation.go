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

import (
	"fmt"
	"strings"
)

// ValidateQuery validates a Query according to domain rules.
//
// Validation rules:
//   - ProjectID must not be empty
//   - Question must contain at least one non-whitespace character
func ValidateQuery(q *Query) error {
	if q == nil {
		return fmt.Errorf("%w: query is nil", ErrValidation)
	}

	if strings.TrimSpace(q.ProjectID) == "" {
		return fmt.Errorf("%w: project id is required", ErrValidation)
	}

	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyQuestion)
	}

	return nil
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - ProjectID and Path must not be empty
//   - Format must be one of the known formats
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrValidation)
	}
	if doc.ProjectID == "" {
		return fmt.Errorf("%w: document has no project", ErrValidation)
	}
	if doc.Path == "" {
		return fmt.Errorf("%w: document has no path", ErrValidation)
	}
	if !doc.Format.Valid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, doc.Path)
	}
	return nil
}

// ValidateRole validates that a Role has a valid value.
func ValidateRole(role Role) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: invalid role %d", ErrValidation, role)
	}
	return nil
}
