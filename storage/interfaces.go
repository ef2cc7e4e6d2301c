package storage

import (
	"context"

	"github.com/poiesic/docqa/core"
)

// ProjectStore provides access to project records.
type ProjectStore interface {
	// GetProject retrieves a project by ID.
	// Returns core.ErrProjectNotFound if the project doesn't exist.
	GetProject(ctx context.Context, id string) (*core.Project, error)

	// CreateProject stores a new project. An empty ID is assigned by the store.
	// Sets CreatedAt if not already set and returns the stored record.
	// Returns ErrDuplicateKey if a project with the same ID exists.
	CreateProject(ctx context.Context, project *core.Project) (*core.Project, error)

	// DeleteProject removes a project record.
	// Returns core.ErrProjectNotFound if the project doesn't exist.
	DeleteProject(ctx context.Context, id string) error

	// ListProjects returns all projects ordered by creation time.
	ListProjects(ctx context.Context) ([]*core.Project, error)

	// Close releases resources held by the store.
	Close() error
}

// FileStore provides access to the documents attached to projects.
// Document paths are opaque to callers and only meaningful to the store
// that produced them.
type FileStore interface {
	// ListDocuments returns the documents of a project in a stable order.
	// Files whose extension is not a supported format are skipped.
	// Returns core.ErrDocumentNotFound if the project has no document area.
	ListDocuments(ctx context.Context, projectID string) ([]core.Document, error)

	// ResolveDocument finds the document called name within a project.
	// Returns core.ErrDocumentNotFound if no such file exists and
	// core.ErrUnsupportedFormat if its extension is not a supported format.
	ResolveDocument(ctx context.Context, projectID, name string) (core.Document, error)

	// AddDocument stores data as the document called name within a project,
	// replacing any existing file of that name.
	// Returns core.ErrUnsupportedFormat if name has an unsupported extension.
	AddDocument(ctx context.Context, projectID, name string, data []byte) (core.Document, error)

	// ReadBytes returns the raw content of the document at path.
	ReadBytes(ctx context.Context, path string) ([]byte, error)

	// WriteBytes replaces the content of the document at path.
	// Readers never observe a partially written file.
	WriteBytes(ctx context.Context, path string, data []byte) error

	// DeleteProjectFiles removes every file of a project.
	// Deleting a project without files is not an error.
	DeleteProjectFiles(ctx context.Context, projectID string) error
}

// SessionRepository stores the conversation session of each project.
type SessionRepository interface {
	// Get retrieves the session of a project.
	// Returns ErrNotFound if the project has no session.
	Get(ctx context.Context, projectID string) (*core.Session, error)

	// Append adds turns to the end of a project's history in a single write.
	// The session is created on first append. Returns the updated session.
	Append(ctx context.Context, projectID string, turns ...core.Turn) (*core.Session, error)

	// Delete removes a project's session. Deleting an absent session is not an error.
	Delete(ctx context.Context, projectID string) error

	// Close releases resources held by the repository.
	Close() error
}
