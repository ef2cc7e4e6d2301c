package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

const docsDir = "docs"

// FileStore is a storage.FileStore rooted at a local directory.
type FileStore struct {
	root   string
	logger *slog.Logger
}

var _ storage.FileStore = (*FileStore)(nil)

// Option configures a FileStore.
type Option func(*FileStore) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *FileStore) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewFileStore creates a FileStore rooted at root, creating the directory if needed.
func NewFileStore(root string, opts ...Option) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("fs: root directory is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating root directory: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	s := &FileStore{root: abs, logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "file-store")
	return s, nil
}

// Root returns the absolute root directory.
func (s *FileStore) Root() string {
	return s.root
}

// ListDocuments walks the project's docs directory in lexical order.
// Hidden files and files with unsupported extensions are skipped.
func (s *FileStore) ListDocuments(ctx context.Context, projectID string) ([]core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.docsDir(projectID)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: project %s has no documents", core.ErrDocumentNotFound, projectID)
	}

	var docs []core.Document
	err = filepath.WalkDir(dir, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		doc, err := core.NewDocument(projectID, filepath.ToSlash(rel))
		if err != nil {
			s.logger.Debug("skipping unsupported file", "project", projectID, "path", rel)
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing documents of project %s: %w", projectID, err)
	}
	return docs, nil
}

// ResolveDocument finds the document called name within a project's docs directory.
func (s *FileStore) ResolveDocument(ctx context.Context, projectID, name string) (core.Document, error) {
	if err := ctx.Err(); err != nil {
		return core.Document{}, err
	}
	rel, err := s.documentPath(projectID, name)
	if err != nil {
		return core.Document{}, err
	}

	info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil || info.IsDir() {
		return core.Document{}, fmt.Errorf("%w: %s in project %s", core.ErrDocumentNotFound, name, projectID)
	}
	return core.NewDocument(projectID, rel)
}

// AddDocument stores a new or replacement document called name in a project.
func (s *FileStore) AddDocument(ctx context.Context, projectID, name string, data []byte) (core.Document, error) {
	rel, err := s.documentPath(projectID, name)
	if err != nil {
		return core.Document{}, err
	}
	doc, err := core.NewDocument(projectID, rel)
	if err != nil {
		return core.Document{}, err
	}
	if err := s.WriteBytes(ctx, rel, data); err != nil {
		return core.Document{}, err
	}
	return doc, nil
}

// DocumentName returns the name of doc within its project's docs directory,
// the inverse of ResolveDocument.
func (s *FileStore) DocumentName(doc core.Document) string {
	return strings.TrimPrefix(doc.Path, path.Join(doc.ProjectID, docsDir)+"/")
}

// ReadBytes returns the content of the document at the root-relative path p.
func (s *FileStore) ReadBytes(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", core.ErrDocumentNotFound, p)
	}
	return data, err
}

// WriteBytes replaces the content at p by writing a temporary file in the
// same directory and renaming it over the target.
func (s *FileStore) WriteBytes(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, full)
}

// DeleteProjectFiles removes the whole project directory.
func (s *FileStore) DeleteProjectFiles(ctx context.Context, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkProjectID(projectID); err != nil {
		return err
	}
	s.logger.Debug("deleting project files", "project", projectID)
	return os.RemoveAll(filepath.Join(s.root, projectID))
}

func (s *FileStore) docsDir(projectID string) (string, error) {
	if err := checkProjectID(projectID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, projectID, docsDir), nil
}

// documentPath returns the root-relative path of name inside a project's docs.
func (s *FileStore) documentPath(projectID, name string) (string, error) {
	if err := checkProjectID(projectID); err != nil {
		return "", err
	}
	name = filepath.ToSlash(name)
	if name == "" || !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidPath, name)
	}
	return path.Join(projectID, docsDir, path.Clean(name)), nil
}

// resolve maps a root-relative path to an absolute one inside the root.
func (s *FileStore) resolve(p string) (string, error) {
	local := filepath.FromSlash(p)
	if p == "" || !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidPath, p)
	}
	return filepath.Join(s.root, local), nil
}

func checkProjectID(projectID string) error {
	if projectID == "" || projectID == "." || projectID == ".." || strings.ContainsAny(projectID, `/\`) {
		return fmt.Errorf("%w: project id %q", storage.ErrInvalidPath, projectID)
	}
	return nil
}
