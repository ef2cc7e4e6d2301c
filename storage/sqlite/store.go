package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
	"github.com/poiesic/docqa/storage/sqlite/migrations"
)

// DefaultStatus is assigned to projects created without a status.
const DefaultStatus = "draft"

// ProjectStore is a SQLite-backed storage.ProjectStore.
type ProjectStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ storage.ProjectStore = (*ProjectStore)(nil)

// NewProjectStore opens (creating if needed) projects.db inside dataDir and
// applies pending migrations.
func NewProjectStore(dataDir string) (*ProjectStore, error) {
	if dataDir == "" {
		return nil, errors.New("sqlite: data directory is required")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "projects.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &ProjectStore{
		db:     db,
		path:   dbPath,
		logger: slog.Default().With("component", "project-store"),
	}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *ProjectStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *ProjectStore) Path() string {
	return s.path
}

// GetProject retrieves a project by ID.
func (s *ProjectStore) GetProject(ctx context.Context, id string) (*core.Project, error) {
	rowID, ok := parseID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrProjectNotFound, id)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, tag, description, status, created_at FROM projects WHERE id = ?`, rowID)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrProjectNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting project %s: %w", id, err)
	}
	return project, nil
}

// CreateProject inserts a project. An empty ID is assigned by SQLite.
func (s *ProjectStore) CreateProject(ctx context.Context, project *core.Project) (*core.Project, error) {
	if project == nil || strings.TrimSpace(project.Name) == "" {
		return nil, fmt.Errorf("%w: project name is required", core.ErrValidation)
	}

	created := *project
	if created.Status == "" {
		created.Status = DefaultStatus
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	var (
		result sql.Result
		err    error
	)
	if created.ID == "" {
		result, err = s.db.ExecContext(ctx,
			`INSERT INTO projects (name, tag, description, status, created_at) VALUES (?, ?, ?, ?, ?)`,
			created.Name, created.Tag, created.Description, created.Status, created.CreatedAt.UnixMicro())
	} else {
		rowID, ok := parseID(created.ID)
		if !ok {
			return nil, fmt.Errorf("%w: project id must be a positive integer", core.ErrValidation)
		}
		if _, getErr := s.GetProject(ctx, created.ID); getErr == nil {
			return nil, fmt.Errorf("%w: project %s", storage.ErrDuplicateKey, created.ID)
		}
		result, err = s.db.ExecContext(ctx,
			`INSERT INTO projects (id, name, tag, description, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			rowID, created.Name, created.Tag, created.Description, created.Status, created.CreatedAt.UnixMicro())
	}
	if err != nil {
		return nil, fmt.Errorf("inserting project: %w", err)
	}

	rowID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading project id: %w", err)
	}
	created.ID = strconv.FormatInt(rowID, 10)
	s.logger.Debug("project created", "project", created.ID, "name", created.Name)
	return &created, nil
}

// DeleteProject removes a project record.
func (s *ProjectStore) DeleteProject(ctx context.Context, id string) error {
	rowID, ok := parseID(id)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrProjectNotFound, id)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, rowID)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrProjectNotFound, id)
	}
	return nil
}

// ListProjects returns all projects ordered by creation time.
func (s *ProjectStore) ListProjects(ctx context.Context) ([]*core.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, tag, description, status, created_at FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*core.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*core.Project, error) {
	var (
		id      int64
		created int64
		p       core.Project
	)
	if err := row.Scan(&id, &p.Name, &p.Tag, &p.Description, &p.Status, &created); err != nil {
		return nil, err
	}
	p.ID = strconv.FormatInt(id, 10)
	p.CreatedAt = time.UnixMicro(created).UTC()
	return &p, nil
}

// parseID accepts only positive decimal row ids.
func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// migrate runs all pending migrations.
func (s *ProjectStore) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		s.logger.Debug("applied migration", "version", version)
	}

	return nil
}
