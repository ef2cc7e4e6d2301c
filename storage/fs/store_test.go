package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func writeFile(t *testing.T, store *FileStore, rel, content string) {
	t.Helper()
	full := filepath.Join(store.Root(), filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestListDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	writeFile(t, store, "1/docs/b.md", "b")
	writeFile(t, store, "1/docs/a.txt", "a")
	writeFile(t, store, "1/docs/nested/c.csv", "x,y")
	writeFile(t, store, "1/docs/movie.mp4", "skip")
	writeFile(t, store, "1/docs/.hidden.txt", "skip")
	writeFile(t, store, "2/docs/other.txt", "other project")

	docs, err := store.ListDocuments(ctx, "1")
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "1/docs/a.txt", docs[0].Path)
	assert.Equal(t, core.FormatTxt, docs[0].Format)
	assert.Equal(t, "1/docs/b.md", docs[1].Path)
	assert.Equal(t, "1/docs/nested/c.csv", docs[2].Path)
	for _, d := range docs {
		assert.Equal(t, "1", d.ProjectID)
		assert.Equal(t, core.DocumentID("1", d.Path), d.ID)
	}
}

func TestListDocuments_MissingProject(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ListDocuments(context.Background(), "9")
	assert.ErrorIs(t, err, core.ErrDocumentNotFound)
}

func TestListDocuments_EmptyDocsDir(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Join(store.Root(), "1", "docs"), 0755))

	docs, err := store.ListDocuments(context.Background(), "1")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestResolveDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	writeFile(t, store, "1/docs/report.pdf", "%PDF")
	writeFile(t, store, "1/docs/clip.mov", "x")

	doc, err := store.ResolveDocument(ctx, "1", "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, core.FormatPdf, doc.Format)
	assert.Equal(t, "1/docs/report.pdf", doc.Path)

	_, err = store.ResolveDocument(ctx, "1", "missing.txt")
	assert.ErrorIs(t, err, core.ErrDocumentNotFound)

	_, err = store.ResolveDocument(ctx, "1", "clip.mov")
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)

	_, err = store.ResolveDocument(ctx, "1", "../../etc/passwd.txt")
	assert.ErrorIs(t, err, storage.ErrInvalidPath)
}

func TestReadWriteBytes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WriteBytes(ctx, "1/docs/notes.txt", []byte("first")))
	require.NoError(t, store.WriteBytes(ctx, "1/docs/notes.txt", []byte("second")))

	data, err := store.ReadBytes(ctx, "1/docs/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Join(store.Root(), "1", "docs"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")

	_, err = store.ReadBytes(ctx, "1/docs/none.txt")
	assert.ErrorIs(t, err, core.ErrDocumentNotFound)
}

func TestPathsMustStayInsideRoot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []string{"", "../outside.txt", "/etc/passwd", "1/../../x.txt"}
	for _, p := range tests {
		t.Run(p, func(t *testing.T) {
			_, err := store.ReadBytes(ctx, p)
			assert.ErrorIs(t, err, storage.ErrInvalidPath)
			assert.ErrorIs(t, store.WriteBytes(ctx, p, []byte("x")), storage.ErrInvalidPath)
		})
	}
}

func TestAddDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, err := store.AddDocument(ctx, "3", "handbook.md", []byte("# Handbook"))
	require.NoError(t, err)
	assert.Equal(t, "3/docs/handbook.md", doc.Path)
	assert.Equal(t, core.FormatMd, doc.Format)

	docs, err := store.ListDocuments(ctx, "3")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "handbook.md", store.DocumentName(docs[0]))

	nested, err := store.AddDocument(ctx, "3", "policies/leave.txt", []byte("20 days"))
	require.NoError(t, err)
	assert.Equal(t, "policies/leave.txt", store.DocumentName(nested))

	_, err = store.AddDocument(ctx, "3", "virus.exe", []byte("x"))
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestDeleteProjectFiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	writeFile(t, store, "1/docs/a.txt", "a")
	writeFile(t, store, "2/docs/b.txt", "b")

	require.NoError(t, store.DeleteProjectFiles(ctx, "1"))
	require.NoError(t, store.DeleteProjectFiles(ctx, "1"), "deleting twice is fine")

	_, err := os.Stat(filepath.Join(store.Root(), "1"))
	assert.True(t, os.IsNotExist(err))

	docs, err := store.ListDocuments(ctx, "2")
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	assert.ErrorIs(t, store.DeleteProjectFiles(ctx, ".."), storage.ErrInvalidPath)
}

func TestCanceledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ListDocuments(ctx, "1")
	assert.ErrorIs(t, err, context.Canceled)
}
