package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Ask(ctx context.Context, projectID, question string) (*core.Answer, error) {
	args := m.Called(ctx, projectID, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*core.Answer), args.Error(1)
}

func (m *MockService) History(ctx context.Context, projectID string) (*core.Session, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*core.Session), args.Error(1)
}

func (m *MockService) ResetSession(ctx context.Context, projectID string) error {
	return m.Called(ctx, projectID).Error(0)
}

func (m *MockService) CreateProject(ctx context.Context, project *core.Project) (*core.Project, error) {
	args := m.Called(ctx, project)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*core.Project), args.Error(1)
}

func (m *MockService) GetProject(ctx context.Context, projectID string) (*core.Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*core.Project), args.Error(1)
}

func (m *MockService) ListProjects(ctx context.Context) ([]*core.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*core.Project), args.Error(1)
}

func (m *MockService) DeleteProject(ctx context.Context, projectID string) error {
	return m.Called(ctx, projectID).Error(0)
}

func (m *MockService) AddDocument(ctx context.Context, projectID, name string, data []byte) (core.Document, error) {
	args := m.Called(ctx, projectID, name, data)
	return args.Get(0).(core.Document), args.Error(1)
}

func (m *MockService) ListDocuments(ctx context.Context, projectID string) ([]core.Document, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]core.Document), args.Error(1)
}

func (m *MockService) DocumentName(doc core.Document) string {
	return m.Called(doc).String(0)
}

func (m *MockService) DocumentText(ctx context.Context, projectID, name string) (string, error) {
	args := m.Called(ctx, projectID, name)
	return args.String(0), args.Error(1)
}

func (m *MockService) SaveDocument(ctx context.Context, projectID, name, content string) error {
	return m.Called(ctx, projectID, name, content).Error(0)
}

func serve(t *testing.T, svc Service, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(RouterConfig{Service: svc, MaxBodyBytes: 1024})
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	rec := serve(t, new(MockService), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_Propagated(t *testing.T) {
	router := NewRouter(RouterConfig{Service: new(MockService)})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestAsk(t *testing.T) {
	t.Run("answers", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Ask", mock.Anything, "4", "What is the leave policy?").
			Return(&core.Answer{Question: "What is the leave policy?", Answer: "Twenty days."}, nil)

		rec := serve(t, svc, http.MethodPost, "/projects/4/ask", []byte(`{"question":"What is the leave policy?"}`))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"question":"What is the leave policy?","answer":"Twenty days."}`, rec.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("missing question", func(t *testing.T) {
		svc := new(MockService)
		rec := serve(t, svc, http.MethodPost, "/projects/4/ask", []byte(`{}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "validation", resp.Kind)
		assert.Equal(t, "question is required", resp.Error)
		svc.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := serve(t, new(MockService), http.MethodPost, "/projects/4/ask", []byte(`{"question":`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation", decodeError(t, rec).Kind)
	})

	t.Run("body too large", func(t *testing.T) {
		big := fmt.Sprintf(`{"question":"%s"}`, bytes.Repeat([]byte("a"), 2048))
		rec := serve(t, new(MockService), http.MethodPost, "/projects/4/ask", []byte(big))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	errorCases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"blank question", fmt.Errorf("%w: %w", core.ErrValidation, core.ErrEmptyQuestion), http.StatusBadRequest, "validation"},
		{"unknown project", fmt.Errorf("%w: 9", core.ErrProjectNotFound), http.StatusNotFound, "project_not_found"},
		{"no documents", fmt.Errorf("%w: %w", core.ErrIndexBuild, core.ErrDocumentNotFound), http.StatusNotFound, "document_not_found"},
		{"extraction", fmt.Errorf("%w: %w", core.ErrIndexBuild, core.ErrExtraction), http.StatusInternalServerError, "index_build"},
		{"generation", fmt.Errorf("%w: timeout", core.ErrGeneration), http.StatusInternalServerError, "generation"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Ask", mock.Anything, "9", "q?").Return(nil, tc.err)

			rec := serve(t, svc, http.MethodPost, "/projects/9/ask", []byte(`{"question":"q?"}`))
			assert.Equal(t, tc.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tc.kind, resp.Kind)
			assert.Equal(t, tc.err.Error(), resp.Error)
		})
	}
}

func TestSessionEndpoints(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := new(MockService)
	svc.On("History", mock.Anything, "2").Return(&core.Session{
		ProjectID: "2",
		SessionID: "s-1",
		History: []core.Turn{
			{Role: core.RoleUser, Content: "hi", At: at},
			{Role: core.RoleAssistant, Content: "hello", At: at},
		},
	}, nil)
	svc.On("ResetSession", mock.Anything, "2").Return(nil)

	rec := serve(t, svc, http.MethodGet, "/projects/2/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s-1", resp.SessionID)
	require.Len(t, resp.History, 2)
	assert.Equal(t, "user", resp.History[0].Role)
	assert.Equal(t, "assistant", resp.History[1].Role)
	assert.True(t, at.Equal(resp.History[1].At))

	rec = serve(t, svc, http.MethodDelete, "/projects/2/session", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	svc.AssertExpectations(t)
}

func TestProjectEndpoints(t *testing.T) {
	created := &core.Project{ID: "1", Name: "Handbook", Status: "draft", CreatedAt: time.Now().UTC()}

	t.Run("create", func(t *testing.T) {
		svc := new(MockService)
		svc.On("CreateProject", mock.Anything, mock.MatchedBy(func(p *core.Project) bool {
			return p.Name == "Handbook" && p.Tag == "hr"
		})).Return(created, nil)

		rec := serve(t, svc, http.MethodPost, "/projects", []byte(`{"name":"Handbook","tag":"hr"}`))
		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp ProjectResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "1", resp.ID)
	})

	t.Run("create without name", func(t *testing.T) {
		rec := serve(t, new(MockService), http.MethodPost, "/projects", []byte(`{"tag":"hr"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "name is required", decodeError(t, rec).Error)
	})

	t.Run("create with non numeric id", func(t *testing.T) {
		rec := serve(t, new(MockService), http.MethodPost, "/projects", []byte(`{"id":"abc","name":"x"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate", func(t *testing.T) {
		svc := new(MockService)
		svc.On("CreateProject", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: project 1", storage.ErrDuplicateKey))
		rec := serve(t, svc, http.MethodPost, "/projects", []byte(`{"id":"1","name":"x"}`))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "conflict", decodeError(t, rec).Kind)
	})

	t.Run("get and list", func(t *testing.T) {
		svc := new(MockService)
		svc.On("GetProject", mock.Anything, "1").Return(created, nil)
		svc.On("ListProjects", mock.Anything).Return([]*core.Project{created}, nil)

		rec := serve(t, svc, http.MethodGet, "/projects/1", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = serve(t, svc, http.MethodGet, "/projects", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		var list []ProjectResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Len(t, list, 1)
	})

	t.Run("delete missing", func(t *testing.T) {
		svc := new(MockService)
		svc.On("DeleteProject", mock.Anything, "8").Return(fmt.Errorf("%w: 8", core.ErrProjectNotFound))
		rec := serve(t, svc, http.MethodDelete, "/projects/8", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDocumentEndpoints(t *testing.T) {
	doc := core.Document{ProjectID: "3", Path: "3/docs/team notes.md", Format: core.FormatMd}

	t.Run("upload", func(t *testing.T) {
		svc := new(MockService)
		svc.On("AddDocument", mock.Anything, "3", "team notes.md", []byte("# Notes")).Return(doc, nil)
		svc.On("DocumentName", doc).Return("team notes.md")

		rec := serve(t, svc, http.MethodPut, "/projects/3/documents/team%20notes.md", []byte("# Notes"))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"name":"team notes.md","format":"md"}`, rec.Body.String())
	})

	t.Run("list", func(t *testing.T) {
		svc := new(MockService)
		svc.On("ListDocuments", mock.Anything, "3").Return([]core.Document{doc}, nil)
		svc.On("DocumentName", doc).Return("team notes.md")

		rec := serve(t, svc, http.MethodGet, "/projects/3/documents", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"name":"team notes.md","format":"md"}]`, rec.Body.String())
	})

	t.Run("text", func(t *testing.T) {
		svc := new(MockService)
		svc.On("DocumentText", mock.Anything, "3", "a.txt").Return("hello", nil)
		rec := serve(t, svc, http.MethodGet, "/projects/3/documents/a.txt/text", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"content":"hello"}`, rec.Body.String())
	})

	t.Run("text of unsupported file", func(t *testing.T) {
		svc := new(MockService)
		svc.On("DocumentText", mock.Anything, "3", "a.xlsx").
			Return("", fmt.Errorf("%w: a.xlsx", core.ErrUnsupportedFormat))
		rec := serve(t, svc, http.MethodGet, "/projects/3/documents/a.xlsx/text", nil)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Equal(t, "unsupported_format", decodeError(t, rec).Kind)
	})

	t.Run("save", func(t *testing.T) {
		svc := new(MockService)
		svc.On("SaveDocument", mock.Anything, "3", "a.txt", "").Return(nil)
		rec := serve(t, svc, http.MethodPut, "/projects/3/documents/a.txt/text", []byte(`{"content":""}`))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("save without content", func(t *testing.T) {
		rec := serve(t, new(MockService), http.MethodPut, "/projects/3/documents/a.txt/text", []byte(`{}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "content is required", decodeError(t, rec).Error)
	})
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusFor(nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, StatusFor(&http.MaxBytesError{Limit: 1}))
	assert.Equal(t, http.StatusNotFound, StatusFor(fmt.Errorf("%w: x", core.ErrDocumentNotFound)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(core.ErrEmptyIndex))
}
