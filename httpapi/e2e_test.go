package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/docqa"
	"github.com/poiesic/docqa/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndToEnd(t *testing.T) {
	svc, err := docqa.New(docqa.DefaultConfig(t.TempDir()), docqa.WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer svc.Close()

	srv := httptest.NewServer(NewRouter(RouterConfig{Service: svc}))
	defer srv.Close()

	do := func(method, path string, body []byte) *http.Response {
		t.Helper()
		req, err := http.NewRequest(method, srv.URL+path, bytes.NewReader(body))
		require.NoError(t, err)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := do(http.MethodPost, "/projects", []byte(`{"name":"Handbook"}`))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var project ProjectResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&project))
	base := "/projects/" + project.ID

	resp = do(http.MethodPost, base+"/ask", []byte(`{"question":"anything?"}`))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "project without documents")

	resp = do(http.MethodPut, base+"/documents/leave.txt", []byte("Staff get twenty days of leave."))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(http.MethodPost, base+"/ask", []byte(`{"question":"How much leave?"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var answer struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&answer))
	assert.Equal(t, "How much leave?", answer.Question)
	assert.Equal(t, mock.DefaultAnswer, answer.Answer)

	resp = do(http.MethodGet, base+"/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	assert.Len(t, session.History, 2)

	resp = do(http.MethodPut, base+"/documents/leave.txt/text", []byte(`{"content":"Staff get thirty days."}`))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(http.MethodGet, base+"/documents/leave.txt/text", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var content ContentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&content))
	assert.Equal(t, "Staff get thirty days.", content.Content)

	resp = do(http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(http.MethodGet, base+"/session", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
