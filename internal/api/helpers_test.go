// ABOUTME: Shared test fixtures for API handler tests
// ABOUTME: Spins up the real router over a temp SQLite store and a Directory provider

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/itayeylath/spotter-backend/internal/auth"
	"github.com/itayeylath/spotter-backend/internal/identity"
	"github.com/itayeylath/spotter-backend/internal/store"
)

var apiTestSecret = []byte("api-handler-test-secret-32-bytes")

type testEnv struct {
	server    *Server
	directory *identity.Directory
	store     *store.SQLiteStore
}

// newTestEnv builds a server with admin123 in the registry and user789
// outside it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	directory, err := identity.NewDirectory(apiTestSecret, s)
	require.NoError(t, err)

	registry := auth.NewRegistry([]string{"admin123"})
	server := NewServer(s, directory, registry)

	return &testEnv{server: server, directory: directory, store: s}
}

// token mints a valid bearer token for uid.
func (e *testEnv) token(t *testing.T, uid string) string {
	t.Helper()
	tok, err := e.directory.Mint(uid, uid+"@example.com", "", time.Hour)
	require.NoError(t, err)
	return tok
}

// do performs a request against the router. A non-empty token is sent as
// a bearer credential; body may be nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals the response body into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// createTodo inserts a task through the API and returns its response shape.
func (e *testEnv) createTodo(t *testing.T, token, content string) todoResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/todos", token, map[string]any{"content": content})
	require.Equal(t, http.StatusCreated, rec.Code)

	var todo todoResponse
	decode(t, rec, &todo)
	return todo
}
