// ABOUTME: Tests for the admin endpoints behind the two-stage auth chain
// ABOUTME: Covers status checks, role gating, user management, and aggregate stats

package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAdminStatus(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/admin/check-status", env.token(t, "admin123"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]bool
	decode(t, rec, &body)
	assert.True(t, body["isAdmin"])

	rec = env.do(t, http.MethodGet, "/api/admin/check-status", env.token(t, "user789"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.False(t, body["isAdmin"])
}

func TestAdminList(t *testing.T) {
	env := newTestEnv(t)

	// Any authenticated caller may read the configured admin UIDs
	rec := env.do(t, http.MethodGet, "/api/admin/list", env.token(t, "user789"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]string
	decode(t, rec, &body)
	assert.Equal(t, []string{"admin123"}, body["adminUids"])
}

func TestAdminRoutes_ForbiddenForNonAdmin(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user789")

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/admin/users"},
		{http.MethodGet, "/api/admin/users/someone/todos"},
		{http.MethodDelete, "/api/admin/users/someone"},
		{http.MethodGet, "/api/admin/stats"},
	} {
		rec := env.do(t, route.method, route.path, token, nil)
		require.Equal(t, http.StatusForbidden, rec.Code, "%s %s", route.method, route.path)

		var body map[string]string
		decode(t, rec, &body)
		assert.Equal(t, "Forbidden - Admin access required", body["message"])
	}
}

func TestAdminListUsers(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "admin123")

	// Verifying a token registers the caller in the directory
	env.do(t, http.MethodGet, "/api/todos", env.token(t, "alice"), nil)
	env.do(t, http.MethodGet, "/api/todos", env.token(t, "bob"), nil)

	rec := env.do(t, http.MethodGet, "/api/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var users []userResponse
	decode(t, rec, &users)
	require.Len(t, users, 3)

	uids := make([]string, 0, len(users))
	for _, u := range users {
		uids = append(uids, u.UID)
	}
	assert.Contains(t, uids, "admin123")
	assert.Contains(t, uids, "alice")
	assert.Contains(t, uids, "bob")
}

func TestAdminListUserTodos(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "admin123")

	env.createTodo(t, env.token(t, "alice"), "alice task")

	rec := env.do(t, http.MethodGet, "/api/admin/users/alice/todos", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var todos []todoResponse
	decode(t, rec, &todos)
	require.Len(t, todos, 1)
	assert.Equal(t, "alice", todos[0].OwnerID)
}

func TestAdminListUserTodos_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/admin/users/ghost/todos", env.token(t, "admin123"), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "User not found", body["message"])
}

func TestAdminDeleteUser_Cascade(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "admin123")
	alice := env.token(t, "alice")

	env.createTodo(t, alice, "one")
	env.createTodo(t, alice, "two")

	rec := env.do(t, http.MethodDelete, "/api/admin/users/alice", admin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Directory entry and owned tasks are both gone
	rec = env.do(t, http.MethodGet, "/api/admin/users/alice/todos", admin, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	tasks, err := env.store.ListTasks(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestAdminDeleteUser_Unknown(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodDelete, "/api/admin/users/ghost", env.token(t, "admin123"), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminStats(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "admin123")
	alice := env.token(t, "alice")

	env.createTodo(t, alice, "open")
	done := env.createTodo(t, alice, "done")
	rec := env.do(t, http.MethodPut, "/api/todos/"+done.ID, alice, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats statsResponse
	decode(t, rec, &stats)
	assert.Equal(t, 2, stats.Users.Total)
	assert.Equal(t, 2, stats.Todos.Total)
	assert.Equal(t, 1, stats.Todos.Completed)
	assert.Equal(t, stats.Todos.Total-stats.Todos.Completed, stats.Todos.Active)
	assert.Equal(t, 2, stats.Todos.LastWeek, "fresh tasks fall inside the 7-day window")
	assert.NotEmpty(t, stats.UpdatedAt)
}
