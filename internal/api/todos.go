// ABOUTME: Owner-scoped todo handlers
// ABOUTME: Every operation filters by the authenticated principal's uid

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/itayeylath/spotter-backend/internal/auth"
	"github.com/itayeylath/spotter-backend/internal/store"
)

// todoResponse is the JSON shape of a task.
type todoResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerId"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toTodoResponse(t *store.Task) todoResponse {
	return todoResponse{
		ID:        t.ID,
		OwnerID:   t.OwnerID,
		Content:   t.Content,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.Format(time.RFC3339),
	}
}

func toTodoResponses(tasks []*store.Task) []todoResponse {
	out := make([]todoResponse, len(tasks))
	for i, t := range tasks {
		out[i] = toTodoResponse(t)
	}
	return out
}

// createTodoRequest is the JSON request body for POST /api/todos.
// A completed value, if supplied, is deliberately ignored.
type createTodoRequest struct {
	Content string `json:"content"`
}

// updateTodoRequest is the JSON request body for PUT /api/todos/{id}.
// Nil fields are left unchanged.
type updateTodoRequest struct {
	Content   *string `json:"content"`
	Completed *bool   `json:"completed"`
}

// handleListTodos handles GET /api/todos.
func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) error {
	principal := auth.MustFromContext(r.Context())

	tasks, err := s.tasks.ListTasks(r.Context(), principal.UID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, toTodoResponses(tasks))
}

// handleGetTodo handles GET /api/todos/{id}.
func (s *Server) handleGetTodo(w http.ResponseWriter, r *http.Request) error {
	principal := auth.MustFromContext(r.Context())

	task, err := s.tasks.GetTask(r.Context(), principal.UID, chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, toTodoResponse(task))
}

// handleCreateTodo handles POST /api/todos. The owner always comes from
// the principal and completed always starts false, whatever the client
// sent.
func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) error {
	principal := auth.MustFromContext(r.Context())

	var req createTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errBadRequest("Invalid input data")
	}

	task, err := s.tasks.CreateTask(r.Context(), principal.UID, req.Content)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, toTodoResponse(task))
}

// handleUpdateTodo handles PUT /api/todos/{id}. Partial update; id and
// owner are immutable.
func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) error {
	principal := auth.MustFromContext(r.Context())

	var req updateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errBadRequest("Invalid input data")
	}

	task, err := s.tasks.UpdateTask(r.Context(), principal.UID, chi.URLParam(r, "id"), store.TaskUpdate{
		Content:   req.Content,
		Completed: req.Completed,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, toTodoResponse(task))
}

// handleDeleteTodo handles DELETE /api/todos/{id}.
func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) error {
	principal := auth.MustFromContext(r.Context())

	if err := s.tasks.DeleteTask(r.Context(), principal.UID, chi.URLParam(r, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
