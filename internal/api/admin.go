// ABOUTME: Admin handlers for user management and aggregate statistics
// ABOUTME: Cross-user routes sit behind the admin gate; status checks only need authentication

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/itayeylath/spotter-backend/internal/auth"
	"github.com/itayeylath/spotter-backend/internal/identity"
)

// userResponse is the JSON shape of a directory entry.
type userResponse struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	CreatedAt   string `json:"createdAt"`
}

func toUserResponse(u *identity.User) userResponse {
	return userResponse{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}

// statsResponse is the JSON shape of GET /api/admin/stats.
type statsResponse struct {
	Users struct {
		Total int `json:"total"`
	} `json:"users"`
	Todos struct {
		Total     int `json:"total"`
		Completed int `json:"completed"`
		Active    int `json:"active"`
		LastWeek  int `json:"lastWeek"`
	} `json:"todos"`
	UpdatedAt string `json:"updatedAt"`
}

// handleCheckAdminStatus handles GET /api/admin/check-status. The answer
// comes from the principal, whose IsAdmin was derived from the registry
// during authentication.
func (s *Server) handleCheckAdminStatus(w http.ResponseWriter, r *http.Request) error {
	principal := auth.MustFromContext(r.Context())
	return writeJSON(w, http.StatusOK, map[string]bool{"isAdmin": principal.IsAdmin})
}

// handleAdminList handles GET /api/admin/list.
func (s *Server) handleAdminList(w http.ResponseWriter, r *http.Request) error {
	uids := s.registry.UIDs()
	if uids == nil {
		uids = []string{}
	}
	return writeJSON(w, http.StatusOK, map[string][]string{"adminUids": uids})
}

// handleListUsers handles GET /api/admin/users.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := s.idp.ListUsers(r.Context())
	if err != nil {
		return err
	}

	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return writeJSON(w, http.StatusOK, out)
}

// handleListUserTodos handles GET /api/admin/users/{uid}/todos. The user
// must exist in the identity system even if it owns no tasks.
func (s *Server) handleListUserTodos(w http.ResponseWriter, r *http.Request) error {
	uid := chi.URLParam(r, "uid")

	if _, err := s.idp.GetUser(r.Context(), uid); err != nil {
		return err
	}

	tasks, err := s.tasks.ListTasks(r.Context(), uid)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, toTodoResponses(tasks))
}

// handleDeleteUser handles DELETE /api/admin/users/{uid}. The user is
// removed from the identity system first, then the tasks are cascaded.
// There is no transaction across the two systems: if the cascade fails
// the user deletion stands and the failure is surfaced. Documented
// best-effort limitation.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) error {
	uid := chi.URLParam(r, "uid")

	if err := s.idp.DeleteUser(r.Context(), uid); err != nil {
		return err
	}

	n, err := s.tasks.DeleteTasksByOwner(r.Context(), uid)
	if err != nil {
		s.logger.Error("task cascade failed after user deletion", "uid", uid, "error", err)
		return err
	}

	s.logger.Info("user deleted with tasks", "uid", uid, "tasks", n)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// handleStats handles GET /api/admin/stats. User and task counts come
// from two systems and may reflect slightly different instants; no
// atomicity is promised across them.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) error {
	users, err := s.idp.ListUsers(r.Context())
	if err != nil {
		return err
	}

	now := time.Now()
	taskStats, err := s.tasks.TaskStats(r.Context(), now.Add(-7*24*time.Hour))
	if err != nil {
		return err
	}

	var resp statsResponse
	resp.Users.Total = len(users)
	resp.Todos.Total = taskStats.Total
	resp.Todos.Completed = taskStats.Completed
	resp.Todos.Active = taskStats.Total - taskStats.Completed
	resp.Todos.LastWeek = taskStats.LastWeek
	resp.UpdatedAt = now.UTC().Format(time.RFC3339)

	return writeJSON(w, http.StatusOK, resp)
}
