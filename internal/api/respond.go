// ABOUTME: Central response and error mapping for the HTTP layer
// ABOUTME: Handlers return tagged errors; one place turns them into JSON responses

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/itayeylath/spotter-backend/internal/identity"
	"github.com/itayeylath/spotter-backend/internal/store"
)

// apiError is a tagged failure propagated from handlers to the single
// response-mapping step. It replaces the thrown AppError of old: a plain
// value, not control flow.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string { return e.message }

func errBadRequest(message string) error {
	return &apiError{status: http.StatusBadRequest, message: message}
}

func errUnauthorized(message string) error {
	return &apiError{status: http.StatusUnauthorized, message: message}
}

func errNotFound(message string) error {
	return &apiError{status: http.StatusNotFound, message: message}
}

// handlerFunc is an http.HandlerFunc that may fail; the handle adapter
// routes the failure through the central responder.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts a handlerFunc into an http.HandlerFunc with centralized
// error mapping. Collaborator sentinels are translated here so raw store
// or identity errors never reach a client.
func (s *Server) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		var ae *apiError
		switch {
		case errors.As(err, &ae):
			s.writeErrorEnvelope(w, ae.status, ae.message, "")
		case errors.Is(err, store.ErrNotFound):
			s.writeErrorEnvelope(w, http.StatusNotFound, "Todo not found", "")
		case errors.Is(err, identity.ErrUserNotFound):
			s.writeErrorEnvelope(w, http.StatusNotFound, "User not found", "")
		default:
			s.logger.Error("request failed", "path", r.URL.Path, "error", err)
			detail := ""
			if s.devMode {
				detail = err.Error()
			}
			s.writeErrorEnvelope(w, http.StatusInternalServerError, "Internal server error", detail)
		}
	}
}

// writeErrorEnvelope writes the uniform error body. The stack field is
// only populated in development mode.
func (s *Server) writeErrorEnvelope(w http.ResponseWriter, status int, message, stack string) {
	body := map[string]string{
		"status":  "error",
		"message": message,
	}
	if stack != "" && s.devMode {
		body["stack"] = stack
	}
	_ = writeJSON(w, status, body)
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
