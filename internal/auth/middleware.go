// ABOUTME: HTTP middleware for bearer-token authentication and the admin gate
// ABOUTME: RequireAuth attaches a Principal to the context; RequireAdmin enforces membership

package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/itayeylath/spotter-backend/internal/identity"
)

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and false if the header is missing or malformed.
func extractBearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", false
	}
	return token, true
}

// RequireAuth creates an HTTP middleware that authenticates the request.
// A missing or malformed Authorization header is rejected before any call
// to the identity provider. On success an enriched Principal (IsAdmin
// derived from the registry) is attached to the request context.
func RequireAuth(provider identity.Provider, registry *Registry) func(http.Handler) http.Handler {
	logger := slog.Default().With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized - No token provided")
				return
			}

			verified, err := provider.VerifyToken(r.Context(), token)
			if err != nil {
				logger.Warn("token verification failed", "error", err)
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized - Invalid token")
				return
			}

			principal := &Principal{
				UID:         verified.UID,
				Email:       verified.Email,
				DisplayName: verified.DisplayName,
				IsAdmin:     registry.IsAdmin(verified.UID),
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAdmin creates an HTTP middleware that enforces admin membership.
// Must be used after RequireAuth; it never authenticates by itself. The
// principal's record is re-fetched from the identity provider so a caller
// whose account disappeared mid-session does not pass the gate on stale
// token claims.
func RequireAdmin(provider identity.Provider) func(http.Handler) http.Handler {
	logger := slog.Default().With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := FromContext(r.Context())
			if principal == nil {
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized - No user found")
				return
			}

			if _, err := provider.GetUser(r.Context(), principal.UID); err != nil {
				logger.Error("admin verification failed", "uid", principal.UID, "error", err)
				writeAuthError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			if !principal.IsAdmin {
				writeAuthError(w, http.StatusForbidden, "Forbidden - Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeAuthError writes the error envelope shared with the API layer.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"message": message,
	})
}
