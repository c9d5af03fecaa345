// ABOUTME: IAM handlers for sign-in, sign-out, and the current user profile
// ABOUTME: Sign-in exchanges a verified identity token for a short-lived session token

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/itayeylath/spotter-backend/internal/auth"
	"github.com/itayeylath/spotter-backend/internal/identity"
)

type signInRequest struct {
	IDToken string `json:"idToken"`
}

type profileResponse struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// handleSignIn handles POST /api/iam/signin/google. The posted identity
// token is verified, the user profile resolved, and a fresh exchange
// token issued for the session.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) error {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		return errBadRequest("ID token is required")
	}

	verified, err := s.idp.VerifyToken(r.Context(), req.IDToken)
	if err != nil {
		return errUnauthorized("Authentication failed")
	}

	user, err := s.idp.GetUser(r.Context(), verified.UID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return errNotFound("User not found")
		}
		return err
	}

	sessionToken, err := s.idp.CustomToken(r.Context(), verified.UID)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to the app",
		"user": profileResponse{
			UID:         user.UID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			PhotoURL:    user.PhotoURL,
		},
		"sessionToken": sessionToken,
	})
}

// handleSignOut handles POST /api/iam/signout. Tokens are stateless, so
// there is nothing to revoke server-side.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully signed out"})
}

// handleMe handles GET /api/iam/me.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) error {
	principal := auth.MustFromContext(r.Context())

	user, err := s.idp.GetUser(r.Context(), principal.UID)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, map[string]any{
		"user": profileResponse{
			UID:         user.UID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			PhotoURL:    user.PhotoURL,
		},
	})
}
