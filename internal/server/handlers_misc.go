package server

import (
	"net/http"
	"time"

	"github.com/apollostem/academy/internal/auth"
	"github.com/apollostem/academy/internal/common"
)

// handleHealth returns service liveness and uptime.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": common.GetVersion(),
		"uptime":  time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

// handleVersion returns build information.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleMe returns the authenticated caller's stored profile.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()
	cred := auth.CredentialFromContext(ctx)

	user, err := s.app.Storage.UserStore().GetUser(ctx, cred.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", cred.UserID).Msg("Failed to load user")
		WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	WriteJSON(w, http.StatusOK, user)
}
