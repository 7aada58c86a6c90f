package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/apollostem/academy/internal/auth"
	syncsvc "github.com/apollostem/academy/internal/services/sync"
)

// handleClassroomConnect returns the provider consent URL the client should
// open. The redirect URI is supplied by the caller so web and mobile
// frontends can use their own callback routes.
func (s *Server) handleClassroomConnect(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	redirectURI := r.URL.Query().Get("redirect_uri")
	if redirectURI == "" {
		WriteError(w, http.StatusBadRequest, "redirect_uri is required")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"authorization_url": s.app.OAuthClient.BuildAuthorizationURL(redirectURI),
	})
}

// handleClassroomCallback exchanges the authorization code and stores the
// resulting token record. The caller's account is marked linked and, when
// the profile lookup succeeds, stamped with the external subject id used by
// the teacher roster filter.
func (s *Server) handleClassroomCallback(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	code := r.URL.Query().Get("code")
	redirectURI := r.URL.Query().Get("redirect_uri")
	if code == "" || redirectURI == "" {
		WriteError(w, http.StatusBadRequest, "code and redirect_uri are required")
		return
	}

	ctx := r.Context()
	cred := auth.CredentialFromContext(ctx)

	exchange, err := s.app.OAuthClient.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", cred.UserID).Msg("Code exchange failed")
		WriteError(w, http.StatusBadGateway, "Authorization code exchange failed")
		return
	}

	tokens := s.app.Storage.TokenStore()
	if err := tokens.Upsert(ctx, cred.UserID, exchange.AccessToken, exchange.RefreshToken, exchange.ExpiresIn, exchange.Scope); err != nil {
		s.logger.Error().Err(err).Str("user_id", cred.UserID).Msg("Failed to store external token")
		WriteError(w, http.StatusInternalServerError, "Failed to store token")
		return
	}

	users := s.app.Storage.UserStore()
	user, err := users.GetUser(ctx, cred.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", cred.UserID).Msg("Failed to load user after exchange")
		WriteError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	user.Linked = true
	if profile, err := s.app.ClassroomClient.GetMyProfile(ctx, exchange.AccessToken); err == nil {
		user.ExternalID = profile.ID
	} else {
		// A failed profile lookup is not fatal; the token is already stored
		// and a later sync will surface real permission problems.
		s.logger.Warn().Err(err).Str("user_id", cred.UserID).Msg("Profile lookup failed after exchange")
	}
	user.ModifiedAt = time.Now()

	if err := users.SaveUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("user_id", cred.UserID).Msg("Failed to link user")
		WriteError(w, http.StatusInternalServerError, "Failed to link user")
		return
	}

	s.logger.Info().Str("user_id", cred.UserID).Msg("Classroom connected")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"linked":      true,
		"external_id": user.ExternalID,
	})
}

type classroomStatusResponse struct {
	Connected  bool      `json:"connected"`
	Linked     bool      `json:"linked"`
	TokenFresh bool      `json:"token_fresh"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
	LastSyncAt time.Time `json:"last_sync_at,omitempty"`
}

// handleClassroomStatus reports connection state without touching the
// provider: record presence, token freshness, and last sync time.
func (s *Server) handleClassroomStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()
	cred := auth.CredentialFromContext(ctx)

	resp := classroomStatusResponse{}

	user, err := s.app.Storage.UserStore().GetUser(ctx, cred.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", cred.UserID).Msg("Failed to load user")
		WriteError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}
	resp.Linked = user.Linked
	resp.LastSyncAt = user.LastSyncAt

	tokens := s.app.Storage.TokenStore()
	connected, err := tokens.HasConnection(ctx, cred.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", cred.UserID).Msg("Failed to check connection")
		WriteError(w, http.StatusInternalServerError, "Failed to check connection")
		return
	}
	resp.Connected = connected

	if connected {
		if record, err := tokens.Get(ctx, cred.UserID); err == nil {
			resp.TokenFresh = record.Fresh(time.Now())
			resp.ExpiresAt = record.ExpiresAt
		}
	}

	WriteJSON(w, http.StatusOK, resp)
}

// handleClassroomDisconnect clears the account's link pointer. The stored
// token record is kept, so a later reconnect resumes without a fresh
// consent round-trip.
func (s *Server) handleClassroomDisconnect(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	cred := auth.CredentialFromContext(ctx)
	users := s.app.Storage.UserStore()

	user, err := users.GetUser(ctx, cred.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", cred.UserID).Msg("Failed to load user")
		WriteError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	user.Linked = false
	user.ModifiedAt = time.Now()
	if err := users.SaveUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("user_id", cred.UserID).Msg("Failed to unlink user")
		WriteError(w, http.StatusInternalServerError, "Failed to unlink user")
		return
	}

	s.logger.Info().Str("user_id", cred.UserID).Msg("Classroom disconnected")
	WriteJSON(w, http.StatusOK, map[string]bool{"linked": false})
}

// handleClassroomSync runs the role-selected sync variant. The summary is
// returned even on failure so clients can show partial progress.
func (s *Server) handleClassroomSync(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	cred := auth.CredentialFromContext(ctx)

	summary, err := s.app.SyncService.Sync(ctx, cred.UserID)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, syncsvc.ErrNoConnection):
			status = http.StatusConflict
		case errors.Is(err, syncsvc.ErrNoRefreshToken):
			status = http.StatusConflict
		case errors.Is(err, syncsvc.ErrRoleNotSyncable):
			status = http.StatusForbidden
		}
		s.logger.Error().Err(err).Str("user_id", cred.UserID).Msg("Classroom sync failed")
		if summary == nil {
			WriteError(w, status, err.Error())
			return
		}
		WriteJSON(w, status, summary)
		return
	}

	WriteJSON(w, http.StatusOK, summary)
}
