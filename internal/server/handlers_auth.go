package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/apollostem/academy/internal/auth"
	"github.com/apollostem/academy/internal/models"
	"github.com/apollostem/academy/internal/storage/surrealdb"
)

type loginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// handleAuthLogin issues a session credential for the given identity,
// creating the account on first login. The role is validated against the
// closed enumeration before any credential is signed.
func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		WriteError(w, http.StatusBadRequest, "email is required")
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	users := s.app.Storage.UserStore()

	user, err := users.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		if user.Role != role {
			WriteError(w, http.StatusConflict, "account exists with a different role")
			return
		}
	case errors.Is(err, surrealdb.ErrUserNotFound):
		user = &models.User{
			UserID:    "user_" + uuid.New().String()[:8],
			Email:     req.Email,
			Name:      req.Name,
			Role:      role,
			CreatedAt: time.Now(),
		}
		if err := users.SaveUser(ctx, user); err != nil {
			s.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to create user")
			WriteError(w, http.StatusInternalServerError, "Failed to create user")
			return
		}
		s.logger.Info().
			Str("user_id", user.UserID).
			Str("role", string(user.Role)).
			Msg("Created user account")
	default:
		s.logger.Error().Err(err).Msg("Failed to look up user")
		WriteError(w, http.StatusInternalServerError, "Failed to look up user")
		return
	}

	token, err := s.app.Codec.Issue(auth.Identity{
		UserID: user.UserID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue credential")
		WriteError(w, http.StatusInternalServerError, "Failed to issue credential")
		return
	}

	WriteJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

type validateRequest struct {
	Token string `json:"token"`
}

type validateResponse struct {
	Valid     bool      `json:"valid"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// handleAuthValidate verifies a presented token and returns the embedded
// identity. The failure reason is reported so callers can tell a stale
// session from a garbled one.
func (s *Server) handleAuthValidate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req validateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		WriteError(w, http.StatusBadRequest, "token is required")
		return
	}

	cred, err := s.app.Codec.Verify(req.Token)
	if err != nil {
		message := "invalid token"
		switch {
		case errors.Is(err, auth.ErrExpired):
			message = "token expired"
		case errors.Is(err, auth.ErrBadSignature):
			message = "invalid token signature"
		}
		WriteErrorWithCode(w, http.StatusUnauthorized, message, string(auth.DenyUnauthenticated))
		return
	}

	WriteJSON(w, http.StatusOK, validateResponse{
		Valid:     true,
		UserID:    cred.UserID,
		Email:     cred.Email,
		Role:      string(cred.Role),
		ExpiresAt: cred.ExpiresAt,
	})
}
