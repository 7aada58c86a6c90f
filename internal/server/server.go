// Package server exposes the REST API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/apollostem/academy/internal/app"
	"github.com/apollostem/academy/internal/common"
	"github.com/apollostem/academy/internal/models"
)

// Server wraps the HTTP server and application reference.
type Server struct {
	app    *app.App
	server *http.Server
	logger *common.Logger
}

// NewServer creates a new HTTP REST API server.
func NewServer(a *app.App) *Server {
	s := &Server{
		app:    a,
		logger: a.Logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := applyMiddleware(mux, a.Logger, a.Codec)

	host := a.Config.Server.Host
	port := a.Config.Server.Port

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// registerRoutes attaches all REST endpoints. Role requirements are
// declared here; the gate itself knows nothing about endpoints.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("/api/auth/validate", s.handleAuthValidate)

	mux.HandleFunc("/api/me", requireRoles(s.handleMe))

	mux.HandleFunc("/api/classroom/connect", requireRoles(s.handleClassroomConnect, models.RoleStudent, models.RoleTeacher))
	mux.HandleFunc("/api/classroom/callback", requireRoles(s.handleClassroomCallback, models.RoleStudent, models.RoleTeacher))
	mux.HandleFunc("/api/classroom/status", requireRoles(s.handleClassroomStatus))
	mux.HandleFunc("/api/classroom/disconnect", requireRoles(s.handleClassroomDisconnect, models.RoleStudent, models.RoleTeacher))
	mux.HandleFunc("/api/classroom/sync", requireRoles(s.handleClassroomSync, models.RoleStudent, models.RoleTeacher, models.RoleVolunteer))

	mux.HandleFunc("/api/ai/report", requireRoles(s.handleAIReport, models.RoleTeacher))
	mux.HandleFunc("/api/ai/tasks", requireRoles(s.handleAITasks))
	mux.HandleFunc("/api/ai/missions", requireRoles(s.handleAIMissions, models.RoleStudent))
	mux.HandleFunc("/api/ai/feedback", requireRoles(s.handleAIFeedback, models.RoleTeacher))
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
