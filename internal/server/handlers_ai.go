package server

import (
	"net/http"

	"github.com/apollostem/academy/internal/auth"
)

type reportRequest struct {
	StudentName string `json:"student_name"`
	ClassID     string `json:"class_id"`
}

// handleAIReport drafts a progress report over the assignments of a class.
func (s *Server) handleAIReport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req reportRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.StudentName == "" || req.ClassID == "" {
		WriteError(w, http.StatusBadRequest, "student_name and class_id are required")
		return
	}

	ctx := r.Context()
	assignments, err := s.app.Storage.ClassStore().ListAssignments(ctx, req.ClassID)
	if err != nil {
		s.logger.Error().Err(err).Str("class_id", req.ClassID).Msg("Failed to list assignments")
		WriteError(w, http.StatusInternalServerError, "Failed to list assignments")
		return
	}

	report := s.app.TutorService.SynthesizeReport(ctx, req.StudentName, assignments)
	WriteJSON(w, http.StatusOK, map[string]string{"report": report})
}

type tasksRequest struct {
	Text string `json:"text"`
}

// handleAITasks extracts a task list from free text.
func (s *Server) handleAITasks(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req tasksRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		WriteError(w, http.StatusBadRequest, "text is required")
		return
	}

	tasks := s.app.TutorService.ParseTasks(r.Context(), req.Text)
	WriteJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

type missionsRequest struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}

// handleAIMissions generates practice mission titles for a subject.
func (s *Server) handleAIMissions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req missionsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Subject == "" {
		WriteError(w, http.StatusBadRequest, "subject is required")
		return
	}

	missions := s.app.TutorService.GenerateMissions(r.Context(), req.Subject, req.Count)
	WriteJSON(w, http.StatusOK, map[string]interface{}{"missions": missions})
}

type feedbackRequest struct {
	StudentName     string `json:"student_name"`
	AssignmentTitle string `json:"assignment_title"`
	Observation     string `json:"observation"`
}

// handleAIFeedback drafts teacher feedback on an assignment.
func (s *Server) handleAIFeedback(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req feedbackRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.StudentName == "" || req.AssignmentTitle == "" {
		WriteError(w, http.StatusBadRequest, "student_name and assignment_title are required")
		return
	}

	cred := auth.CredentialFromContext(r.Context())
	s.logger.Debug().
		Str("user_id", cred.UserID).
		Str("assignment", req.AssignmentTitle).
		Msg("Drafting feedback")

	feedback := s.app.TutorService.DraftFeedback(r.Context(), req.StudentName, req.AssignmentTitle, req.Observation)
	WriteJSON(w, http.StatusOK, map[string]string{"feedback": feedback})
}
