// Package interfaces defines service contracts for the Academy server
package interfaces

import (
	"context"

	"github.com/apollostem/academy/internal/models"
)

// SyncService reconciles external classroom data into local storage.
// The variant is selected by the local user's role.
type SyncService interface {
	Sync(ctx context.Context, userID string) (*models.SyncSummary, error)
}

// TutorService groups the AI-assisted features. Every method returns usable
// text or structured data; upstream generation failures degrade to canned
// fallbacks, never to errors.
type TutorService interface {
	SynthesizeReport(ctx context.Context, studentName string, assignments []*models.Assignment) string
	ParseTasks(ctx context.Context, freeText string) []string
	GenerateMissions(ctx context.Context, subject string, count int) []string
	DraftFeedback(ctx context.Context, studentName, assignmentTitle, observation string) string
}
