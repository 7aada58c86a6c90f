// Package tutor implements the AI-assisted features: report synthesis,
// task parsing, mission generation, and feedback drafting. Every feature
// calls through the Generation Gateway, so a degraded upstream produces
// canned output rather than an error.
package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/apollostem/academy/internal/common"
	"github.com/apollostem/academy/internal/interfaces"
	"github.com/apollostem/academy/internal/models"
	"github.com/apollostem/academy/internal/services/generation"
)

// Sampling parameters are fixed per feature. Reports run cooler than
// missions; parsing runs coldest so output stays machine-readable.
var (
	reportParams   = interfaces.GenerationParams{Temperature: 0.4, TopK: 32, TopP: 0.9, MaxOutputTokens: 1024}
	taskParams     = interfaces.GenerationParams{Temperature: 0.1, TopK: 16, TopP: 0.8, MaxOutputTokens: 512}
	missionParams  = interfaces.GenerationParams{Temperature: 0.8, TopK: 40, TopP: 0.95, MaxOutputTokens: 768}
	feedbackParams = interfaces.GenerationParams{Temperature: 0.5, TopK: 32, TopP: 0.9, MaxOutputTokens: 512}
)

const reportSystemInstruction = "You are an encouraging STEM tutor writing progress summaries for parents. Keep the tone warm and concrete."

// Service implements interfaces.TutorService.
type Service struct {
	gateway interfaces.Gateway
	logger  *common.Logger
}

// NewService creates a tutor service.
func NewService(gateway interfaces.Gateway, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{gateway: gateway, logger: logger}
}

// SynthesizeReport drafts a progress report over a student's assignments.
func (s *Service) SynthesizeReport(ctx context.Context, studentName string, assignments []*models.Assignment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a short progress report for student %s based on their current assignments:\n", studentName)
	for _, a := range assignments {
		fmt.Fprintf(&sb, "- %s (due %s)\n", a.Title, a.DueDate)
	}
	sb.WriteString("\nSummarize workload and suggest one focus area.")

	fallback := fmt.Sprintf("%s is currently working on %d assignments. A detailed report is not available right now.", studentName, len(assignments))

	result := s.gateway.Generate(ctx, sb.String(), reportSystemInstruction, fallback, reportParams)
	if result.Fallback {
		s.logger.Debug().Str("student", studentName).Msg("Report synthesis used fallback")
	}
	return result.Text
}

// ParseTasks extracts a task list from free text. The model is asked for a
// JSON array; malformed output degrades to line-splitting the input.
func (s *Service) ParseTasks(ctx context.Context, freeText string) []string {
	prompt := fmt.Sprintf(
		"Extract the individual tasks from the following text. Respond with a JSON array of short task strings and nothing else.\n\n%s",
		freeText,
	)

	result := s.gateway.Generate(ctx, prompt, "", "", taskParams)
	if result.Fallback {
		return generation.ParseLines(freeText, []string{freeText})
	}
	return generation.ParseJSONList(result.Text, generation.ParseLines(freeText, []string{freeText}))
}

// GenerateMissions produces practice mission titles for a subject.
func (s *Service) GenerateMissions(ctx context.Context, subject string, count int) []string {
	if count <= 0 {
		count = 3
	}
	prompt := fmt.Sprintf(
		"Generate %d short, fun practice mission titles for a %s class. Respond with a comma-separated list and nothing else.",
		count, subject,
	)

	defaults := defaultMissions(subject, count)
	result := s.gateway.Generate(ctx, prompt, "", "", missionParams)
	if result.Fallback {
		return defaults
	}
	missions := generation.ParseCommaList(result.Text, defaults)
	if len(missions) > count {
		missions = missions[:count]
	}
	return missions
}

// DraftFeedback drafts teacher feedback on a student's assignment work.
func (s *Service) DraftFeedback(ctx context.Context, studentName, assignmentTitle, observation string) string {
	prompt := fmt.Sprintf(
		"Draft two sentences of constructive feedback for student %s on the assignment %q. Teacher observation: %s",
		studentName, assignmentTitle, observation,
	)

	fallback := fmt.Sprintf("Good effort on %q, %s. Keep practicing and ask questions where anything is unclear.", assignmentTitle, studentName)

	return s.gateway.Generate(ctx, prompt, "", fallback, feedbackParams).Text
}

// defaultMissions builds the canned mission list used when generation is
// unavailable.
func defaultMissions(subject string, count int) []string {
	base := []string{
		fmt.Sprintf("Review this week's %s notes", subject),
		fmt.Sprintf("Complete one %s practice problem", subject),
		fmt.Sprintf("Explain a %s concept to a classmate", subject),
		fmt.Sprintf("Find a real-world example of %s", subject),
		fmt.Sprintf("Write three questions about %s", subject),
	}
	if count < len(base) {
		return base[:count]
	}
	return base
}

// Ensure Service implements TutorService
var _ interfaces.TutorService = (*Service)(nil)
