// Package sync reconciles external classroom data into local storage.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apollostem/academy/internal/common"
	"github.com/apollostem/academy/internal/interfaces"
	"github.com/apollostem/academy/internal/models"
)

// Typed failures callers branch on.
var (
	ErrNoConnection    = errors.New("no classroom connection for user")
	ErrNoRefreshToken  = errors.New("stored token expired and no refresh token available")
	ErrRoleNotSyncable = errors.New("role does not support classroom sync")
)

// Service selects and runs the role-specific sync variant. Writes are
// individually idempotent (keyed on external entity ids) and are not wrapped
// in a transaction: a failure mid-sync leaves already-committed progress in
// place and the store in a valid, re-syncable state. Concurrent syncs for
// the same user are not guarded against.
type Service struct {
	users     interfaces.UserStore
	classes   interfaces.ClassStore
	tokens    interfaces.TokenStore
	oauth     interfaces.OAuthClient
	classroom interfaces.ClassroomClient
	logger    *common.Logger
	now       func() time.Time
}

// NewService creates a sync service.
func NewService(
	users interfaces.UserStore,
	classes interfaces.ClassStore,
	tokens interfaces.TokenStore,
	oauth interfaces.OAuthClient,
	classroom interfaces.ClassroomClient,
	logger *common.Logger,
) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		users:     users,
		classes:   classes,
		tokens:    tokens,
		oauth:     oauth,
		classroom: classroom,
		logger:    logger,
		now:       time.Now,
	}
}

// Sync runs the variant matching the user's role and returns a summary.
// On failure the summary carries the counts committed before the abort.
func (s *Service) Sync(ctx context.Context, userID string) (*models.SyncSummary, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	switch user.Role {
	case models.RoleStudent:
		return s.syncStudent(ctx, user)
	case models.RoleTeacher:
		return s.syncTeacher(ctx, user)
	case models.RoleVolunteer:
		return s.syncVolunteer(ctx, user)
	default:
		return nil, ErrRoleNotSyncable
	}
}

// accessToken resolves a usable external access token for the user,
// refreshing through the OAuth client when the stored one is stale. A
// successful refresh is written back before use.
func (s *Service) accessToken(ctx context.Context, userID string) (string, error) {
	record, err := s.tokens.Get(ctx, userID)
	if err != nil {
		return "", ErrNoConnection
	}

	if record.Fresh(s.now()) {
		return record.AccessToken, nil
	}

	if record.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	exchange, err := s.oauth.Refresh(ctx, record.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh access token: %w", err)
	}

	scope := exchange.Scope
	if scope == "" {
		scope = record.Scope
	}
	if err := s.tokens.Upsert(ctx, userID, exchange.AccessToken, exchange.RefreshToken, exchange.ExpiresIn, scope); err != nil {
		return "", fmt.Errorf("failed to store refreshed token: %w", err)
	}

	return exchange.AccessToken, nil
}

// syncStudent lists the caller's active courses and pulls each course's
// coursework. Student syncs never overwrite existing class metadata or
// assignments; every write is insert-if-absent.
func (s *Service) syncStudent(ctx context.Context, user *models.User) (*models.SyncSummary, error) {
	summary := &models.SyncSummary{}

	token, err := s.accessToken(ctx, user.UserID)
	if err != nil {
		return s.fail(summary, err)
	}

	courses, err := s.classroom.ListCourses(ctx, token)
	if err != nil {
		return s.fail(summary, err)
	}

	for _, course := range courses {
		created, err := s.classes.EnsureClass(ctx, &models.Class{
			ClassID: course.ID,
			Name:    course.Name,
			Section: course.Section,
			Subject: course.Subject,
		})
		if err != nil {
			return s.fail(summary, err)
		}
		if created {
			summary.Classes++
		}

		if _, err := s.classes.EnsureEnrollment(ctx, user.UserID, course.ID); err != nil {
			return s.fail(summary, err)
		}

		coursework, err := s.classroom.ListCourseWork(ctx, token, course.ID)
		if err != nil {
			return s.fail(summary, err)
		}

		for _, cw := range coursework {
			dueDate := cw.DueDate
			if dueDate == "" {
				dueDate = models.DueDateNone
			}
			if _, err := s.classes.EnsureAssignment(ctx, &models.Assignment{
				AssignmentID: cw.ID,
				ClassID:      course.ID,
				Title:        cw.Title,
				Description:  cw.Description,
				DueDate:      dueDate,
			}); err != nil {
				return s.fail(summary, err)
			}
			summary.Assignments++
		}
	}

	if err := s.users.StampLastSync(ctx, user.UserID); err != nil {
		return s.fail(summary, err)
	}

	summary.Success = true
	s.logger.Info().
		Str("user_id", user.UserID).
		Int("assignments", summary.Assignments).
		Msg("Student sync complete")
	return summary, nil
}

// syncTeacher is authoritative for class metadata and assignments, so its
// writes are insert-or-update. A course where the caller's external id is
// absent from the teacher roster is skipped entirely: a teacher can only
// sync courses they actually teach.
func (s *Service) syncTeacher(ctx context.Context, user *models.User) (*models.SyncSummary, error) {
	summary := &models.SyncSummary{}

	token, err := s.accessToken(ctx, user.UserID)
	if err != nil {
		return s.fail(summary, err)
	}

	courses, err := s.classroom.ListCourses(ctx, token)
	if err != nil {
		return s.fail(summary, err)
	}

	for _, course := range courses {
		teachers, err := s.classroom.ListTeachers(ctx, token, course.ID)
		if err != nil {
			return s.fail(summary, err)
		}
		if !rosterContains(teachers, user.ExternalID) {
			s.logger.Debug().
				Str("user_id", user.UserID).
				Str("course_id", course.ID).
				Msg("Skipping course not taught by caller")
			continue
		}

		if err := s.classes.UpsertClass(ctx, &models.Class{
			ClassID:   course.ID,
			Name:      course.Name,
			Section:   course.Section,
			Subject:   course.Subject,
			TeacherID: user.UserID,
		}); err != nil {
			return s.fail(summary, err)
		}
		summary.Classes++

		students, err := s.classroom.ListStudents(ctx, token, course.ID)
		if err != nil {
			return s.fail(summary, err)
		}

		for _, profile := range students {
			studentID, created, err := s.ensureStudent(ctx, profile)
			if err != nil {
				return s.fail(summary, err)
			}
			if created {
				summary.Students++
			}
			if _, err := s.classes.EnsureEnrollment(ctx, studentID, course.ID); err != nil {
				return s.fail(summary, err)
			}
		}

		coursework, err := s.classroom.ListCourseWork(ctx, token, course.ID)
		if err != nil {
			return s.fail(summary, err)
		}

		for _, cw := range coursework {
			dueDate := cw.DueDate
			if dueDate == "" {
				dueDate = models.DueDateNone
			}
			if err := s.classes.UpsertAssignment(ctx, &models.Assignment{
				AssignmentID: cw.ID,
				ClassID:      course.ID,
				Title:        cw.Title,
				Description:  cw.Description,
				DueDate:      dueDate,
			}); err != nil {
				return s.fail(summary, err)
			}
			summary.Assignments++
		}
	}

	if err := s.users.StampLastSync(ctx, user.UserID); err != nil {
		return s.fail(summary, err)
	}

	summary.Success = true
	s.logger.Info().
		Str("user_id", user.UserID).
		Int("classes", summary.Classes).
		Int("assignments", summary.Assignments).
		Int("students", summary.Students).
		Msg("Teacher sync complete")
	return summary, nil
}

// syncVolunteer performs no external calls; volunteers have no classroom
// access. It stamps last-sync and reports the count of currently enrolled
// students as an engagement metric.
func (s *Service) syncVolunteer(ctx context.Context, user *models.User) (*models.SyncSummary, error) {
	summary := &models.SyncSummary{}

	count, err := s.users.CountEnrolledStudents(ctx)
	if err != nil {
		return s.fail(summary, err)
	}
	summary.Students = count

	if err := s.users.StampLastSync(ctx, user.UserID); err != nil {
		return s.fail(summary, err)
	}

	summary.Success = true
	return summary, nil
}

// ensureStudent creates a placeholder account for a previously-unseen
// external student, keyed by external id and defaulted to role student.
// Returns the local user id.
func (s *Service) ensureStudent(ctx context.Context, profile *interfaces.Profile) (string, bool, error) {
	if existing, err := s.users.GetUserByExternalID(ctx, profile.ID); err == nil {
		return existing.UserID, false, nil
	}

	user := &models.User{
		UserID:     "google_" + profile.ID,
		Email:      profile.Email,
		Name:       profile.Name,
		Role:       models.RoleStudent,
		ExternalID: profile.ID,
		CreatedAt:  s.now(),
	}
	if err := s.users.SaveUser(ctx, user); err != nil {
		return "", false, fmt.Errorf("failed to create placeholder student: %w", err)
	}
	return user.UserID, true, nil
}

// fail finalizes a summary for an aborted sync. Partial progress already
// committed is reported, not rolled back.
func (s *Service) fail(summary *models.SyncSummary, err error) (*models.SyncSummary, error) {
	summary.Success = false
	summary.Error = err.Error()
	return summary, err
}

// rosterContains reports whether a roster includes the given external id.
func rosterContains(roster []*interfaces.Profile, externalID string) bool {
	for _, p := range roster {
		if p.ID == externalID {
			return true
		}
	}
	return false
}

// Ensure Service implements SyncService
var _ interfaces.SyncService = (*Service)(nil)
