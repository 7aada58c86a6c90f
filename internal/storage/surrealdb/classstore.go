package surrealdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/apollostem/academy/internal/common"
	"github.com/apollostem/academy/internal/interfaces"
	"github.com/apollostem/academy/internal/models"
)

// Not-found sentinels for classroom lookups.
var (
	ErrClassNotFound      = errors.New("class not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
)

// ClassStore implements interfaces.ClassStore using SurrealDB.
//
// Record ids key on external entity ids so that re-running a sync against
// unchanged external data writes the same records instead of duplicating
// them. Enrollments use a composite <student>_<class> id for the same
// reason.
type ClassStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewClassStore creates a new ClassStore.
func NewClassStore(db *surrealdb.DB, logger *common.Logger) *ClassStore {
	return &ClassStore{db: db, logger: logger}
}

// --- Classes ---

func (s *ClassStore) GetClass(ctx context.Context, classID string) (*models.Class, error) {
	class, err := surrealdb.Select[models.Class](ctx, s.db, surrealmodels.NewRecordID("class", classID))
	if err != nil {
		return nil, fmt.Errorf("failed to select class: %w", err)
	}
	if class == nil || class.ClassID == "" {
		return nil, ErrClassNotFound
	}
	return class, nil
}

func (s *ClassStore) EnsureClass(ctx context.Context, class *models.Class) (bool, error) {
	if _, err := s.GetClass(ctx, class.ClassID); err == nil {
		return false, nil
	}
	class.CreatedAt = time.Now()
	if err := s.upsertClass(ctx, class); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ClassStore) UpsertClass(ctx context.Context, class *models.Class) error {
	if existing, err := s.GetClass(ctx, class.ClassID); err == nil {
		class.CreatedAt = existing.CreatedAt
	} else {
		class.CreatedAt = time.Now()
	}
	class.ModifiedAt = time.Now()
	return s.upsertClass(ctx, class)
}

func (s *ClassStore) upsertClass(ctx context.Context, class *models.Class) error {
	sql := "UPSERT type::record('class', $id) CONTENT $class"
	vars := map[string]any{"id": class.ClassID, "class": class}
	if _, err := surrealdb.Query[[]models.Class](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to save class: %w", err)
	}
	return nil
}

// --- Enrollments ---

// enrollmentID builds the composite record id for the unique (student, class) pair.
func enrollmentID(studentID, classID string) string {
	return studentID + "_" + classID
}

func (s *ClassStore) EnsureEnrollment(ctx context.Context, studentID, classID string) (bool, error) {
	rid := surrealmodels.NewRecordID("enrollment", enrollmentID(studentID, classID))
	existing, err := surrealdb.Select[models.Enrollment](ctx, s.db, rid)
	if err != nil && !isNotFoundError(err) {
		return false, fmt.Errorf("failed to select enrollment: %w", err)
	}
	if existing != nil && existing.StudentID != "" {
		return false, nil
	}

	enrollment := models.Enrollment{
		StudentID: studentID,
		ClassID:   classID,
		CreatedAt: time.Now(),
	}
	sql := "UPSERT type::record('enrollment', $id) CONTENT $enrollment"
	vars := map[string]any{"id": enrollmentID(studentID, classID), "enrollment": enrollment}
	if _, err := surrealdb.Query[[]models.Enrollment](ctx, s.db, sql, vars); err != nil {
		return false, fmt.Errorf("failed to save enrollment: %w", err)
	}
	return true, nil
}

func (s *ClassStore) ListEnrollments(ctx context.Context, classID string) ([]*models.Enrollment, error) {
	sql := "SELECT * FROM enrollment WHERE class_id = $class_id"
	vars := map[string]any{"class_id": classID}

	results, err := surrealdb.Query[[]models.Enrollment](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	var mapped []*models.Enrollment
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
	}
	return mapped, nil
}

// --- Assignments ---

func (s *ClassStore) GetAssignment(ctx context.Context, assignmentID string) (*models.Assignment, error) {
	a, err := surrealdb.Select[models.Assignment](ctx, s.db, surrealmodels.NewRecordID("assignment", assignmentID))
	if err != nil {
		return nil, fmt.Errorf("failed to select assignment: %w", err)
	}
	if a == nil || a.AssignmentID == "" {
		return nil, ErrAssignmentNotFound
	}
	return a, nil
}

func (s *ClassStore) EnsureAssignment(ctx context.Context, a *models.Assignment) (bool, error) {
	if _, err := s.GetAssignment(ctx, a.AssignmentID); err == nil {
		return false, nil
	}
	a.CreatedAt = time.Now()
	if err := s.upsertAssignment(ctx, a); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ClassStore) UpsertAssignment(ctx context.Context, a *models.Assignment) error {
	if existing, err := s.GetAssignment(ctx, a.AssignmentID); err == nil {
		a.CreatedAt = existing.CreatedAt
	} else {
		a.CreatedAt = time.Now()
	}
	a.ModifiedAt = time.Now()
	return s.upsertAssignment(ctx, a)
}

func (s *ClassStore) upsertAssignment(ctx context.Context, a *models.Assignment) error {
	sql := "UPSERT type::record('assignment', $id) CONTENT $assignment"
	vars := map[string]any{"id": a.AssignmentID, "assignment": a}
	if _, err := surrealdb.Query[[]models.Assignment](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}
	return nil
}

func (s *ClassStore) ListAssignments(ctx context.Context, classID string) ([]*models.Assignment, error) {
	sql := "SELECT * FROM assignment WHERE class_id = $class_id"
	vars := map[string]any{"class_id": classID}

	results, err := surrealdb.Query[[]models.Assignment](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	var mapped []*models.Assignment
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
	}
	return mapped, nil
}

// Compile-time check
var _ interfaces.ClassStore = (*ClassStore)(nil)
