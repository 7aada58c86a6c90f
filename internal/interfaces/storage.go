// Package interfaces defines service contracts for the Academy server
package interfaces

import (
	"context"

	"github.com/apollostem/academy/internal/models"
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	UserStore() UserStore
	ClassStore() ClassStore
	TokenStore() TokenStore

	// Lifecycle
	Close() error
}

// UserStore manages user accounts.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]string, error)

	// StampLastSync records the completion time of a classroom sync.
	StampLastSync(ctx context.Context, userID string) error

	// CountEnrolledStudents returns the number of distinct students with at
	// least one enrollment. Used by the volunteer sync variant.
	CountEnrolledStudents(ctx context.Context) (int, error)
}

// ClassStore manages classes, enrollments, and assignments. The two upsert
// policies are deliberate: insert-if-absent for student-driven syncs,
// insert-or-update where a teacher is authoritative.
type ClassStore interface {
	GetClass(ctx context.Context, classID string) (*models.Class, error)
	// EnsureClass inserts the class if absent and reports whether it wrote.
	// Existing class metadata is never overwritten.
	EnsureClass(ctx context.Context, class *models.Class) (bool, error)
	// UpsertClass inserts or replaces class metadata unconditionally.
	UpsertClass(ctx context.Context, class *models.Class) error

	// EnsureEnrollment inserts the enrollment link if absent.
	EnsureEnrollment(ctx context.Context, studentID, classID string) (bool, error)
	ListEnrollments(ctx context.Context, classID string) ([]*models.Enrollment, error)

	GetAssignment(ctx context.Context, assignmentID string) (*models.Assignment, error)
	// EnsureAssignment inserts the assignment if absent.
	EnsureAssignment(ctx context.Context, a *models.Assignment) (bool, error)
	// UpsertAssignment inserts or replaces the assignment unconditionally.
	UpsertAssignment(ctx context.Context, a *models.Assignment) error
	ListAssignments(ctx context.Context, classID string) ([]*models.Assignment, error)
}

// TokenStore persists external OAuth token records, one per user.
type TokenStore interface {
	// Upsert writes the record keyed by userID. On conflict the access
	// token, expiry, and scope are replaced unconditionally; the refresh
	// token is replaced only when refreshToken is non-empty, because the
	// provider does not reissue one on every exchange.
	Upsert(ctx context.Context, userID, accessToken, refreshToken string, expiresInSeconds int, scope string) error
	Get(ctx context.Context, userID string) (*models.ExternalToken, error)
	// HasConnection reports whether a record exists, regardless of expiry.
	HasConnection(ctx context.Context, userID string) (bool, error)
	Delete(ctx context.Context, userID string) error
}
