package models

import "time"

// DueDateNone is the tombstone stored when the external coursework payload
// carries no due date. Stored instead of a null so stale-assignment queries
// can treat "no due date" and "missing field" identically.
const DueDateNone = "9999-12-31"

// Class is a local copy of an external classroom course, keyed by the
// external course id.
type Class struct {
	ClassID    string    `json:"class_id"`
	Name       string    `json:"name"`
	Section    string    `json:"section,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	TeacherID  string    `json:"teacher_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at,omitempty"`
}

// Enrollment links a student to a class. The (student, class) pair is unique.
type Enrollment struct {
	StudentID string    `json:"student_id"`
	ClassID   string    `json:"class_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Assignment is a local copy of external coursework, keyed by the external
// coursework id.
type Assignment struct {
	AssignmentID string    `json:"assignment_id"`
	ClassID      string    `json:"class_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	DueDate      string    `json:"due_date"` // YYYY-MM-DD, DueDateNone when absent upstream
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at,omitempty"`
}

// SyncSummary reports one classroom sync invocation. It is returned to the
// caller and never persisted. Counts reflect writes committed before any
// failure; a failed sync is not rolled back.
type SyncSummary struct {
	Classes     int    `json:"classes"`
	Assignments int    `json:"assignments"`
	Students    int    `json:"students"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}
