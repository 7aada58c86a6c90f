package models

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles. Any other value is rejected at
// credential issuance and at user creation.
type Role string

const (
	RoleStudent   Role = "student"
	RoleTeacher   Role = "teacher"
	RoleVolunteer Role = "volunteer"
	RoleParent    Role = "parent"
)

// ParseRole validates a role string against the closed enumeration.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleTeacher, RoleVolunteer, RoleParent:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// User represents an account stored in the academy server.
type User struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	ExternalID string    `json:"external_id,omitempty"` // Google subject id, set on classroom connect
	Linked     bool      `json:"linked"`                // classroom-link pointer; cleared on disconnect
	LastSyncAt time.Time `json:"last_sync_at,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at,omitempty"`
}
