package models

import "time"

// ExternalToken is the stored OAuth access/refresh token pair granting
// classroom-data access on a user's behalf. At most one record exists per
// user id (upsert key). The record outlives a classroom disconnect, which
// only clears the user's link pointer.
type ExternalToken struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fresh reports whether the access token is still usable at the given time.
func (t *ExternalToken) Fresh(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}
