// Package interfaces defines service contracts for the Academy server
package interfaces

import (
	"context"

	"github.com/apollostem/academy/internal/models"
)

// TokenExchange is the provider response to a code exchange or refresh.
// RefreshToken is empty when the provider chose not to reissue one.
type TokenExchange struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	Scope        string
}

// OAuthClient drives the three-legged authorization-code flow against the
// external identity provider. It never retries; retry policy belongs to
// the caller.
type OAuthClient interface {
	// BuildAuthorizationURL constructs the consent URL for the fixed
	// read-only classroom scope list, with access_type=offline and
	// prompt=consent so a refresh token is issued on every consent.
	BuildAuthorizationURL(redirectURI string) string

	// ExchangeCode posts the authorization code to the token endpoint.
	ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenExchange, error)

	// Refresh posts the refresh token. Callers must not assume the
	// response carries a new refresh token.
	Refresh(ctx context.Context, refreshToken string) (*TokenExchange, error)
}

// Course is an external classroom course.
type Course struct {
	ID      string
	Name    string
	Section string
	Subject string
}

// CourseWork is an external classroom coursework item. DueDate is empty
// when the provider payload has none.
type CourseWork struct {
	ID          string
	Title       string
	Description string
	DueDate     string // YYYY-MM-DD
}

// Profile is an external classroom roster entry.
type Profile struct {
	ID    string
	Email string
	Name  string
}

// ClassroomClient reads course, roster, and coursework data on behalf of a
// user, authorized by their external access token. A non-2xx response is a
// hard failure for the calling sync variant.
type ClassroomClient interface {
	// GetMyProfile reads the calling user's own classroom profile. Used at
	// connect time to learn the external subject id.
	GetMyProfile(ctx context.Context, accessToken string) (*Profile, error)
	ListCourses(ctx context.Context, accessToken string) ([]*Course, error)
	ListCourseWork(ctx context.Context, accessToken, courseID string) ([]*CourseWork, error)
	ListStudents(ctx context.Context, accessToken, courseID string) ([]*Profile, error)
	ListTeachers(ctx context.Context, accessToken, courseID string) ([]*Profile, error)
}

// GenerationParams are the fixed sampling parameters for one gateway call
// site. They are set per feature at compile time, never tuned at runtime.
type GenerationParams struct {
	Temperature     float32
	TopK            float32
	TopP            float32
	MaxOutputTokens int32
}

// GenerativeClient is the raw model client wrapped by the Generation
// Gateway. Errors surface here and are absorbed by the gateway.
type GenerativeClient interface {
	GenerateContent(ctx context.Context, prompt, systemInstruction string, params GenerationParams) (string, error)
}

// Gateway is the single call shape used by every AI-assisted feature. It
// always returns a usable result; callers never need error handling around
// a generation call.
type Gateway interface {
	Generate(ctx context.Context, prompt, systemInstruction, fallback string, params GenerationParams) models.GenerationResult
}
