// Package classroom provides a client for the Google Classroom API
package classroom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/apollostem/academy/internal/common"
	"github.com/apollostem/academy/internal/interfaces"
)

const (
	DefaultBaseURL   = "https://classroom.googleapis.com/v1"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the ClassroomClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Classroom client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a classroom API error. Any non-2xx response surfaces
// as one of these and aborts the calling sync variant.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("classroom API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request authorized with the user's
// external access token.
func (c *Client) get(ctx context.Context, accessToken, path string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", path).Msg("Classroom API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetMyProfile retrieves the calling user's own profile
func (c *Client) GetMyProfile(ctx context.Context, accessToken string) (*interfaces.Profile, error) {
	var resp profileResponse
	if err := c.get(ctx, accessToken, "/userProfiles/me", &resp); err != nil {
		return nil, err
	}
	return &interfaces.Profile{
		ID:    resp.ID,
		Email: resp.EmailAddress,
		Name:  resp.Name.FullName,
	}, nil
}

type profileResponse struct {
	ID           string `json:"id"`
	EmailAddress string `json:"emailAddress"`
	Name         struct {
		FullName string `json:"fullName"`
	} `json:"name"`
}

// ListCourses retrieves the caller's active courses
func (c *Client) ListCourses(ctx context.Context, accessToken string) ([]*interfaces.Course, error) {
	var resp coursesResponse
	if err := c.get(ctx, accessToken, "/courses?courseStates=ACTIVE", &resp); err != nil {
		return nil, err
	}

	courses := make([]*interfaces.Course, len(resp.Courses))
	for i, course := range resp.Courses {
		courses[i] = &interfaces.Course{
			ID:      course.ID,
			Name:    course.Name,
			Section: course.Section,
			Subject: course.DescriptionHeading,
		}
	}
	return courses, nil
}

type coursesResponse struct {
	Courses []struct {
		ID                 string `json:"id"`
		Name               string `json:"name"`
		Section            string `json:"section"`
		DescriptionHeading string `json:"descriptionHeading"`
	} `json:"courses"`
}

// ListCourseWork retrieves coursework for a course
func (c *Client) ListCourseWork(ctx context.Context, accessToken, courseID string) ([]*interfaces.CourseWork, error) {
	var resp courseWorkResponse
	path := fmt.Sprintf("/courses/%s/courseWork", courseID)
	if err := c.get(ctx, accessToken, path, &resp); err != nil {
		return nil, err
	}

	items := make([]*interfaces.CourseWork, len(resp.CourseWork))
	for i, cw := range resp.CourseWork {
		item := &interfaces.CourseWork{
			ID:          cw.ID,
			Title:       cw.Title,
			Description: cw.Description,
		}
		if cw.DueDate != nil {
			item.DueDate = fmt.Sprintf("%04d-%02d-%02d", cw.DueDate.Year, cw.DueDate.Month, cw.DueDate.Day)
		}
		items[i] = item
	}
	return items, nil
}

type courseWorkResponse struct {
	CourseWork []struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		DueDate     *struct {
			Year  int `json:"year"`
			Month int `json:"month"`
			Day   int `json:"day"`
		} `json:"dueDate"`
	} `json:"courseWork"`
}

// ListStudents retrieves the student roster for a course
func (c *Client) ListStudents(ctx context.Context, accessToken, courseID string) ([]*interfaces.Profile, error) {
	var resp studentsResponse
	path := fmt.Sprintf("/courses/%s/students", courseID)
	if err := c.get(ctx, accessToken, path, &resp); err != nil {
		return nil, err
	}

	profiles := make([]*interfaces.Profile, len(resp.Students))
	for i, s := range resp.Students {
		profiles[i] = &interfaces.Profile{
			ID:    s.Profile.ID,
			Email: s.Profile.EmailAddress,
			Name:  s.Profile.Name.FullName,
		}
	}
	return profiles, nil
}

type studentsResponse struct {
	Students []rosterEntry `json:"students"`
}

// ListTeachers retrieves the teacher roster for a course
func (c *Client) ListTeachers(ctx context.Context, accessToken, courseID string) ([]*interfaces.Profile, error) {
	var resp teachersResponse
	path := fmt.Sprintf("/courses/%s/teachers", courseID)
	if err := c.get(ctx, accessToken, path, &resp); err != nil {
		return nil, err
	}

	profiles := make([]*interfaces.Profile, len(resp.Teachers))
	for i, t := range resp.Teachers {
		profiles[i] = &interfaces.Profile{
			ID:    t.Profile.ID,
			Email: t.Profile.EmailAddress,
			Name:  t.Profile.Name.FullName,
		}
	}
	return profiles, nil
}

type teachersResponse struct {
	Teachers []rosterEntry `json:"teachers"`
}

type rosterEntry struct {
	Profile struct {
		ID           string `json:"id"`
		EmailAddress string `json:"emailAddress"`
		Name         struct {
			FullName string `json:"fullName"`
		} `json:"name"`
	} `json:"profile"`
}

// Ensure Client implements ClassroomClient
var _ interfaces.ClassroomClient = (*Client)(nil)
