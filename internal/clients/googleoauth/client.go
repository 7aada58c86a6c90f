// Package googleoauth drives the Google authorization-code flow used for
// classroom-data access.
package googleoauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/apollostem/academy/internal/common"
	"github.com/apollostem/academy/internal/interfaces"
)

const (
	DefaultAuthEndpoint  = "https://accounts.google.com/o/oauth2/v2/auth"
	DefaultTokenEndpoint = "https://oauth2.googleapis.com/token"
	DefaultTimeout       = 30 * time.Second
)

// Scopes is the fixed read-only scope list covering course, roster,
// coursework, and profile access.
var Scopes = []string{
	"https://www.googleapis.com/auth/classroom.courses.readonly",
	"https://www.googleapis.com/auth/classroom.rosters.readonly",
	"https://www.googleapis.com/auth/classroom.coursework.me.readonly",
	"https://www.googleapis.com/auth/classroom.profile.emails",
}

// ExchangeError reports a failed authorization-code exchange, carrying the
// provider's error body.
type ExchangeError struct {
	StatusCode int
	Body       string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("oauth code exchange failed (status: %d): %s", e.StatusCode, e.Body)
}

// RefreshError reports a failed token refresh, carrying the provider's
// error body.
type RefreshError struct {
	StatusCode int
	Body       string
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("oauth token refresh failed (status: %d): %s", e.StatusCode, e.Body)
}

// Client implements the OAuthClient interface. It holds no local state
// beyond configuration and never retries; retry policy belongs to callers.
type Client struct {
	clientID      string
	clientSecret  string
	authEndpoint  string
	tokenEndpoint string
	httpClient    *http.Client
	logger        *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithEndpoints overrides the provider endpoints. Used by tests.
func WithEndpoints(authEndpoint, tokenEndpoint string) ClientOption {
	return func(c *Client) {
		c.authEndpoint = authEndpoint
		c.tokenEndpoint = tokenEndpoint
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Google OAuth client
func NewClient(clientID, clientSecret string, opts ...ClientOption) *Client {
	c := &Client{
		clientID:      clientID,
		clientSecret:  clientSecret,
		authEndpoint:  DefaultAuthEndpoint,
		tokenEndpoint: DefaultTokenEndpoint,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BuildAuthorizationURL constructs the consent URL. access_type=offline with
// prompt=consent forces refresh-token issuance on every consent.
func (c *Client) BuildAuthorizationURL(redirectURI string) string {
	params := url.Values{
		"redirect_uri":  {redirectURI},
		"client_id":     {c.clientID},
		"access_type":   {"offline"},
		"response_type": {"code"},
		"prompt":        {"consent"},
		"scope":         {strings.Join(Scopes, " ")},
	}
	return c.authEndpoint + "?" + params.Encode()
}

// tokenResponse is the provider's token endpoint response. Unknown extra
// fields are ignored.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// ExchangeCode posts the authorization code to the token endpoint.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*interfaces.TokenExchange, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"redirect_uri":  {redirectURI},
		"grant_type":    {"authorization_code"},
	}

	status, body, err := c.postForm(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("failed to execute token request: %w", err)
	}
	if status != http.StatusOK {
		return nil, &ExchangeError{StatusCode: status, Body: string(body)}
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	c.logger.Debug().Str("scope", resp.Scope).Msg("OAuth code exchanged")

	return &interfaces.TokenExchange{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		Scope:        resp.Scope,
	}, nil
}

// Refresh posts the refresh token. The provider does not reliably return a
// new refresh token here; callers must not assume one.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*interfaces.TokenExchange, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}

	status, body, err := c.postForm(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("failed to execute refresh request: %w", err)
	}
	if status != http.StatusOK {
		return nil, &RefreshError{StatusCode: status, Body: string(body)}
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	return &interfaces.TokenExchange{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		Scope:        resp.Scope,
	}, nil
}

// postForm posts a form to the token endpoint and returns status and body.
func (c *Client) postForm(ctx context.Context, form url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// Ensure Client implements OAuthClient
var _ interfaces.OAuthClient = (*Client)(nil)
