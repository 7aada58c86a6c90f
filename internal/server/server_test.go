package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apollostem/academy/internal/app"
	"github.com/apollostem/academy/internal/auth"
	"github.com/apollostem/academy/internal/common"
	"github.com/apollostem/academy/internal/interfaces"
	"github.com/apollostem/academy/internal/models"
	"github.com/apollostem/academy/internal/services/generation"
	syncsvc "github.com/apollostem/academy/internal/services/sync"
	"github.com/apollostem/academy/internal/services/tutor"
	testcommon "github.com/apollostem/academy/test/common"
)

type testEnv struct {
	handler   http.Handler
	codec     *auth.Codec
	storage   *testcommon.MemoryStorage
	oauth     *testcommon.MockOAuthClient
	classroom *testcommon.MockClassroomClient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	config := common.NewDefaultConfig()
	logger := common.NewSilentLogger()
	codec := auth.NewCodec("test-secret", time.Hour)
	storage := testcommon.NewMemoryStorage()
	oauth := &testcommon.MockOAuthClient{}
	classroomClient := testcommon.NewMockClassroomClient()

	// No generative client configured; AI endpoints serve fallbacks.
	gateway := generation.NewGateway(nil, logger)

	a := &app.App{
		Config:          config,
		Logger:          logger,
		Codec:           codec,
		Storage:         storage,
		OAuthClient:     oauth,
		ClassroomClient: classroomClient,
		Gateway:         gateway,
		SyncService: syncsvc.NewService(
			storage.UserStore(),
			storage.ClassStore(),
			storage.TokenStore(),
			oauth,
			classroomClient,
			logger,
		),
		TutorService: tutor.NewService(gateway, logger),
		StartupTime:  time.Now(),
	}

	return &testEnv{
		handler:   NewServer(a).Handler(),
		codec:     codec,
		storage:   storage,
		oauth:     oauth,
		classroom: classroomClient,
	}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedUser(t *testing.T, user *models.User) string {
	t.Helper()
	if err := e.storage.UserStore().SaveUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	token, err := e.codec.Issue(auth.Identity{UserID: user.UserID, Email: user.Email, Role: user.Role})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func TestLogin_CreatesUserAndIssuesToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "new@example.com", "name": "New Student", "role": "student",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp loginResponse
	decodeBody(t, rec, &resp)
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.User == nil || resp.User.Role != models.RoleStudent {
		t.Fatalf("unexpected user: %+v", resp.User)
	}

	cred, err := env.codec.Verify(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if cred.UserID != resp.User.UserID {
		t.Errorf("token subject %q does not match user %q", cred.UserID, resp.User.UserID)
	}
}

func TestLogin_RejectsUnknownRole(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "x@example.com", "role": "admin",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", rec.Code)
	}
}

func TestLogin_RoleMismatchOnExistingAccount(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, &models.User{UserID: "u1", Email: "taken@example.com", Role: models.RoleStudent})

	rec := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "taken@example.com", "role": "teacher",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for role mismatch, got %d", rec.Code)
	}
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, &models.User{UserID: "u1", Email: "u1@example.com", Role: models.RoleTeacher})

	rec := env.request(t, http.MethodPost, "/api/auth/validate", "", map[string]string{"token": token})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp validateResponse
	decodeBody(t, rec, &resp)
	if !resp.Valid || resp.UserID != "u1" || resp.Role != "teacher" {
		t.Errorf("unexpected validate response: %+v", resp)
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	expiredCodec := auth.NewCodec("test-secret", -time.Hour)
	token, err := expiredCodec.Issue(auth.Identity{UserID: "u1", Email: "u1@example.com", Role: models.RoleStudent})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	rec := env.request(t, http.MethodPost, "/api/auth/validate", "", map[string]string{"token": token})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	if resp.Error != "token expired" {
		t.Errorf("expected expiry reason, got %q", resp.Error)
	}
}

func TestProtectedEndpoint_NoToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != string(auth.DenyUnauthenticated) {
		t.Errorf("expected unauthenticated code, got %q", resp.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Error("expected WWW-Authenticate header")
	}
}

func TestProtectedEndpoint_ExpiredTokenIs401NotForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, &models.User{UserID: "stu1", Email: "stu1@example.com", Role: models.RoleStudent})

	// An expired token for a role the endpoint would reject anyway: expiry
	// wins, the caller is told to log in rather than that they lack access.
	expiredCodec := auth.NewCodec("test-secret", -time.Hour)
	token, err := expiredCodec.Issue(auth.Identity{UserID: "stu1", Email: "stu1@example.com", Role: models.RoleStudent})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	rec := env.request(t, http.MethodPost, "/api/ai/report", token, map[string]string{
		"student_name": "Maya", "class_id": "c1",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != string(auth.DenyUnauthenticated) {
		t.Errorf("expected unauthenticated code, got %q", resp.Code)
	}
}

func TestProtectedEndpoint_WrongRoleIs403(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, &models.User{UserID: "stu1", Email: "stu1@example.com", Role: models.RoleStudent})

	rec := env.request(t, http.MethodPost, "/api/ai/report", token, map[string]string{
		"student_name": "Maya", "class_id": "c1",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for student on teacher endpoint, got %d", rec.Code)
	}

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != string(auth.DenyForbidden) {
		t.Errorf("expected forbidden code, got %q", resp.Code)
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, &models.User{UserID: "u1", Email: "u1@example.com", Name: "User One", Role: models.RoleVolunteer})

	rec := env.request(t, http.MethodGet, "/api/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var user models.User
	decodeBody(t, rec, &user)
	if user.UserID != "u1" || user.Name != "User One" {
		t.Errorf("unexpected profile: %+v", user)
	}
}

func TestClassroomConnect(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, &models.User{UserID: "stu1", Email: "stu1@example.com", Role: models.RoleStudent})

	rec := env.request(t, http.MethodGet, "/api/classroom/connect?redirect_uri=https://app.example.com/cb", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["authorization_url"] == "" {
		t.Error("expected authorization_url in response")
	}
}

func TestClassroomConnect_VolunteerForbidden(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, &models.User{UserID: "vol1", Email: "vol1@example.com", Role: models.RoleVolunteer})

	rec := env.request(t, http.MethodGet, "/api/classroom/connect?redirect_uri=https://app.example.com/cb", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for volunteer, got %d", rec.Code)
	}
}

func TestClassroomCallback_LinksUserAndStoresToken(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, &models.User{UserID: "tch1", Email: "tch1@example.com", Role: models.RoleTeacher})

	env.oauth.ExchangeResult = &interfaces.TokenExchange{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    3600,
		Scope:        "classroom.readonly",
	}
	env.classroom.Profile = &interfaces.Profile{ID: "ext-tch1", Email: "tch1@example.com"}

	rec := env.request(t, http.MethodGet, "/api/classroom/callback?code=auth-code&redirect_uri=https://app.example.com/cb", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	user, err := env.storage.UserStore().GetUser(context.Background(), "tch1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if !user.Linked {
		t.Error("expected user to be linked")
	}
	if user.ExternalID != "ext-tch1" {
		t.Errorf("expected external id recorded, got %q", user.ExternalID)
	}

	record, err := env.storage.TokenStore().Get(context.Background(), "tch1")
	if err != nil {
		t.Fatalf("Get token failed: %v", err)
	}
	if record.AccessToken != "access-1" || record.RefreshToken != "refresh-1" {
		t.Errorf("unexpected token record: %+v", record)
	}
}

func TestClassroomCallback_RetainsRefreshTokenWhenProviderOmitsIt(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, &models.User{UserID: "stu1", Email: "stu1@example.com", Role: models.RoleStudent})

	env.storage.SetToken(&models.ExternalToken{
		UserID:       "stu1",
		AccessToken:  "old-access",
		RefreshToken: "old_refresh",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})

	// Re-consent where the provider returns no refresh token.
	env.oauth.ExchangeResult = &interfaces.TokenExchange{
		AccessToken: "new-access",
		ExpiresIn:   3600,
	}

	rec := env.request(t, http.MethodGet, "/api/classroom/callback?code=auth-code&redirect_uri=https://app.example.com/cb", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	record, err := env.storage.TokenStore().Get(context.Background(), "stu1")
	if err != nil {
		t.Fatalf("Get token failed: %v", err)
	}
	if record.AccessToken != "new-access" {
		t.Errorf("expected new access token, got %q", record.AccessToken)
	}
	if record.RefreshToken != "old_refresh" {
		t.Errorf("expected refresh token retained, got %q", record.RefreshToken)
	}
}

func TestClassroomDisconnect_KeepsTokenRecord(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, &models.User{UserID: "stu1", Email: "stu1@example.com", Role: models.RoleStudent, Linked: true})
	env.storage.SetToken(&models.ExternalToken{
		UserID:       "stu1",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	})

	rec := env.request(t, http.MethodPost, "/api/classroom/disconnect", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	user, err := env.storage.UserStore().GetUser(context.Background(), "stu1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.Linked {
		t.Error("expected link pointer cleared")
	}

	// The token record outlives the disconnect.
	if _, err := env.storage.TokenStore().Get(context.Background(), "stu1"); err != nil {
		t.Errorf("expected token record to survive disconnect: %v", err)
	}
}

func TestClassroomStatus(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, &models.User{UserID: "stu1", Email: "stu1@example.com", Role: models.RoleStudent, Linked: true})
	env.storage.SetToken(&models.ExternalToken{
		UserID:      "stu1",
		AccessToken: "access-1",
		ExpiresAt:   time.Now().Add(time.Hour),
	})

	rec := env.request(t, http.MethodGet, "/api/classroom/status", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp classroomStatusResponse
	decodeBody(t, rec, &resp)
	if !resp.Connected || !resp.Linked || !resp.TokenFresh {
		t.Errorf("unexpected status: %+v", resp)
	}
}

func TestClassroomSync_NoConnectionIs409(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, &models.User{UserID: "stu1", Email: "stu1@example.com", Role: models.RoleStudent})

	rec := env.request(t, http.MethodPost, "/api/classroom/sync", token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 without a connection, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestClassroomSync_ReturnsSummary(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, &models.User{UserID: "stu1", Email: "stu1@example.com", Role: models.RoleStudent})
	env.storage.SetToken(&models.ExternalToken{
		UserID:      "stu1",
		AccessToken: "access-1",
		ExpiresAt:   time.Now().Add(time.Hour),
	})
	env.classroom.Courses = []*interfaces.Course{{ID: "c1", Name: "Algebra"}}
	env.classroom.CourseWork["c1"] = []*interfaces.CourseWork{{ID: "a1", Title: "Worksheet", DueDate: "2026-09-10"}}

	rec := env.request(t, http.MethodPost, "/api/classroom/sync", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var summary models.SyncSummary
	decodeBody(t, rec, &summary)
	if !summary.Success || summary.Classes != 1 || summary.Assignments != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestAIMissions_StudentOnlyAndAlwaysUsable(t *testing.T) {
	env := newTestEnv(t)
	studentToken := env.seedUser(t, &models.User{UserID: "stu1", Email: "stu1@example.com", Role: models.RoleStudent})
	teacherToken := env.seedUser(t, &models.User{UserID: "tch1", Email: "tch1@example.com", Role: models.RoleTeacher})

	rec := env.request(t, http.MethodPost, "/api/ai/missions", studentToken, map[string]interface{}{
		"subject": "robotics", "count": 2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Missions []string `json:"missions"`
	}
	decodeBody(t, rec, &resp)
	// No generative client is configured, yet the endpoint still serves
	// usable canned missions.
	if len(resp.Missions) != 2 {
		t.Errorf("expected 2 missions, got %v", resp.Missions)
	}

	rec = env.request(t, http.MethodPost, "/api/ai/missions", teacherToken, map[string]interface{}{
		"subject": "robotics",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for teacher on student endpoint, got %d", rec.Code)
	}
}

func TestAITasks_AnyAuthenticatedRole(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, &models.User{UserID: "par1", Email: "par1@example.com", Role: models.RoleParent})

	rec := env.request(t, http.MethodPost, "/api/ai/tasks", token, map[string]string{
		"text": "- pack robotics kit\n- print worksheets",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Tasks []string `json:"tasks"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Tasks) != 2 {
		t.Errorf("expected input degraded into 2 tasks, got %v", resp.Tasks)
	}
}

func TestHealthAndVersion(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	rec = env.request(t, http.MethodGet, "/api/version", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from version, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, &models.User{UserID: "stu1", Email: "stu1@example.com", Role: models.RoleStudent})

	rec := env.request(t, http.MethodGet, "/api/classroom/sync", token, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if rec.Header().Get("Allow") != http.MethodPost {
		t.Errorf("expected Allow header, got %q", rec.Header().Get("Allow"))
	}
}
