// Package common provides shared test infrastructure
package common

import (
	"context"
	"sync"
	"time"

	"github.com/apollostem/academy/internal/interfaces"
	"github.com/apollostem/academy/internal/models"
	"github.com/apollostem/academy/internal/storage/surrealdb"
)

// MemoryStorage is an in-memory StorageManager for unit tests. It honors
// the same store contracts as the SurrealDB implementation, including the
// refresh-token retention rule on token upsert.
type MemoryStorage struct {
	mu          sync.Mutex
	Users       map[string]*models.User
	Classes     map[string]*models.Class
	Enrollments map[string]*models.Enrollment
	Assignments map[string]*models.Assignment
	Tokens      map[string]*models.ExternalToken
}

// NewMemoryStorage creates an empty in-memory storage manager.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		Users:       make(map[string]*models.User),
		Classes:     make(map[string]*models.Class),
		Enrollments: make(map[string]*models.Enrollment),
		Assignments: make(map[string]*models.Assignment),
		Tokens:      make(map[string]*models.ExternalToken),
	}
}

func (m *MemoryStorage) UserStore() interfaces.UserStore   { return &memUserStore{m} }
func (m *MemoryStorage) ClassStore() interfaces.ClassStore { return &memClassStore{m} }
func (m *MemoryStorage) TokenStore() interfaces.TokenStore { return &memTokenStore{m} }
func (m *MemoryStorage) Close() error                      { return nil }

type memUserStore struct{ s *MemoryStorage }

func (u *memUserStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if user, ok := u.s.Users[userID]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, surrealdb.ErrUserNotFound
}

func (u *memUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, user := range u.s.Users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, surrealdb.ErrUserNotFound
}

func (u *memUserStore) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, user := range u.s.Users {
		if user.ExternalID != "" && user.ExternalID == externalID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, surrealdb.ErrUserNotFound
}

func (u *memUserStore) SaveUser(ctx context.Context, user *models.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	copied := *user
	u.s.Users[user.UserID] = &copied
	return nil
}

func (u *memUserStore) DeleteUser(ctx context.Context, userID string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	delete(u.s.Users, userID)
	return nil
}

func (u *memUserStore) ListUsers(ctx context.Context) ([]string, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	ids := make([]string, 0, len(u.s.Users))
	for id := range u.s.Users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (u *memUserStore) StampLastSync(ctx context.Context, userID string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.Users[userID]
	if !ok {
		return surrealdb.ErrUserNotFound
	}
	now := time.Now()
	user.LastSyncAt = now
	user.ModifiedAt = now
	return nil
}

func (u *memUserStore) CountEnrolledStudents(ctx context.Context) (int, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	seen := make(map[string]bool)
	for _, e := range u.s.Enrollments {
		seen[e.StudentID] = true
	}
	return len(seen), nil
}

type memClassStore struct{ s *MemoryStorage }

func (c *memClassStore) GetClass(ctx context.Context, classID string) (*models.Class, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if class, ok := c.s.Classes[classID]; ok {
		copied := *class
		return &copied, nil
	}
	return nil, surrealdb.ErrClassNotFound
}

func (c *memClassStore) EnsureClass(ctx context.Context, class *models.Class) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.Classes[class.ClassID]; ok {
		return false, nil
	}
	copied := *class
	copied.CreatedAt = time.Now()
	c.s.Classes[class.ClassID] = &copied
	return true, nil
}

func (c *memClassStore) UpsertClass(ctx context.Context, class *models.Class) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	copied := *class
	if existing, ok := c.s.Classes[class.ClassID]; ok {
		copied.CreatedAt = existing.CreatedAt
	} else {
		copied.CreatedAt = time.Now()
	}
	copied.ModifiedAt = time.Now()
	c.s.Classes[class.ClassID] = &copied
	return nil
}

func (c *memClassStore) EnsureEnrollment(ctx context.Context, studentID, classID string) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	key := studentID + "_" + classID
	if _, ok := c.s.Enrollments[key]; ok {
		return false, nil
	}
	c.s.Enrollments[key] = &models.Enrollment{
		StudentID: studentID,
		ClassID:   classID,
		CreatedAt: time.Now(),
	}
	return true, nil
}

func (c *memClassStore) ListEnrollments(ctx context.Context, classID string) ([]*models.Enrollment, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var result []*models.Enrollment
	for _, e := range c.s.Enrollments {
		if e.ClassID == classID {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (c *memClassStore) GetAssignment(ctx context.Context, assignmentID string) (*models.Assignment, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if a, ok := c.s.Assignments[assignmentID]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, surrealdb.ErrAssignmentNotFound
}

func (c *memClassStore) EnsureAssignment(ctx context.Context, a *models.Assignment) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.Assignments[a.AssignmentID]; ok {
		return false, nil
	}
	copied := *a
	copied.CreatedAt = time.Now()
	c.s.Assignments[a.AssignmentID] = &copied
	return true, nil
}

func (c *memClassStore) UpsertAssignment(ctx context.Context, a *models.Assignment) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	copied := *a
	if existing, ok := c.s.Assignments[a.AssignmentID]; ok {
		copied.CreatedAt = existing.CreatedAt
	} else {
		copied.CreatedAt = time.Now()
	}
	copied.ModifiedAt = time.Now()
	c.s.Assignments[a.AssignmentID] = &copied
	return nil
}

func (c *memClassStore) ListAssignments(ctx context.Context, classID string) ([]*models.Assignment, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var result []*models.Assignment
	for _, a := range c.s.Assignments {
		if a.ClassID == classID {
			copied := *a
			result = append(result, &copied)
		}
	}
	return result, nil
}

type memTokenStore struct{ s *MemoryStorage }

func (t *memTokenStore) Upsert(ctx context.Context, userID, accessToken, refreshToken string, expiresInSeconds int, scope string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	now := time.Now()
	record := &models.ExternalToken{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(time.Duration(expiresInSeconds) * time.Second),
		Scope:        scope,
		UpdatedAt:    now,
	}
	if refreshToken == "" {
		if existing, ok := t.s.Tokens[userID]; ok {
			record.RefreshToken = existing.RefreshToken
		}
	}
	t.s.Tokens[userID] = record
	return nil
}

func (t *memTokenStore) Get(ctx context.Context, userID string) (*models.ExternalToken, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if record, ok := t.s.Tokens[userID]; ok {
		copied := *record
		return &copied, nil
	}
	return nil, surrealdb.ErrTokenNotFound
}

func (t *memTokenStore) HasConnection(ctx context.Context, userID string) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	_, ok := t.s.Tokens[userID]
	return ok, nil
}

func (t *memTokenStore) Delete(ctx context.Context, userID string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	delete(t.s.Tokens, userID)
	return nil
}

// SetToken seeds a token record directly, bypassing the upsert rules.
func (m *MemoryStorage) SetToken(record *models.ExternalToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *record
	m.Tokens[record.UserID] = &copied
}

// MockOAuthClient implements OAuthClient for testing
type MockOAuthClient struct {
	ExchangeResult *interfaces.TokenExchange
	ExchangeErr    error
	RefreshResult  *interfaces.TokenExchange
	RefreshErr     error

	ExchangeCalls int
	RefreshCalls  int
	LastCode      string
	LastRefresh   string
}

func (m *MockOAuthClient) BuildAuthorizationURL(redirectURI string) string {
	return "https://auth.example.com/consent?redirect_uri=" + redirectURI
}

func (m *MockOAuthClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*interfaces.TokenExchange, error) {
	m.ExchangeCalls++
	m.LastCode = code
	if m.ExchangeErr != nil {
		return nil, m.ExchangeErr
	}
	return m.ExchangeResult, nil
}

func (m *MockOAuthClient) Refresh(ctx context.Context, refreshToken string) (*interfaces.TokenExchange, error) {
	m.RefreshCalls++
	m.LastRefresh = refreshToken
	if m.RefreshErr != nil {
		return nil, m.RefreshErr
	}
	return m.RefreshResult, nil
}

// MockClassroomClient implements ClassroomClient for testing
type MockClassroomClient struct {
	Profile    *interfaces.Profile
	ProfileErr error

	Courses    []*interfaces.Course
	CoursesErr error

	CourseWork    map[string][]*interfaces.CourseWork
	CourseWorkErr map[string]error

	Students map[string][]*interfaces.Profile
	Teachers map[string][]*interfaces.Profile

	ListCoursesCalls int
}

// NewMockClassroomClient creates an empty mock classroom client
func NewMockClassroomClient() *MockClassroomClient {
	return &MockClassroomClient{
		CourseWork:    make(map[string][]*interfaces.CourseWork),
		CourseWorkErr: make(map[string]error),
		Students:      make(map[string][]*interfaces.Profile),
		Teachers:      make(map[string][]*interfaces.Profile),
	}
}

func (m *MockClassroomClient) GetMyProfile(ctx context.Context, accessToken string) (*interfaces.Profile, error) {
	if m.ProfileErr != nil {
		return nil, m.ProfileErr
	}
	if m.Profile == nil {
		return &interfaces.Profile{ID: "ext-self", Email: "self@example.com", Name: "Self"}, nil
	}
	return m.Profile, nil
}

func (m *MockClassroomClient) ListCourses(ctx context.Context, accessToken string) ([]*interfaces.Course, error) {
	m.ListCoursesCalls++
	if m.CoursesErr != nil {
		return nil, m.CoursesErr
	}
	return m.Courses, nil
}

func (m *MockClassroomClient) ListCourseWork(ctx context.Context, accessToken, courseID string) ([]*interfaces.CourseWork, error) {
	if err, ok := m.CourseWorkErr[courseID]; ok {
		return nil, err
	}
	return m.CourseWork[courseID], nil
}

func (m *MockClassroomClient) ListStudents(ctx context.Context, accessToken, courseID string) ([]*interfaces.Profile, error) {
	return m.Students[courseID], nil
}

func (m *MockClassroomClient) ListTeachers(ctx context.Context, accessToken, courseID string) ([]*interfaces.Profile, error) {
	return m.Teachers[courseID], nil
}

// MockGenerativeClient implements GenerativeClient for testing
type MockGenerativeClient struct {
	Text  string
	Err   error
	Calls int

	LastPrompt            string
	LastSystemInstruction string
	LastParams            interfaces.GenerationParams
}

func (m *MockGenerativeClient) GenerateContent(ctx context.Context, prompt, systemInstruction string, params interfaces.GenerationParams) (string, error) {
	m.Calls++
	m.LastPrompt = prompt
	m.LastSystemInstruction = systemInstruction
	m.LastParams = params
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

// Interface checks
var (
	_ interfaces.StorageManager   = (*MemoryStorage)(nil)
	_ interfaces.OAuthClient      = (*MockOAuthClient)(nil)
	_ interfaces.ClassroomClient  = (*MockClassroomClient)(nil)
	_ interfaces.GenerativeClient = (*MockGenerativeClient)(nil)
)
