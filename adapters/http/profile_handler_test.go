package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/profile-service/adapters/event"
	"github.com/khoahotran/profile-service/adapters/persistence"
	"github.com/khoahotran/profile-service/internal/application/service"
	profileUC "github.com/khoahotran/profile-service/internal/application/usecase/profile"
	"github.com/khoahotran/profile-service/pkg/logger"
)

const profilePath = "/profiles/"

type ProfileHandlerTestSuite struct {
	suite.Suite
	Router *gin.Engine
}

func newTestRouter(limiter service.RateLimiter) *gin.Engine {
	appLogger := logger.NewNopLogger()
	repo := persistence.NewMemoryProfileRepo(appLogger)
	uc := profileUC.NewProfileUseCase(repo, event.NopPublisher{}, appLogger)

	return NewRouter(RouterDeps{
		ProfileHandler: NewProfileHandler(uc, appLogger),
		Logger:         appLogger,
		RateLimiter:    limiter,
	})
}

func (s *ProfileHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.Router = newTestRouter(nil)
}

func TestProfileHandler(t *testing.T) {
	suite.Run(t, new(ProfileHandlerTestSuite))
}

func (s *ProfileHandlerTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	switch b := body.(type) {
	case nil:
		reader = &bytes.Buffer{}
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

func (s *ProfileHandlerTestSuite) createProfile(name, email, bio string) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, profilePath, gin.H{"name": name, "email": email, "bio": bio})
}

func (s *ProfileHandlerTestSuite) decodeProfile(rr *httptest.ResponseRecorder) ProfileDTO {
	var dto ProfileDTO
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &dto))
	return dto
}

func (s *ProfileHandlerTestSuite) detail(rr *httptest.ResponseRecorder) string {
	var body map[string]string
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &body))
	return body["detail"]
}

func (s *ProfileHandlerTestSuite) Test_Profile_Scenario() {
	rr := s.createProfile("Alice", "alice@example.com", "A person.")
	s.Equal(http.StatusCreated, rr.Code)
	created := s.decodeProfile(rr)
	s.Equal(ProfileDTO{ID: 1, Name: "Alice", Email: "alice@example.com", Bio: "A person."}, created)

	rr = s.createProfile("Alice", "alice@example.com", "A person.")
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Contains(s.detail(rr), "Email address must be unique")

	rr = s.do(http.MethodGet, "/profiles/1", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.Equal(created, s.decodeProfile(rr))

	rr = s.do(http.MethodPatch, "/profiles/1", gin.H{"bio": "Updated bio."})
	s.Equal(http.StatusOK, rr.Code)
	updated := s.decodeProfile(rr)
	s.Equal("Updated bio.", updated.Bio)
	s.Equal("alice@example.com", updated.Email)

	rr = s.do(http.MethodGet, "/profiles/9999", nil)
	s.Equal(http.StatusNotFound, rr.Code)
	s.Equal("Profile not found.", s.detail(rr))

	rr = s.createProfile("Bob", "bob@example.com", strings.Repeat("x", 201))
	s.Equal(http.StatusUnprocessableEntity, rr.Code)
	s.Equal("Bio must be at most 200 characters.", s.detail(rr))
}

func (s *ProfileHandlerTestSuite) Test_Create_TrimsFields() {
	rr := s.createProfile("  Charles ", "charles@example.com", "  Hi.  ")
	s.Equal(http.StatusCreated, rr.Code)

	dto := s.decodeProfile(rr)
	s.Equal("Charles", dto.Name)
	s.Equal("Hi.", dto.Bio)
}

func (s *ProfileHandlerTestSuite) Test_Create_DuplicateEmailDifferentCase() {
	s.Equal(http.StatusCreated, s.createProfile("A", "A@x.com", "bio").Code)

	rr := s.createProfile("B", "a@x.com", "bio")
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("Email address must be unique.", s.detail(rr))
}

func (s *ProfileHandlerTestSuite) Test_Create_ValidationFailures() {
	cases := []struct {
		name string
		body any
	}{
		{"missing fields", gin.H{"name": "Only"}},
		{"bad email", gin.H{"name": "N", "email": "nope", "bio": "b"}},
		{"blank name", gin.H{"name": "   ", "email": "n@x.com", "bio": "b"}},
		{"long name", gin.H{"name": strings.Repeat("n", 51), "email": "n@x.com", "bio": "b"}},
		{"wrong type", gin.H{"name": 12, "email": "n@x.com", "bio": "b"}},
		{"malformed json", "{"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			rr := s.do(http.MethodPost, profilePath, tc.body)
			s.Equal(http.StatusUnprocessableEntity, rr.Code)
			s.NotEmpty(s.detail(rr))
		})
	}
}

func (s *ProfileHandlerTestSuite) Test_Get_NonIntegerID() {
	rr := s.do(http.MethodGet, "/profiles/abc", nil)
	s.Equal(http.StatusUnprocessableEntity, rr.Code)
}

func (s *ProfileHandlerTestSuite) Test_Patch_EmptyBodyObjectIsNoop() {
	s.Require().Equal(http.StatusCreated, s.createProfile("Dan", "dan@example.com", "Old.").Code)

	rr := s.do(http.MethodPatch, "/profiles/1", gin.H{})
	s.Equal(http.StatusOK, rr.Code)
	s.Equal(ProfileDTO{ID: 1, Name: "Dan", Email: "dan@example.com", Bio: "Old."}, s.decodeProfile(rr))
}

func (s *ProfileHandlerTestSuite) Test_Patch_NullFieldIsIgnored() {
	s.Require().Equal(http.StatusCreated, s.createProfile("Dan", "dan@example.com", "Old.").Code)

	rr := s.do(http.MethodPatch, "/profiles/1", `{"bio": null, "name": "Daniel"}`)
	s.Equal(http.StatusOK, rr.Code)
	dto := s.decodeProfile(rr)
	s.Equal("Daniel", dto.Name)
	s.Equal("Old.", dto.Bio)
}

func (s *ProfileHandlerTestSuite) Test_Patch_DuplicateEmail() {
	s.createProfile("Eve", "eve1@example.com", "bio")
	s.createProfile("Eve2", "eve2@example.com", "bio")

	rr := s.do(http.MethodPatch, "/profiles/2", gin.H{"email": "eve1@example.com"})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Contains(s.detail(rr), "Email address must be unique")
}

func (s *ProfileHandlerTestSuite) Test_Patch_BioTooLong() {
	s.createProfile("Fay", "fay@example.com", "bio")

	rr := s.do(http.MethodPatch, "/profiles/1", gin.H{"bio": strings.Repeat("x", 201)})
	s.Equal(http.StatusUnprocessableEntity, rr.Code)
	s.Equal("Bio must be at most 200 characters.", s.detail(rr))

	rr = s.do(http.MethodGet, "/profiles/1", nil)
	s.Equal("bio", s.decodeProfile(rr).Bio)
}

func (s *ProfileHandlerTestSuite) Test_Patch_NotFoundBeatsValidation() {
	rr := s.do(http.MethodPatch, "/profiles/9977", gin.H{"bio": strings.Repeat("x", 201)})
	s.Equal(http.StatusNotFound, rr.Code)
	s.Contains(s.detail(rr), "Profile not found")
}

func (s *ProfileHandlerTestSuite) Test_Health() {
	rr := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, rr.Code)
}

func (s *ProfileHandlerTestSuite) Test_RequestIDEchoed() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	s.Equal("req-123", rr.Header().Get(HeaderRequestID))

	rr = s.do(http.MethodGet, "/health", nil)
	s.NotEmpty(rr.Header().Get(HeaderRequestID))
}

type stubLimiter struct {
	allowed int
	calls   int
	err     error
}

func (l *stubLimiter) Allow(ctx context.Context, key string) (service.RateLimitDecision, error) {
	if l.err != nil {
		return service.RateLimitDecision{}, l.err
	}
	l.calls++
	remaining := l.allowed - l.calls
	if remaining < 0 {
		remaining = 0
	}
	return service.RateLimitDecision{
		Allowed:   l.calls <= l.allowed,
		Limit:     l.allowed,
		Remaining: remaining,
		ResetAt:   time.Now().Add(time.Minute),
	}, nil
}

func TestRateLimitMiddlewareRejectsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newTestRouter(&stubLimiter{allowed: 1})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/profiles/1", nil))
	assert.Equal(t, http.StatusNotFound, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/profiles/1", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.JSONEq(t, `{"detail": "Too many requests."}`, second.Body.String())

	health := httptest.NewRecorder()
	router.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestRateLimitMiddlewareFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newTestRouter(&stubLimiter{err: errors.New("redis down")})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/profiles/1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
