package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/bursary-match-api/internal/handler"
	"github.com/noah-isme/bursary-match-api/internal/models"
	"github.com/noah-isme/bursary-match-api/internal/service"
)

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	h := Handlers{
		Auth:          handler.NewAuthHandler(nil, nil),
		Learner:       handler.NewLearnerHandler(nil, nil),
		Academic:      handler.NewAcademicHandler(nil),
		Bursary:       handler.NewBursaryHandler(nil),
		Application:   handler.NewApplicationHandler(nil),
		Matching:      handler.NewMatchingHandler(nil),
		Follow:        handler.NewFollowHandler(nil),
		Notification:  handler.NewNotificationHandler(nil),
		Observability: handler.NewMetricsHandler(metrics, func() error { return nil }),
	}
	return New(h, Options{
		APIPrefix: "/api/v1",
		Metrics:   metrics,
		Tokens: tokenStub{
			"learner":  {UserID: "l-1", Role: models.RoleLearner},
			"provider": {UserID: "p-1", Role: models.RoleProvider},
		},
	})
}

func request(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterHealthAndMetrics(t *testing.T) {
	r := newTestEngine()

	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/ready", "").Code)

	w := request(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestRouterGuardsByRole(t *testing.T) {
	r := newTestEngine()

	cases := []struct {
		method string
		path   string
		token  string
		status int
	}{
		{http.MethodGet, "/api/v1/learners/me", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/learners/me", "bogus", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/learners/me", "provider", http.StatusForbidden},
		{http.MethodPost, "/api/v1/applications", "provider", http.StatusForbidden},
		{http.MethodPost, "/api/v1/providers/search/learners", "learner", http.StatusForbidden},
		{http.MethodGet, "/api/v1/providers/applications/export", "learner", http.StatusForbidden},
		{http.MethodPost, "/api/v1/providers/follows/l-1", "learner", http.StatusForbidden},
		{http.MethodGet, "/api/v1/notifications", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		w := request(r, tc.method, tc.path, tc.token)
		assert.Equal(t, tc.status, w.Code, "%s %s as %q", tc.method, tc.path, tc.token)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	r := newTestEngine()
	assert.Equal(t, http.StatusNotFound, request(r, http.MethodGet, "/api/v1/nope", "").Code)
}
