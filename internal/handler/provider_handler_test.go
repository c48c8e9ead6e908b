package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bursary-match-api/internal/dto"
	"github.com/noah-isme/bursary-match-api/internal/models"
	appErrors "github.com/noah-isme/bursary-match-api/pkg/errors"
)

type matchingServiceMock struct {
	lastReq dto.LearnerSearchRequest
}

func (m *matchingServiceMock) Search(ctx context.Context, providerID string, req dto.LearnerSearchRequest) ([]dto.MatchResult, error) {
	m.lastReq = req
	return []dto.MatchResult{{LearnerID: testLearnerID}, {LearnerID: testSecondLearnerID}}, nil
}

func (m *matchingServiceMock) GetLearnerProfile(ctx context.Context, providerID, learnerID string) (*dto.LearnerProfileDetail, error) {
	if learnerID != testLearnerID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "learner not found")
	}
	return &dto.LearnerProfileDetail{LearnerID: learnerID}, nil
}

type followServiceMock struct {
	lastNotes *string
	following map[string]bool
}

func (m *followServiceMock) Follow(ctx context.Context, providerID, learnerID string, req dto.FollowLearnerRequest) (*dto.FollowResponse, error) {
	if m.following[learnerID] {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already following")
	}
	m.lastNotes = req.Notes
	m.following[learnerID] = true
	return &dto.FollowResponse{FollowID: testFollowID, ProviderID: providerID, LearnerID: learnerID}, nil
}

func (m *followServiceMock) Unfollow(ctx context.Context, providerID, learnerID string) error {
	if !m.following[learnerID] {
		return appErrors.Clone(appErrors.ErrNotFound, "follow not found")
	}
	delete(m.following, learnerID)
	return nil
}

func (m *followServiceMock) ListFollowing(ctx context.Context, providerID string) ([]dto.FollowedLearnerResponse, error) {
	return []dto.FollowedLearnerResponse{}, nil
}

func (m *followServiceMock) IsFollowing(ctx context.Context, providerID, learnerID string) (bool, error) {
	return m.following[learnerID], nil
}

type inboxMock struct {
	unreadOnly bool
	lastRole   models.UserRole
}

func (m *inboxMock) List(ctx context.Context, userID string, role models.UserRole, unreadOnly bool) ([]models.Notification, error) {
	m.unreadOnly = unreadOnly
	m.lastRole = role
	return []models.Notification{{ID: testNotificationID}}, nil
}

func (m *inboxMock) UnreadCount(ctx context.Context, userID string, role models.UserRole) (int64, error) {
	return 4, nil
}

func (m *inboxMock) MarkRead(ctx context.Context, userID string, role models.UserRole, notificationID string) error {
	if notificationID != testNotificationID {
		return appErrors.Clone(appErrors.ErrForbidden, "notification belongs to another user")
	}
	return nil
}

func (m *inboxMock) MarkAllRead(ctx context.Context, userID string, role models.UserRole) (int64, error) {
	return 4, nil
}

func TestMatchingHandlerSearch(t *testing.T) {
	mockSvc := &matchingServiceMock{}
	h := NewMatchingHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/providers/search/learners", `{"minAverageMark":"70","subjectName":"Mathematics","minSubjectMark":80,"year":2024}`, providerClaims())
	h.Search(c)

	requireStatus(t, w, http.StatusOK)
	require.NotNil(t, mockSvc.lastReq.MinAverageMark)
	assert.Equal(t, "70", mockSvc.lastReq.MinAverageMark.String())
	assert.True(t, mockSvc.lastReq.HasSubjectFilter())
	require.NotNil(t, mockSvc.lastReq.Year)
	assert.Equal(t, 2024, *mockSvc.lastReq.Year)

	env := decodeEnvelope(t, w)
	assert.EqualValues(t, 2, env.Meta["total"])
	var results []dto.MatchResult
	require.NoError(t, json.Unmarshal(env.Data, &results))
	assert.Len(t, results, 2)

	c, w = newTestContext(http.MethodGet, "/providers/learners/"+testUnknownLearnerID, "", providerClaims(), gin.Param{Key: "learnerId", Value: testUnknownLearnerID})
	h.GetLearner(c)
	requireStatus(t, w, http.StatusNotFound)
}

func TestFollowHandlerLifecycle(t *testing.T) {
	mockSvc := &followServiceMock{following: map[string]bool{}}
	h := NewFollowHandler(mockSvc)
	param := gin.Param{Key: "learnerId", Value: testLearnerID}

	c, w := newTestContext(http.MethodPost, "/providers/follows/"+testLearnerID, "", providerClaims(), param)
	h.Follow(c)
	requireStatus(t, w, http.StatusCreated)
	assert.Nil(t, mockSvc.lastNotes)

	c, w = newTestContext(http.MethodPost, "/providers/follows/"+testLearnerID, `{"notes":"strong maths"}`, providerClaims(), param)
	h.Follow(c)
	requireStatus(t, w, http.StatusConflict)

	c, w = newTestContext(http.MethodGet, "/providers/follows/"+testLearnerID+"/status", "", providerClaims(), param)
	h.Status(c)
	requireStatus(t, w, http.StatusOK)
	assert.JSONEq(t, `{"isFollowing":true}`, string(decodeEnvelope(t, w).Data))

	c, w = newTestContext(http.MethodDelete, "/providers/follows/"+testLearnerID, "", providerClaims(), param)
	h.Unfollow(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)

	c, w = newTestContext(http.MethodDelete, "/providers/follows/"+testLearnerID, "", providerClaims(), param)
	h.Unfollow(c)
	requireStatus(t, w, http.StatusNotFound)
}

func TestFollowHandlerNotes(t *testing.T) {
	mockSvc := &followServiceMock{following: map[string]bool{}}
	h := NewFollowHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/providers/follows/"+testSecondLearnerID, `{"notes":"interview soon"}`, providerClaims(), gin.Param{Key: "learnerId", Value: testSecondLearnerID})
	h.Follow(c)
	requireStatus(t, w, http.StatusCreated)
	require.NotNil(t, mockSvc.lastNotes)
	assert.Equal(t, "interview soon", *mockSvc.lastNotes)

	c, w = newTestContext(http.MethodPost, "/providers/follows/"+testThirdLearnerID, `{"notes":`, providerClaims(), gin.Param{Key: "learnerId", Value: testThirdLearnerID})
	h.Follow(c)
	requireStatus(t, w, http.StatusBadRequest)
}

func TestNotificationHandlerInbox(t *testing.T) {
	inbox := &inboxMock{}
	h := NewNotificationHandler(inbox)

	c, w := newTestContext(http.MethodGet, "/notifications?unread=true", "", providerClaims())
	h.List(c)
	requireStatus(t, w, http.StatusOK)
	assert.True(t, inbox.unreadOnly)
	assert.Equal(t, models.RoleProvider, inbox.lastRole)

	c, w = newTestContext(http.MethodGet, "/notifications?unread=sometimes", "", providerClaims())
	h.List(c)
	requireStatus(t, w, http.StatusBadRequest)

	c, w = newTestContext(http.MethodGet, "/notifications/unread-count", "", learnerClaims())
	h.UnreadCount(c)
	requireStatus(t, w, http.StatusOK)
	assert.JSONEq(t, `{"unreadCount":4}`, string(decodeEnvelope(t, w).Data))

	c, w = newTestContext(http.MethodPatch, "/notifications/"+testOtherNotificationID+"/read", "", learnerClaims(), gin.Param{Key: "id", Value: testOtherNotificationID})
	h.MarkRead(c)
	requireStatus(t, w, http.StatusForbidden)

	c, w = newTestContext(http.MethodPatch, "/notifications/read-all", "", learnerClaims())
	h.MarkAllRead(c)
	requireStatus(t, w, http.StatusOK)
	assert.JSONEq(t, `{"count":4}`, string(decodeEnvelope(t, w).Data))
}
