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
	"github.com/noah-isme/bursary-match-api/internal/service"
	appErrors "github.com/noah-isme/bursary-match-api/pkg/errors"
)

type applicationServiceMock struct {
	applyReq     dto.CreateApplicationRequest
	applyErr     error
	withdrawErr  error
	lastStatus   string
	lastFormat   string
	lastReview   dto.UpdateApplicationStatusRequest
	lastProvider string
	applyCalled  bool
}

func (m *applicationServiceMock) Apply(ctx context.Context, learnerID string, req dto.CreateApplicationRequest) (*dto.ApplicationResponse, error) {
	m.applyCalled = true
	m.applyReq = req
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	return &dto.ApplicationResponse{ID: testApplicationID, Status: models.ApplicationStatusSubmitted}, nil
}

func (m *applicationServiceMock) ListMine(ctx context.Context, learnerID string) ([]dto.ApplicationResponse, error) {
	return []dto.ApplicationResponse{{ID: testApplicationID}}, nil
}

func (m *applicationServiceMock) Get(ctx context.Context, learnerID, applicationID string) (*dto.ApplicationResponse, error) {
	if applicationID != testApplicationID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	return &dto.ApplicationResponse{ID: applicationID}, nil
}

func (m *applicationServiceMock) CheckApplied(ctx context.Context, learnerID, bursaryID string) (*dto.ApplicationCheckResponse, error) {
	return &dto.ApplicationCheckResponse{HasApplied: bursaryID == testBursaryID}, nil
}

func (m *applicationServiceMock) Withdraw(ctx context.Context, learnerID, applicationID string) error {
	return m.withdrawErr
}

func (m *applicationServiceMock) ListReceived(ctx context.Context, providerID, status string) ([]dto.ProviderApplicationResponse, error) {
	m.lastProvider = providerID
	m.lastStatus = status
	return []dto.ProviderApplicationResponse{}, nil
}

func (m *applicationServiceMock) ListForBursary(ctx context.Context, providerID, bursaryID string) ([]dto.ProviderApplicationResponse, error) {
	return nil, appErrors.Clone(appErrors.ErrForbidden, "bursary belongs to another provider")
}

func (m *applicationServiceMock) UpdateStatus(ctx context.Context, providerID, applicationID string, req dto.UpdateApplicationStatusRequest) (*dto.ProviderApplicationResponse, error) {
	m.lastReview = req
	return &dto.ProviderApplicationResponse{ApplicationID: applicationID, Status: req.Status}, nil
}

func (m *applicationServiceMock) Statistics(ctx context.Context, providerID string) (*dto.ApplicationStatistics, error) {
	return &dto.ApplicationStatistics{TotalApplications: 3}, nil
}

func (m *applicationServiceMock) Export(ctx context.Context, providerID, status, format string) (*service.ExportResult, error) {
	m.lastFormat = format
	m.lastStatus = status
	if format == "xml" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format: xml")
	}
	return &service.ExportResult{
		Filename:    "applications-20250501.csv",
		ContentType: "text/csv",
		Body:        []byte("Learner,Email\n"),
	}, nil
}

func TestApplicationHandlerApply(t *testing.T) {
	mockSvc := &applicationServiceMock{}
	h := NewApplicationHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/applications", `{"bursaryId":"`+testBursaryID+`"}`, learnerClaims())
	h.Apply(c)

	requireStatus(t, w, http.StatusCreated)
	assert.Equal(t, testBursaryID, mockSvc.applyReq.BursaryID)

	var app dto.ApplicationResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &app))
	assert.Equal(t, models.ApplicationStatusSubmitted, app.Status)
}

func TestApplicationHandlerApplyErrors(t *testing.T) {
	mockSvc := &applicationServiceMock{applyErr: appErrors.Clone(appErrors.ErrConflict, "already applied")}
	h := NewApplicationHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/applications", `{"bursaryId":"`+testBursaryID+`"}`, learnerClaims())
	h.Apply(c)
	requireStatus(t, w, appErrors.ErrConflict.Status)
	assert.Equal(t, appErrors.ErrConflict.Code, decodeEnvelope(t, w).Error.Code)

	mockSvc.applyCalled = false
	c, w = newTestContext(http.MethodPost, "/applications", `{"bursaryId":`, learnerClaims())
	h.Apply(c)
	requireStatus(t, w, http.StatusBadRequest)
	assert.False(t, mockSvc.applyCalled)

	c, w = newTestContext(http.MethodPost, "/applications", `{"bursaryId":"`+testBursaryID+`"}`, nil)
	h.Apply(c)
	requireStatus(t, w, http.StatusUnauthorized)
	assert.False(t, mockSvc.applyCalled)
}

func TestApplicationHandlerLearnerReads(t *testing.T) {
	h := NewApplicationHandler(&applicationServiceMock{})

	c, w := newTestContext(http.MethodGet, "/applications/"+testMissingID, "", learnerClaims(), gin.Param{Key: "id", Value: testMissingID})
	h.Get(c)
	requireStatus(t, w, http.StatusNotFound)

	c, w = newTestContext(http.MethodGet, "/applications/check/"+testBursaryID, "", learnerClaims(), gin.Param{Key: "bursaryId", Value: testBursaryID})
	h.Check(c)
	requireStatus(t, w, http.StatusOK)
	var check dto.ApplicationCheckResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &check))
	assert.True(t, check.HasApplied)
}

func TestApplicationHandlerWithdraw(t *testing.T) {
	mockSvc := &applicationServiceMock{}
	h := NewApplicationHandler(mockSvc)

	c, w := newTestContext(http.MethodDelete, "/applications/"+testApplicationID, "", learnerClaims(), gin.Param{Key: "id", Value: testApplicationID})
	h.Withdraw(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)

	mockSvc.withdrawErr = appErrors.Clone(appErrors.ErrInvalidState, "only submitted applications can be withdrawn")
	c, w = newTestContext(http.MethodDelete, "/applications/"+testApplicationID, "", learnerClaims(), gin.Param{Key: "id", Value: testApplicationID})
	h.Withdraw(c)
	requireStatus(t, w, http.StatusUnprocessableEntity)
}

func TestApplicationHandlerProviderEndpoints(t *testing.T) {
	mockSvc := &applicationServiceMock{}
	h := NewApplicationHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/providers/applications?status=shortlisted", "", providerClaims())
	h.ListReceived(c)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, testProviderID, mockSvc.lastProvider)
	assert.Equal(t, "shortlisted", mockSvc.lastStatus)

	c, w = newTestContext(http.MethodGet, "/providers/bursaries/"+testOtherBursaryID+"/applications", "", providerClaims(), gin.Param{Key: "bursaryId", Value: testOtherBursaryID})
	h.ListForBursary(c)
	requireStatus(t, w, http.StatusForbidden)

	c, w = newTestContext(http.MethodPatch, "/providers/applications/"+testApplicationID+"/status", `{"status":"accepted","awardAmount":"15000.00"}`, providerClaims(), gin.Param{Key: "id", Value: testApplicationID})
	h.UpdateStatus(c)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, models.ApplicationStatusAccepted, mockSvc.lastReview.Status)
	require.NotNil(t, mockSvc.lastReview.AwardAmount)
	assert.Equal(t, "15000", mockSvc.lastReview.AwardAmount.String())

	c, w = newTestContext(http.MethodGet, "/providers/applications/statistics", "", providerClaims())
	h.Statistics(c)
	requireStatus(t, w, http.StatusOK)
	var stats dto.ApplicationStatistics
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &stats))
	assert.Equal(t, int64(3), stats.TotalApplications)
}

func TestApplicationHandlerExport(t *testing.T) {
	mockSvc := &applicationServiceMock{}
	h := NewApplicationHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/providers/applications/export?format=csv&status=accepted", "", providerClaims())
	h.Export(c)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "csv", mockSvc.lastFormat)
	assert.Equal(t, "accepted", mockSvc.lastStatus)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "applications-20250501.csv")
	assert.Equal(t, "Learner,Email\n", w.Body.String())

	c, w = newTestContext(http.MethodGet, "/providers/applications/export?format=xml", "", providerClaims())
	h.Export(c)
	requireStatus(t, w, http.StatusBadRequest)
}

func TestHandlersRejectMalformedIDs(t *testing.T) {
	applications := NewApplicationHandler(nil)
	academic := NewAcademicHandler(nil)
	bursaries := NewBursaryHandler(nil)
	matching := NewMatchingHandler(nil)
	follows := NewFollowHandler(nil)
	inbox := NewNotificationHandler(nil)

	cases := []struct {
		name   string
		run    gin.HandlerFunc
		key    string
		body   string
		claims bool
	}{
		{"application get", applications.Get, "id", "", true},
		{"application check", applications.Check, "bursaryId", "", true},
		{"application withdraw", applications.Withdraw, "id", "", true},
		{"applications for bursary", applications.ListForBursary, "bursaryId", "", true},
		{"application status", applications.UpdateStatus, "id", `{"status":"shortlisted"}`, true},
		{"academic year get", academic.GetYear, "id", "", true},
		{"academic year delete", academic.DeleteYear, "id", "", true},
		{"term update", academic.UpdateTerm, "id", `{"termNumber":1,"subjects":[{"subjectName":"Maths","mark":70}]}`, true},
		{"bursary get", bursaries.Get, "id", "", false},
		{"learner profile", matching.GetLearner, "learnerId", "", true},
		{"follow", follows.Follow, "learnerId", "", true},
		{"unfollow", follows.Unfollow, "learnerId", "", true},
		{"notification read", inbox.MarkRead, "id", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims := learnerClaims()
			if !tc.claims {
				claims = nil
			}
			c, w := newTestContext(http.MethodGet, "/abc", tc.body, claims, gin.Param{Key: tc.key, Value: "abc"})
			tc.run(c)
			requireStatus(t, w, http.StatusNotFound)
			assert.Equal(t, appErrors.ErrNotFound.Code, decodeEnvelope(t, w).Error.Code)
		})
	}

	mockSvc := &applicationServiceMock{}
	c, w := newTestContext(http.MethodPost, "/applications", `{"bursaryId":"abc"}`, learnerClaims())
	NewApplicationHandler(mockSvc).Apply(c)
	requireStatus(t, w, http.StatusNotFound)
	assert.False(t, mockSvc.applyCalled)
}
