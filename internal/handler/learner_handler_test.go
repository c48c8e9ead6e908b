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
	"github.com/noah-isme/bursary-match-api/internal/middleware"
	appErrors "github.com/noah-isme/bursary-match-api/pkg/errors"
)

type learnerServiceMock struct {
	hit        bool
	lastUpdate dto.UpdateProfileRequest
}

func (m *learnerServiceMock) GetProfile(ctx context.Context, learnerID string) (*dto.LearnerProfileResponse, bool, error) {
	return &dto.LearnerProfileResponse{ID: learnerID, FirstName: "Thandi"}, m.hit, nil
}

func (m *learnerServiceMock) UpdateProfile(ctx context.Context, learnerID string, req dto.UpdateProfileRequest) (*dto.LearnerProfileResponse, error) {
	m.lastUpdate = req
	return &dto.LearnerProfileResponse{ID: learnerID}, nil
}

func (m *learnerServiceMock) ListFollowers(ctx context.Context, learnerID string) ([]dto.FollowerResponse, error) {
	return []dto.FollowerResponse{{OrganizationName: "Acme Trust"}}, nil
}

func (m *learnerServiceMock) FollowerCount(ctx context.Context, learnerID string) (int64, error) {
	return 2, nil
}

type academicServiceMock struct {
	lastYearID string
	lastTerm   dto.CreateTermResultRequest
	termErr    error
}

func (m *academicServiceMock) CreateAcademicYear(ctx context.Context, learnerID string, req dto.CreateAcademicYearRequest) (*dto.AcademicYearResponse, error) {
	return &dto.AcademicYearResponse{ID: testYearID, Year: req.Year, GradeLevel: req.GradeLevel}, nil
}

func (m *academicServiceMock) AddTermResult(ctx context.Context, learnerID, academicYearID string, req dto.CreateTermResultRequest) (*dto.TermResultResponse, error) {
	m.lastYearID = academicYearID
	m.lastTerm = req
	if m.termErr != nil {
		return nil, m.termErr
	}
	return &dto.TermResultResponse{ID: testTermID, TermNumber: req.TermNumber}, nil
}

func (m *academicServiceMock) UpdateTermResult(ctx context.Context, learnerID, termResultID string, req dto.CreateTermResultRequest) (*dto.TermResultResponse, error) {
	return &dto.TermResultResponse{ID: termResultID, TermNumber: req.TermNumber}, nil
}

func (m *academicServiceMock) ListMyAcademicYears(ctx context.Context, learnerID string) ([]dto.AcademicYearResponse, error) {
	return []dto.AcademicYearResponse{}, nil
}

func (m *academicServiceMock) GetAcademicYear(ctx context.Context, learnerID, academicYearID string) (*dto.AcademicYearResponse, error) {
	return nil, appErrors.Clone(appErrors.ErrForbidden, "academic year belongs to another learner")
}

func (m *academicServiceMock) DeleteAcademicYear(ctx context.Context, learnerID, academicYearID string) error {
	m.lastYearID = academicYearID
	return nil
}

func TestLearnerHandlerProfile(t *testing.T) {
	mockSvc := &learnerServiceMock{hit: true}
	h := NewLearnerHandler(mockSvc, mockSvc)

	c, w := newTestContext(http.MethodGet, "/learners/me", "", learnerClaims())
	middleware.WithResponseMeta()(c)
	h.GetProfile(c)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	c, w = newTestContext(http.MethodPut, "/learners/me", `{"location":"Durban"}`, learnerClaims())
	h.UpdateProfile(c)
	requireStatus(t, w, http.StatusOK)
	require.NotNil(t, mockSvc.lastUpdate.Location)
	assert.Equal(t, "Durban", *mockSvc.lastUpdate.Location)
	assert.Nil(t, mockSvc.lastUpdate.Email)

	c, w = newTestContext(http.MethodGet, "/learners/me", "", nil)
	h.GetProfile(c)
	requireStatus(t, w, http.StatusUnauthorized)
}

func TestLearnerHandlerFollowers(t *testing.T) {
	mockSvc := &learnerServiceMock{}
	h := NewLearnerHandler(mockSvc, mockSvc)

	c, w := newTestContext(http.MethodGet, "/learners/me/followers", "", learnerClaims())
	h.ListFollowers(c)
	requireStatus(t, w, http.StatusOK)
	var followers []dto.FollowerResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &followers))
	require.Len(t, followers, 1)

	c, w = newTestContext(http.MethodGet, "/learners/me/followers/count", "", learnerClaims())
	h.FollowerCount(c)
	requireStatus(t, w, http.StatusOK)
	assert.JSONEq(t, `{"count":2}`, string(decodeEnvelope(t, w).Data))
}

func TestAcademicHandlerAddTerm(t *testing.T) {
	mockSvc := &academicServiceMock{}
	h := NewAcademicHandler(mockSvc)

	body := `{"termNumber":2,"subjects":[{"subjectName":"Mathematics","mark":0},{"subjectName":"English","mark":74}]}`
	c, w := newTestContext(http.MethodPost, "/academic-years/"+testYearID+"/terms", body, learnerClaims(), gin.Param{Key: "id", Value: testYearID})
	h.AddTerm(c)

	requireStatus(t, w, http.StatusCreated)
	assert.Equal(t, testYearID, mockSvc.lastYearID)
	require.Len(t, mockSvc.lastTerm.Subjects, 2)
	require.NotNil(t, mockSvc.lastTerm.Subjects[0].Mark)
	assert.Equal(t, 0, *mockSvc.lastTerm.Subjects[0].Mark)

	mockSvc.termErr = appErrors.Clone(appErrors.ErrConflict, "term already recorded")
	c, w = newTestContext(http.MethodPost, "/academic-years/"+testYearID+"/terms", body, learnerClaims(), gin.Param{Key: "id", Value: testYearID})
	h.AddTerm(c)
	requireStatus(t, w, http.StatusConflict)
}

func TestAcademicHandlerYears(t *testing.T) {
	mockSvc := &academicServiceMock{}
	h := NewAcademicHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/academic-years", `{"year":2024,"gradeLevel":11}`, learnerClaims())
	h.CreateYear(c)
	requireStatus(t, w, http.StatusCreated)

	c, w = newTestContext(http.MethodGet, "/academic-years/"+testOtherYearID, "", learnerClaims(), gin.Param{Key: "id", Value: testOtherYearID})
	h.GetYear(c)
	requireStatus(t, w, http.StatusForbidden)

	c, w = newTestContext(http.MethodDelete, "/academic-years/"+testYearID, "", learnerClaims(), gin.Param{Key: "id", Value: testYearID})
	h.DeleteYear(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, testYearID, mockSvc.lastYearID)

	c, w = newTestContext(http.MethodPut, "/term-results/"+testTermID, `{"termNumber":`, learnerClaims(), gin.Param{Key: "id", Value: testTermID})
	h.UpdateTerm(c)
	requireStatus(t, w, http.StatusBadRequest)
}
