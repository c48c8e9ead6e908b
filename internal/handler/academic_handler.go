package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bursary-match-api/internal/dto"
	"github.com/noah-isme/bursary-match-api/pkg/response"
)

type academicService interface {
	CreateAcademicYear(ctx context.Context, learnerID string, req dto.CreateAcademicYearRequest) (*dto.AcademicYearResponse, error)
	AddTermResult(ctx context.Context, learnerID, academicYearID string, req dto.CreateTermResultRequest) (*dto.TermResultResponse, error)
	UpdateTermResult(ctx context.Context, learnerID, termResultID string, req dto.CreateTermResultRequest) (*dto.TermResultResponse, error)
	ListMyAcademicYears(ctx context.Context, learnerID string) ([]dto.AcademicYearResponse, error)
	GetAcademicYear(ctx context.Context, learnerID, academicYearID string) (*dto.AcademicYearResponse, error)
	DeleteAcademicYear(ctx context.Context, learnerID, academicYearID string) error
}

// AcademicHandler exposes a learner's academic record endpoints.
type AcademicHandler struct {
	service academicService
}

// NewAcademicHandler builds a new handler.
func NewAcademicHandler(service academicService) *AcademicHandler {
	return &AcademicHandler{service: service}
}

// CreateYear godoc
// @Summary Open an academic year
// @Tags Academic Records
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateAcademicYearRequest true "Academic year"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /academic-years [post]
func (h *AcademicHandler) CreateYear(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateAcademicYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid academic year payload"))
		return
	}
	year, err := h.service.CreateAcademicYear(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, year)
}

// ListYears godoc
// @Summary List my academic years with terms and subjects
// @Tags Academic Records
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /academic-years [get]
func (h *AcademicHandler) ListYears(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	years, err := h.service.ListMyAcademicYears(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, years, nil)
}

// GetYear godoc
// @Summary Get one of my academic years
// @Tags Academic Records
// @Produce json
// @Security BearerAuth
// @Param id path string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /academic-years/{id} [get]
func (h *AcademicHandler) GetYear(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	year, err := h.service.GetAcademicYear(c.Request.Context(), claims.UserID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// DeleteYear godoc
// @Summary Delete an academic year with its terms and marks
// @Tags Academic Records
// @Security BearerAuth
// @Param id path string true "Academic year ID"
// @Success 204
// @Router /academic-years/{id} [delete]
func (h *AcademicHandler) DeleteYear(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteAcademicYear(c.Request.Context(), claims.UserID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddTerm godoc
// @Summary Record a term's subject marks
// @Description Stores the term average and notifies providers following the learner.
// @Tags Academic Records
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Academic year ID"
// @Param payload body dto.CreateTermResultRequest true "Term result"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /academic-years/{id}/terms [post]
func (h *AcademicHandler) AddTerm(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateTermResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid term result payload"))
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	term, err := h.service.AddTermResult(c.Request.Context(), claims.UserID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, term)
}

// UpdateTerm godoc
// @Summary Replace a term's subject marks
// @Tags Academic Records
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Term result ID"
// @Param payload body dto.CreateTermResultRequest true "Term result"
// @Success 200 {object} response.Envelope
// @Router /term-results/{id} [put]
func (h *AcademicHandler) UpdateTerm(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateTermResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid term result payload"))
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	term, err := h.service.UpdateTermResult(c.Request.Context(), claims.UserID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}
