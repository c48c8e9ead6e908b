package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/bursary-match-api/internal/dto"
	"github.com/noah-isme/bursary-match-api/internal/service"
	appErrors "github.com/noah-isme/bursary-match-api/pkg/errors"
	"github.com/noah-isme/bursary-match-api/pkg/response"
)

type applicationService interface {
	Apply(ctx context.Context, learnerID string, req dto.CreateApplicationRequest) (*dto.ApplicationResponse, error)
	ListMine(ctx context.Context, learnerID string) ([]dto.ApplicationResponse, error)
	Get(ctx context.Context, learnerID, applicationID string) (*dto.ApplicationResponse, error)
	CheckApplied(ctx context.Context, learnerID, bursaryID string) (*dto.ApplicationCheckResponse, error)
	Withdraw(ctx context.Context, learnerID, applicationID string) error
	ListReceived(ctx context.Context, providerID, status string) ([]dto.ProviderApplicationResponse, error)
	ListForBursary(ctx context.Context, providerID, bursaryID string) ([]dto.ProviderApplicationResponse, error)
	UpdateStatus(ctx context.Context, providerID, applicationID string, req dto.UpdateApplicationStatusRequest) (*dto.ProviderApplicationResponse, error)
	Statistics(ctx context.Context, providerID string) (*dto.ApplicationStatistics, error)
	Export(ctx context.Context, providerID, status, format string) (*service.ExportResult, error)
}

// ApplicationHandler exposes both sides of the application lifecycle.
type ApplicationHandler struct {
	service applicationService
}

// NewApplicationHandler constructs the handler.
func NewApplicationHandler(service applicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// Apply godoc
// @Summary Apply for a bursary
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateApplicationRequest true "Application"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Apply(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid application payload"))
		return
	}
	if _, err := uuid.Parse(req.BursaryID); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "bursary not found"))
		return
	}
	app, err := h.service.Apply(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}

// ListMine godoc
// @Summary List my applications
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /applications [get]
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Get godoc
// @Summary Get one of my applications
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	app, err := h.service.Get(c.Request.Context(), claims.UserID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Check godoc
// @Summary Check whether I applied for a bursary
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param bursaryId path string true "Bursary ID"
// @Success 200 {object} response.Envelope
// @Router /applications/check/{bursaryId} [get]
func (h *ApplicationHandler) Check(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	bursaryID, ok := pathID(c, "bursaryId")
	if !ok {
		return
	}
	res, err := h.service.CheckApplied(c.Request.Context(), claims.UserID, bursaryID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Withdraw godoc
// @Summary Withdraw a submitted application
// @Tags Applications
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 204
// @Failure 422 {object} response.Envelope
// @Router /applications/{id} [delete]
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Withdraw(c.Request.Context(), claims.UserID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListReceived godoc
// @Summary List applications to my bursaries
// @Tags Provider Applications
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /providers/applications [get]
func (h *ApplicationHandler) ListReceived(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.service.ListReceived(c.Request.Context(), claims.UserID, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// ListForBursary godoc
// @Summary List applications for one of my bursaries
// @Tags Provider Applications
// @Produce json
// @Security BearerAuth
// @Param bursaryId path string true "Bursary ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /providers/bursaries/{bursaryId}/applications [get]
func (h *ApplicationHandler) ListForBursary(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	bursaryID, ok := pathID(c, "bursaryId")
	if !ok {
		return
	}
	list, err := h.service.ListForBursary(c.Request.Context(), claims.UserID, bursaryID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// UpdateStatus godoc
// @Summary Review an application
// @Tags Provider Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body dto.UpdateApplicationStatusRequest true "Review"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /providers/applications/{id}/status [patch]
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.UpdateApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid status payload"))
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	app, err := h.service.UpdateStatus(c.Request.Context(), claims.UserID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Statistics godoc
// @Summary Application counts for my bursaries
// @Tags Provider Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /providers/applications/statistics [get]
func (h *ApplicationHandler) Statistics(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	stats, err := h.service.Statistics(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Export godoc
// @Summary Download received applications
// @Tags Provider Applications
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Param status query string false "Status filter"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /providers/applications/export [get]
func (h *ApplicationHandler) Export(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	result, err := h.service.Export(c.Request.Context(), claims.UserID, c.Query("status"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
