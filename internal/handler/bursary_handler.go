package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bursary-match-api/internal/dto"
	"github.com/noah-isme/bursary-match-api/internal/middleware"
	"github.com/noah-isme/bursary-match-api/internal/models"
	"github.com/noah-isme/bursary-match-api/pkg/response"
)

type bursaryService interface {
	ListActive(ctx context.Context) ([]dto.BursarySummary, bool, error)
	ListAvailable(ctx context.Context) ([]dto.BursarySummary, bool, error)
	Search(ctx context.Context, filter models.BursaryFilter) ([]dto.BursarySummary, error)
	Get(ctx context.Context, id string) (*dto.BursaryDetailResponse, bool, error)
	CountActive(ctx context.Context) (int64, error)
}

// BursaryHandler serves the public bursary catalogue.
type BursaryHandler struct {
	service bursaryService
}

// NewBursaryHandler constructs the handler.
func NewBursaryHandler(service bursaryService) *BursaryHandler {
	return &BursaryHandler{service: service}
}

// List godoc
// @Summary List active bursaries
// @Tags Bursaries
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /bursaries [get]
func (h *BursaryHandler) List(c *gin.Context) {
	list, hit, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, list, nil, middleware.ResponseMeta(c))
}

// ListAvailable godoc
// @Summary List bursaries still accepting applications
// @Tags Bursaries
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /bursaries/available [get]
func (h *BursaryHandler) ListAvailable(c *gin.Context) {
	list, hit, err := h.service.ListAvailable(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, list, nil, middleware.ResponseMeta(c))
}

// Search godoc
// @Summary Search the bursary catalogue
// @Tags Bursaries
// @Produce json
// @Param keyword query string false "Matches title or description"
// @Param minAmount query number false "Minimum amount"
// @Param maxAmount query number false "Maximum amount"
// @Param providerType query string false "Provider type"
// @Param location query string false "Provider location"
// @Param isActive query bool false "Active flag (default true)"
// @Param deadlineAfter query string false "YYYY-MM-DD"
// @Param deadlineBefore query string false "YYYY-MM-DD"
// @Param sortBy query string false "amount|deadline|createdAt"
// @Param sortDirection query string false "asc|desc"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /bursaries/search [get]
func (h *BursaryHandler) Search(c *gin.Context) {
	filter := models.BursaryFilter{
		Keyword:       strings.TrimSpace(c.Query("keyword")),
		ProviderType:  strings.TrimSpace(c.Query("providerType")),
		Location:      strings.TrimSpace(c.Query("location")),
		SortBy:        c.Query("sortBy"),
		SortDirection: c.Query("sortDirection"),
	}

	var err error
	if filter.MinAmount, err = parseDecimalParam("minAmount", c.Query("minAmount")); err != nil {
		response.Error(c, err)
		return
	}
	if filter.MaxAmount, err = parseDecimalParam("maxAmount", c.Query("maxAmount")); err != nil {
		response.Error(c, err)
		return
	}
	if filter.IsActive, err = parseBoolParam("isActive", c.Query("isActive")); err != nil {
		response.Error(c, err)
		return
	}
	if filter.IsActive == nil {
		active := true
		filter.IsActive = &active
	}
	if filter.DeadlineAfter, err = parseDateParam("deadlineAfter", c.Query("deadlineAfter")); err != nil {
		response.Error(c, err)
		return
	}
	if filter.DeadlineBefore, err = parseDateParam("deadlineBefore", c.Query("deadlineBefore")); err != nil {
		response.Error(c, err)
		return
	}

	list, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Count godoc
// @Summary Count active bursaries
// @Tags Bursaries
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /bursaries/count [get]
func (h *BursaryHandler) Count(c *gin.Context) {
	count, err := h.service.CountActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.CountResponse{Count: count}, nil)
}

// Get godoc
// @Summary Get a bursary
// @Tags Bursaries
// @Produce json
// @Param id path string true "Bursary ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bursaries/{id} [get]
func (h *BursaryHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	bursary, hit, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, bursary, nil, middleware.ResponseMeta(c))
}
