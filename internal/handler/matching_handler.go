package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bursary-match-api/internal/dto"
	"github.com/noah-isme/bursary-match-api/pkg/response"
)

type matchingService interface {
	Search(ctx context.Context, providerID string, req dto.LearnerSearchRequest) ([]dto.MatchResult, error)
	GetLearnerProfile(ctx context.Context, providerID, learnerID string) (*dto.LearnerProfileDetail, error)
}

// MatchingHandler lets providers discover learners.
type MatchingHandler struct {
	service matchingService
}

// NewMatchingHandler constructs the handler.
func NewMatchingHandler(service matchingService) *MatchingHandler {
	return &MatchingHandler{service: service}
}

// Search godoc
// @Summary Search learners by academic performance and circumstances
// @Description All criteria are optional and combined with AND. Results are ordered by overall average, highest first.
// @Tags Matching
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.LearnerSearchRequest true "Search criteria"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /providers/search/learners [post]
func (h *MatchingHandler) Search(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.LearnerSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid search payload"))
		return
	}
	results, err := h.service.Search(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil, map[string]interface{}{"total": len(results)})
}

// GetLearner godoc
// @Summary View a learner's profile and academic history
// @Tags Matching
// @Produce json
// @Security BearerAuth
// @Param learnerId path string true "Learner ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /providers/learners/{learnerId} [get]
func (h *MatchingHandler) GetLearner(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	learnerID, ok := pathID(c, "learnerId")
	if !ok {
		return
	}
	profile, err := h.service.GetLearnerProfile(c.Request.Context(), claims.UserID, learnerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}
