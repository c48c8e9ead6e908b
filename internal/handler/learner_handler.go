package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bursary-match-api/internal/dto"
	"github.com/noah-isme/bursary-match-api/internal/middleware"
	"github.com/noah-isme/bursary-match-api/pkg/response"
)

type learnerProfileService interface {
	GetProfile(ctx context.Context, learnerID string) (*dto.LearnerProfileResponse, bool, error)
	UpdateProfile(ctx context.Context, learnerID string, req dto.UpdateProfileRequest) (*dto.LearnerProfileResponse, error)
}

type learnerFollowerService interface {
	ListFollowers(ctx context.Context, learnerID string) ([]dto.FollowerResponse, error)
	FollowerCount(ctx context.Context, learnerID string) (int64, error)
}

// LearnerHandler serves the authenticated learner's own profile.
type LearnerHandler struct {
	profiles  learnerProfileService
	followers learnerFollowerService
}

// NewLearnerHandler constructs a LearnerHandler.
func NewLearnerHandler(profiles learnerProfileService, followers learnerFollowerService) *LearnerHandler {
	return &LearnerHandler{profiles: profiles, followers: followers}
}

// GetProfile godoc
// @Summary Get my learner profile
// @Tags Learners
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /learners/me [get]
func (h *LearnerHandler) GetProfile(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	profile, hit, err := h.profiles.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, profile, nil, middleware.ResponseMeta(c))
}

// UpdateProfile godoc
// @Summary Update my learner profile
// @Tags Learners
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /learners/me [put]
func (h *LearnerHandler) UpdateProfile(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid profile payload"))
		return
	}
	profile, err := h.profiles.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// ListFollowers godoc
// @Summary List providers following me
// @Tags Learners
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /learners/me/followers [get]
func (h *LearnerHandler) ListFollowers(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.followers.ListFollowers(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// FollowerCount godoc
// @Summary Count providers following me
// @Tags Learners
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /learners/me/followers/count [get]
func (h *LearnerHandler) FollowerCount(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	count, err := h.followers.FollowerCount(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.CountResponse{Count: count}, nil)
}
