package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bursary-match-api/internal/dto"
	"github.com/noah-isme/bursary-match-api/pkg/response"
)

type followService interface {
	Follow(ctx context.Context, providerID, learnerID string, req dto.FollowLearnerRequest) (*dto.FollowResponse, error)
	Unfollow(ctx context.Context, providerID, learnerID string) error
	ListFollowing(ctx context.Context, providerID string) ([]dto.FollowedLearnerResponse, error)
	IsFollowing(ctx context.Context, providerID, learnerID string) (bool, error)
}

// FollowHandler manages the learners a provider follows.
type FollowHandler struct {
	service followService
}

// NewFollowHandler constructs the handler.
func NewFollowHandler(service followService) *FollowHandler {
	return &FollowHandler{service: service}
}

// Follow godoc
// @Summary Follow a learner
// @Tags Follows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param learnerId path string true "Learner ID"
// @Param payload body dto.FollowLearnerRequest false "Optional notes"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /providers/follows/{learnerId} [post]
func (h *FollowHandler) Follow(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.FollowLearnerRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, bindError(err, "invalid follow payload"))
		return
	}
	learnerID, ok := pathID(c, "learnerId")
	if !ok {
		return
	}
	follow, err := h.service.Follow(c.Request.Context(), claims.UserID, learnerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, follow)
}

// Unfollow godoc
// @Summary Stop following a learner
// @Tags Follows
// @Security BearerAuth
// @Param learnerId path string true "Learner ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /providers/follows/{learnerId} [delete]
func (h *FollowHandler) Unfollow(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	learnerID, ok := pathID(c, "learnerId")
	if !ok {
		return
	}
	if err := h.service.Unfollow(c.Request.Context(), claims.UserID, learnerID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List followed learners
// @Tags Follows
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /providers/follows [get]
func (h *FollowHandler) List(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.service.ListFollowing(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Status godoc
// @Summary Check whether I follow a learner
// @Tags Follows
// @Produce json
// @Security BearerAuth
// @Param learnerId path string true "Learner ID"
// @Success 200 {object} response.Envelope
// @Router /providers/follows/{learnerId}/status [get]
func (h *FollowHandler) Status(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	learnerID, ok := pathID(c, "learnerId")
	if !ok {
		return
	}
	following, err := h.service.IsFollowing(c.Request.Context(), claims.UserID, learnerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"isFollowing": following}, nil)
}
