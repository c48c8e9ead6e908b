package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bursary-match-api/internal/dto"
	"github.com/noah-isme/bursary-match-api/internal/models"
	"github.com/noah-isme/bursary-match-api/pkg/response"
)

type authService interface {
	LoginLearner(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	LoginProvider(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Logout(ctx context.Context, userID string, role models.UserRole)
}

type signupService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (*models.AuthResponse, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
}

// AuthHandler wires HTTP endpoints to account creation and login.
type AuthHandler struct {
	auth    authService
	signups signupService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(auth authService, signups signupService) *AuthHandler {
	return &AuthHandler{auth: auth, signups: signups}
}

// Signup godoc
// @Summary Register a learner
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.SignupRequest true "Signup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/learner/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid signup payload"))
		return
	}
	res, err := h.signups.Signup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// LearnerLogin godoc
// @Summary Authenticate a learner
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/learner/login [post]
func (h *AuthHandler) LearnerLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid login payload"))
		return
	}
	res, err := h.auth.LoginLearner(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ProviderLogin godoc
// @Summary Authenticate a bursary provider
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/provider/login [post]
func (h *AuthHandler) ProviderLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid login payload"))
		return
	}
	res, err := h.auth.LoginProvider(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Logout godoc
// @Summary Log out
// @Description Tokens are stateless; clients discard them.
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	h.auth.Logout(c.Request.Context(), claims.UserID, claims.Role)
	response.JSON(c, http.StatusOK, gin.H{"message": "logged out"}, nil)
}

// CheckEmail godoc
// @Summary Check whether an email is registered
// @Tags Authentication
// @Produce json
// @Param email query string true "Email"
// @Success 200 {object} response.Envelope
// @Router /auth/check-email [get]
func (h *AuthHandler) CheckEmail(c *gin.Context) {
	exists, err := h.signups.CheckEmailExists(c.Request.Context(), c.Query("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"exists": exists}, nil)
}
