// Package router assembles the gin engine and mounts every API route.
package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/bursary-match-api/internal/handler"
	"github.com/noah-isme/bursary-match-api/internal/middleware"
	"github.com/noah-isme/bursary-match-api/internal/service"
	"github.com/noah-isme/bursary-match-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/bursary-match-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/bursary-match-api/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Auth          *handler.AuthHandler
	Learner       *handler.LearnerHandler
	Academic      *handler.AcademicHandler
	Bursary       *handler.BursaryHandler
	Application   *handler.ApplicationHandler
	Matching      *handler.MatchingHandler
	Follow        *handler.FollowHandler
	Notification  *handler.NotificationHandler
	Observability *handler.MetricsHandler
}

// Options carries the cross-cutting collaborators of the engine.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Tokens         middleware.TokenValidator
}

// New builds the gin engine.
func New(h Handlers, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	prefix := "/" + strings.Trim(opts.APIPrefix, "/")
	if prefix == "/" {
		prefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics))

	r.GET("/health", h.Observability.Health)
	r.GET("/ready", h.Observability.Ready)
	r.GET("/metrics", h.Observability.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())
	authn := middleware.JWT(opts.Tokens)

	auth := api.Group("/auth")
	auth.POST("/learner/signup", h.Auth.Signup)
	auth.POST("/learner/login", h.Auth.LearnerLogin)
	auth.POST("/provider/login", h.Auth.ProviderLogin)
	auth.GET("/check-email", h.Auth.CheckEmail)
	auth.POST("/logout", authn, h.Auth.Logout)

	bursaries := api.Group("/bursaries")
	bursaries.GET("", h.Bursary.List)
	bursaries.GET("/available", h.Bursary.ListAvailable)
	bursaries.GET("/search", h.Bursary.Search)
	bursaries.GET("/count", h.Bursary.Count)
	bursaries.GET("/:id", h.Bursary.Get)

	notifications := api.Group("/notifications", authn)
	notifications.GET("", h.Notification.List)
	notifications.GET("/unread-count", h.Notification.UnreadCount)
	notifications.PATCH("/read-all", h.Notification.MarkAllRead)
	notifications.PATCH("/:id/read", h.Notification.MarkRead)

	learner := api.Group("", authn, middleware.LearnerOnly())
	learner.GET("/learners/me", h.Learner.GetProfile)
	learner.PUT("/learners/me", h.Learner.UpdateProfile)
	learner.GET("/learners/me/followers", h.Learner.ListFollowers)
	learner.GET("/learners/me/followers/count", h.Learner.FollowerCount)

	learner.POST("/academic-years", h.Academic.CreateYear)
	learner.GET("/academic-years", h.Academic.ListYears)
	learner.GET("/academic-years/:id", h.Academic.GetYear)
	learner.DELETE("/academic-years/:id", h.Academic.DeleteYear)
	learner.POST("/academic-years/:id/terms", h.Academic.AddTerm)
	learner.PUT("/term-results/:id", h.Academic.UpdateTerm)

	learner.POST("/applications", h.Application.Apply)
	learner.GET("/applications", h.Application.ListMine)
	learner.GET("/applications/check/:bursaryId", h.Application.Check)
	learner.GET("/applications/:id", h.Application.Get)
	learner.DELETE("/applications/:id", h.Application.Withdraw)

	provider := api.Group("/providers", authn, middleware.ProviderOnly())
	provider.POST("/search/learners", h.Matching.Search)
	provider.GET("/learners/:learnerId", h.Matching.GetLearner)

	provider.GET("/follows", h.Follow.List)
	provider.POST("/follows/:learnerId", h.Follow.Follow)
	provider.DELETE("/follows/:learnerId", h.Follow.Unfollow)
	provider.GET("/follows/:learnerId/status", h.Follow.Status)

	provider.GET("/applications", h.Application.ListReceived)
	provider.GET("/applications/statistics", h.Application.Statistics)
	provider.GET("/applications/export", h.Application.Export)
	provider.PATCH("/applications/:id/status", h.Application.UpdateStatus)
	provider.GET("/bursaries/:bursaryId/applications", h.Application.ListForBursary)

	return r
}
