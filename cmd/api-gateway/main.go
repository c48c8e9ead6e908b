package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/bursary-match-api/api/swagger"
	"github.com/noah-isme/bursary-match-api/internal/handler"
	"github.com/noah-isme/bursary-match-api/internal/repository"
	"github.com/noah-isme/bursary-match-api/internal/router"
	"github.com/noah-isme/bursary-match-api/internal/service"
	"github.com/noah-isme/bursary-match-api/migrations"
	"github.com/noah-isme/bursary-match-api/pkg/cache"
	"github.com/noah-isme/bursary-match-api/pkg/config"
	"github.com/noah-isme/bursary-match-api/pkg/database"
	"github.com/noah-isme/bursary-match-api/pkg/jobs"
	"github.com/noah-isme/bursary-match-api/pkg/logger"
)

// @title Bursary Match API
// @version 1.0.0
// @description Connects learners with bursary providers through academic-record matching.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Migrations.Auto {
		migrator, err := database.NewMigrator(db.DB, migrations.FS, logr)
		if err != nil {
			return err
		}
		if err := migrator.Up(ctx); err != nil {
			return err
		}
	}

	metrics := service.NewMetricsService()
	var cacheStore service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer client.Close()
			cacheStore = repository.NewCacheRepository(client, "bursary-match")
		}
	}
	cacheSvc := service.NewCacheService(cacheStore, metrics, cfg.Cache.TTL, logr, cacheStore != nil)

	learners := repository.NewLearnerRepository(db)
	providers := repository.NewProviderRepository(db)
	academic := repository.NewAcademicRepository(db)
	bursaries := repository.NewBursaryRepository(db)
	applications := repository.NewApplicationRepository(db)
	follows := repository.NewFollowRepository(db)
	notifications := repository.NewNotificationRepository(db)

	validate := validator.New()

	notificationSvc := service.NewNotificationService(notifications, learners, follows, metrics, logr)
	dispatcher := service.NewNotificationDispatcher(notificationSvc, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	}, metrics, logr)
	// Detached from the signal context; Stop runs after the server has drained.
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	authSvc := service.NewAuthService(learners, providers, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	learnerSvc := service.NewLearnerService(learners, authSvc, cacheSvc, validate, logr)
	academicSvc := service.NewAcademicService(academic, dispatcher, validate, metrics, logr)
	bursarySvc := service.NewBursaryService(bursaries, cacheSvc, metrics, logr)
	applicationSvc := service.NewApplicationService(applications, bursaries, dispatcher, validate, metrics, logr)
	followSvc := service.NewFollowService(follows, learners, providers, dispatcher, validate, logr)
	matchingSvc := service.NewMatchingService(learners, academic, follows, metrics, logr, service.MatchingConfig{
		Workers: cfg.Matching.Workers,
	})

	engine := router.New(router.Handlers{
		Auth:         handler.NewAuthHandler(authSvc, learnerSvc),
		Learner:      handler.NewLearnerHandler(learnerSvc, followSvc),
		Academic:     handler.NewAcademicHandler(academicSvc),
		Bursary:      handler.NewBursaryHandler(bursarySvc),
		Application:  handler.NewApplicationHandler(applicationSvc),
		Matching:     handler.NewMatchingHandler(matchingSvc),
		Follow:       handler.NewFollowHandler(followSvc),
		Notification: handler.NewNotificationHandler(notificationSvc),
		Observability: handler.NewMetricsHandler(metrics, func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		}),
	}, router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Metrics:        metrics,
		Tokens:         authSvc,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	dispatcher.Stop()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
