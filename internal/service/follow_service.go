package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/bursary-match-api/internal/dto"
	"github.com/noah-isme/bursary-match-api/internal/models"
	"github.com/noah-isme/bursary-match-api/internal/repository"
	appErrors "github.com/noah-isme/bursary-match-api/pkg/errors"
	reqlog "github.com/noah-isme/bursary-match-api/pkg/logger"
)

type followStore interface {
	Create(ctx context.Context, follow *models.ProviderLearnerFollow) error
	Exists(ctx context.Context, providerID, learnerID string) (bool, error)
	Delete(ctx context.Context, providerID, learnerID string) (bool, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.FollowedLearnerRow, error)
	ListFollowers(ctx context.Context, learnerID string) ([]models.FollowerRow, error)
	CountByLearner(ctx context.Context, learnerID string) (int64, error)
}

type followLearnerReader interface {
	FindByID(ctx context.Context, id string) (*models.Learner, error)
}

type followProviderReader interface {
	FindByID(ctx context.Context, id string) (*models.Provider, error)
}

// FollowEventPublisher is told about new follows once they are stored.
type FollowEventPublisher interface {
	FollowCreated(ctx context.Context, learnerID, providerName, followID string)
}

// FollowService manages provider subscriptions to learners.
type FollowService struct {
	repo      followStore
	learners  followLearnerReader
	providers followProviderReader
	events    FollowEventPublisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFollowService constructs a FollowService.
func NewFollowService(repo followStore, learners followLearnerReader, providers followProviderReader, events FollowEventPublisher, validate *validator.Validate, logger *zap.Logger) *FollowService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FollowService{repo: repo, learners: learners, providers: providers, events: events, validator: validate, logger: logger}
}

// Follow subscribes the provider to the learner's result updates and notifies the learner.
func (s *FollowService) Follow(ctx context.Context, providerID, learnerID string, req dto.FollowLearnerRequest) (*dto.FollowResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid follow payload")
	}

	provider, err := s.providers.FindByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "provider not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load provider")
	}
	learner, err := s.learners.FindByID(ctx, learnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "learner not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load learner")
	}

	exists, err := s.repo.Exists(ctx, providerID, learnerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check follow")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "you are already following this learner")
	}

	follow := &models.ProviderLearnerFollow{ProviderID: providerID, LearnerID: learnerID, Notes: req.Notes}
	if err := s.repo.Create(ctx, follow); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "you are already following this learner")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to follow learner")
	}

	reqlog.FromContext(ctx, s.logger).Info("provider followed learner", zap.String("provider_id", providerID), zap.String("learner_id", learnerID))
	if s.events != nil {
		s.events.FollowCreated(ctx, learnerID, provider.OrganizationName, follow.ID)
	}

	return &dto.FollowResponse{
		FollowID:    follow.ID,
		ProviderID:  providerID,
		LearnerID:   learnerID,
		LearnerName: learner.FullName(),
		Notes:       follow.Notes,
		FollowedAt:  follow.FollowedAt,
	}, nil
}

// Unfollow removes the subscription.
func (s *FollowService) Unfollow(ctx context.Context, providerID, learnerID string) error {
	removed, err := s.repo.Delete(ctx, providerID, learnerID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unfollow learner")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "follow relationship not found")
	}
	reqlog.FromContext(ctx, s.logger).Info("provider unfollowed learner", zap.String("provider_id", providerID), zap.String("learner_id", learnerID))
	return nil
}

// ListFollowing returns the learners a provider follows, most recent first.
func (s *FollowService) ListFollowing(ctx context.Context, providerID string) ([]dto.FollowedLearnerResponse, error) {
	rows, err := s.repo.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list followed learners")
	}
	out := make([]dto.FollowedLearnerResponse, len(rows))
	for i, row := range rows {
		out[i] = dto.FollowedLearnerResponse{
			ID:              row.LearnerID,
			FirstName:       row.FirstName,
			LastName:        row.LastName,
			SchoolName:      row.SchoolName,
			Location:        row.Location,
			HouseholdIncome: row.HouseholdIncome,
			FollowID:        row.ID,
			FollowedAt:      row.FollowedAt,
			Notes:           row.Notes,
		}
	}
	return out, nil
}

// IsFollowing reports whether the provider follows the learner.
func (s *FollowService) IsFollowing(ctx context.Context, providerID, learnerID string) (bool, error) {
	exists, err := s.repo.Exists(ctx, providerID, learnerID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check follow")
	}
	return exists, nil
}

// ListFollowers returns the providers following a learner.
func (s *FollowService) ListFollowers(ctx context.Context, learnerID string) ([]dto.FollowerResponse, error) {
	rows, err := s.repo.ListFollowers(ctx, learnerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list followers")
	}
	out := make([]dto.FollowerResponse, len(rows))
	for i, row := range rows {
		out[i] = dto.FollowerResponse{
			ProviderID:       row.ProviderID,
			OrganizationName: row.OrganizationName,
			OrganizationType: row.OrganizationType,
			Location:         row.ProviderLocation,
			FollowedAt:       row.FollowedAt,
		}
	}
	return out, nil
}

// FollowerCount returns how many providers follow the learner.
func (s *FollowService) FollowerCount(ctx context.Context, learnerID string) (int64, error) {
	count, err := s.repo.CountByLearner(ctx, learnerID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count followers")
	}
	return count, nil
}
