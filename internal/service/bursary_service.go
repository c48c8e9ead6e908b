package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bursary-match-api/internal/dto"
	"github.com/noah-isme/bursary-match-api/internal/models"
	appErrors "github.com/noah-isme/bursary-match-api/pkg/errors"
)

type bursaryStore interface {
	FindByID(ctx context.Context, id string) (*models.BursaryDetail, error)
	ListActive(ctx context.Context) ([]models.BursaryDetail, error)
	ListAvailable(ctx context.Context, today time.Time) ([]models.BursaryDetail, error)
	Search(ctx context.Context, filter models.BursaryFilter) ([]models.BursaryDetail, error)
	CountActive(ctx context.Context) (int64, error)
}

// BursaryService serves the public bursary catalogue with read-through caching.
type BursaryService struct {
	repo    bursaryStore
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewBursaryService constructs a BursaryService.
func NewBursaryService(repo bursaryStore, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *BursaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BursaryService{repo: repo, cache: cache, metrics: metrics, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// ListActive returns active bursaries by deadline. The flag reports a cache hit.
func (s *BursaryService) ListActive(ctx context.Context) ([]dto.BursarySummary, bool, error) {
	key := cacheKeyBursaries + ":active"
	var cached []dto.BursarySummary
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, true, nil
	}

	start := time.Now()
	list, err := s.repo.ListActive(ctx)
	s.metrics.ObserveDBQuery("bursaries_active", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bursaries")
	}
	out := s.summaries(list)
	_ = s.cache.Set(ctx, key, out, 0)
	return out, false, nil
}

// ListAvailable returns active bursaries still open for applications today.
func (s *BursaryService) ListAvailable(ctx context.Context) ([]dto.BursarySummary, bool, error) {
	today := s.now()
	key := fmt.Sprintf("%s:available:%s", cacheKeyBursaries, today.Format("2006-01-02"))
	var cached []dto.BursarySummary
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, true, nil
	}

	start := time.Now()
	list, err := s.repo.ListAvailable(ctx, today)
	s.metrics.ObserveDBQuery("bursaries_available", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available bursaries")
	}
	out := s.summaries(list)
	_ = s.cache.Set(ctx, key, out, 0)
	return out, false, nil
}

// Search filters the catalogue.
func (s *BursaryService) Search(ctx context.Context, filter models.BursaryFilter) ([]dto.BursarySummary, error) {
	if filter.MinAmount != nil && filter.MaxAmount != nil && filter.MinAmount.GreaterThan(*filter.MaxAmount) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "minAmount cannot exceed maxAmount")
	}
	if filter.DeadlineAfter != nil && filter.DeadlineBefore != nil && filter.DeadlineAfter.After(*filter.DeadlineBefore) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deadlineAfter cannot be later than deadlineBefore")
	}

	start := time.Now()
	list, err := s.repo.Search(ctx, filter)
	s.metrics.ObserveDBQuery("bursaries_search", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search bursaries")
	}
	return s.summaries(list), nil
}

// Get returns a bursary with its provider.
func (s *BursaryService) Get(ctx context.Context, id string) (*dto.BursaryDetailResponse, bool, error) {
	key := fmt.Sprintf("%s:detail:%s", cacheKeyBursaries, id)
	var cached dto.BursaryDetailResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "bursary not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bursary")
	}
	resp := &dto.BursaryDetailResponse{
		ID:                  b.ID,
		Title:               b.Title,
		Description:         b.Description,
		Amount:              b.Amount,
		ApplicationDeadline: b.ApplicationDeadline,
		IsActive:            b.IsActive,
		Criteria:            b.Criteria,
		CreatedAt:           b.CreatedAt,
		Provider: dto.ProviderSummary{
			ID:               b.ProviderID,
			OrganizationName: b.ProviderName,
			OrganizationType: b.ProviderType,
			Location:         b.ProviderLocation,
		},
	}
	_ = s.cache.Set(ctx, key, resp, 0)
	return resp, false, nil
}

// CountActive counts active bursaries.
func (s *BursaryService) CountActive(ctx context.Context) (int64, error) {
	key := cacheKeyBursaries + ":count"
	var cached int64
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}
	count, err := s.repo.CountActive(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count bursaries")
	}
	_ = s.cache.Set(ctx, key, count, 0)
	return count, nil
}

func (s *BursaryService) summaries(list []models.BursaryDetail) []dto.BursarySummary {
	today := s.now()
	out := make([]dto.BursarySummary, len(list))
	for i, b := range list {
		out[i] = dto.BursarySummary{
			ID:                  b.ID,
			Title:               b.Title,
			Amount:              b.Amount,
			ApplicationDeadline: b.ApplicationDeadline,
			ProviderName:        b.ProviderName,
			ProviderType:        b.ProviderType,
			ProviderLocation:    b.ProviderLocation,
			IsActive:            b.IsActive,
			IsAvailable:         b.IsAvailable(today),
		}
	}
	return out
}
