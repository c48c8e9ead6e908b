package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/bursary-match-api/internal/dto"
	"github.com/noah-isme/bursary-match-api/internal/models"
	appErrors "github.com/noah-isme/bursary-match-api/pkg/errors"
	reqlog "github.com/noah-isme/bursary-match-api/pkg/logger"
)

const defaultMatchingWorkers = 8

type matchingLearnerReader interface {
	ListSearchCandidates(ctx context.Context, filter models.LearnerCandidateFilter) ([]models.Learner, error)
	FindByID(ctx context.Context, id string) (*models.Learner, error)
}

type matchingAcademicReader interface {
	ListYearsByLearner(ctx context.Context, learnerID string) ([]models.AcademicYear, error)
	ListTermsByYears(ctx context.Context, yearIDs []string) ([]models.TermResult, error)
	ListMarksByTerms(ctx context.Context, termIDs []string) ([]models.SubjectMark, error)
	LoadHistory(ctx context.Context, learnerID string) (models.AcademicHistory, error)
}

type matchingFollowReader interface {
	ListFollowedLearnerIDs(ctx context.Context, providerID string) ([]string, error)
	Find(ctx context.Context, providerID, learnerID string) (*models.ProviderLearnerFollow, error)
}

// MatchingConfig tunes the evaluation worker pool.
type MatchingConfig struct {
	Workers int
}

// MatchingService ranks learners against provider search criteria.
type MatchingService struct {
	learners matchingLearnerReader
	academic matchingAcademicReader
	follows  matchingFollowReader
	metrics  *MetricsService
	logger   *zap.Logger
	workers  int
}

// NewMatchingService constructs a MatchingService.
func NewMatchingService(learners matchingLearnerReader, academic matchingAcademicReader, follows matchingFollowReader, metrics *MetricsService, logger *zap.Logger, cfg MatchingConfig) *MatchingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultMatchingWorkers
	}
	return &MatchingService{learners: learners, academic: academic, follows: follows, metrics: metrics, logger: logger, workers: workers}
}

// Search evaluates every candidate learner against the criteria and returns matches ordered by
// overall average, highest first. Ties keep the candidate population order.
func (s *MatchingService) Search(ctx context.Context, providerID string, req dto.LearnerSearchRequest) ([]dto.MatchResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSearch(time.Since(start)) }()

	followedIDs, err := s.follows.ListFollowedLearnerIDs(ctx, providerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load followed learners")
	}
	followed := make(map[string]struct{}, len(followedIDs))
	for _, id := range followedIDs {
		followed[id] = struct{}{}
	}

	candidates, err := s.learners.ListSearchCandidates(ctx, models.LearnerCandidateFilter{
		Location:           req.Location,
		MaxHouseholdIncome: req.MaxHouseholdIncome,
	})
	s.metrics.ObserveDBQuery("learner_search_candidates", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load learners")
	}

	slots := make([]*dto.MatchResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range candidates {
		learner := candidates[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			match, err := s.evaluate(gctx, learner, req)
			if err != nil {
				s.metrics.RecordSearchCandidate(SearchOutcomeFailed)
				reqlog.FromContext(ctx, s.logger).Warn("learner evaluation failed", zap.String("learner_id", learner.ID), zap.Error(err))
				return nil
			}
			if match == nil {
				s.metrics.RecordSearchCandidate(SearchOutcomeFiltered)
				return nil
			}
			_, match.IsFollowing = followed[learner.ID]
			s.metrics.RecordSearchCandidate(SearchOutcomeMatched)
			slots[i] = match
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "learner search interrupted")
	}

	results := make([]dto.MatchResult, 0, len(slots))
	for _, match := range slots {
		if match != nil {
			results = append(results, *match)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].OverallAverage.GreaterThan(results[j].OverallAverage)
	})

	reqlog.FromContext(ctx, s.logger).Debug("learner search completed",
		zap.String("provider_id", providerID),
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(results)),
		zap.Duration("duration", time.Since(start)))
	return results, nil
}

// evaluate returns nil without error when the learner does not match.
func (s *MatchingService) evaluate(ctx context.Context, learner models.Learner, req dto.LearnerSearchRequest) (match *dto.MatchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			match = nil
			err = fmt.Errorf("panic evaluating learner: %v", r)
		}
	}()

	years, err := s.academic.ListYearsByLearner(ctx, learner.ID)
	if err != nil {
		return nil, fmt.Errorf("load academic years: %w", err)
	}
	latest, ok := models.NewAcademicHistory(years, nil, nil).Latest()
	if !ok {
		return nil, nil
	}

	if req.GradeLevel != nil && latest.GradeLevel != *req.GradeLevel {
		return nil, nil
	}
	if req.Year != nil && latest.Year != *req.Year {
		return nil, nil
	}
	if !locationMatches(learner.Location, req.Location) {
		return nil, nil
	}
	if !incomeWithin(learner.HouseholdIncome, req.MaxHouseholdIncome) {
		return nil, nil
	}

	terms, err := s.academic.ListTermsByYears(ctx, []string{latest.ID})
	if err != nil {
		return nil, fmt.Errorf("load term results: %w", err)
	}
	if len(terms) == 0 {
		return nil, nil
	}

	averages := TermAverageValues(terms)
	overall := ComputeOverallAverage(averages)
	highest := ComputeHighestTermAverage(averages)

	if req.MinAverageMark != nil && overall.LessThan(*req.MinAverageMark) {
		return nil, nil
	}

	if req.HasSubjectFilter() {
		termIDs := make([]string, len(terms))
		for i, t := range terms {
			termIDs[i] = t.ID
		}
		marks, err := s.academic.ListMarksByTerms(ctx, termIDs)
		if err != nil {
			return nil, fmt.Errorf("load subject marks: %w", err)
		}
		if !subjectQualifies(marks, *req.SubjectName, *req.MinSubjectMark) {
			return nil, nil
		}
	}

	return &dto.MatchResult{
		LearnerID:          learner.ID,
		FirstName:          learner.FirstName,
		LastName:           learner.LastName,
		FullName:           learner.FullName(),
		SchoolName:         learner.SchoolName,
		Location:           learner.Location,
		HouseholdIncome:    learner.HouseholdIncome,
		CurrentGradeLevel:  latest.GradeLevel,
		CurrentYear:        latest.Year,
		OverallAverage:     overall,
		HighestTermAverage: highest,
	}, nil
}

// GetLearnerProfile returns a learner's profile with full academic history as seen by a provider.
func (s *MatchingService) GetLearnerProfile(ctx context.Context, providerID, learnerID string) (*dto.LearnerProfileDetail, error) {
	learner, err := s.learners.FindByID(ctx, learnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "learner not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load learner")
	}

	history, err := s.academic.LoadHistory(ctx, learnerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic history")
	}

	detail := &dto.LearnerProfileDetail{
		LearnerID:       learner.ID,
		FirstName:       learner.FirstName,
		LastName:        learner.LastName,
		FullName:        learner.FullName(),
		Email:           learner.Email,
		SchoolName:      learner.SchoolName,
		Location:        learner.Location,
		HouseholdIncome: learner.HouseholdIncome,
		JoinedAt:        learner.CreatedAt,
		AcademicHistory: academicYearResponses(history),
	}

	follow, err := s.follows.Find(ctx, providerID, learnerID)
	switch {
	case err == nil:
		detail.IsFollowing = true
		followedAt := follow.FollowedAt
		detail.FollowedAt = &followedAt
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load follow status")
	}
	return detail, nil
}

func locationMatches(learnerLocation, wanted *string) bool {
	if wanted == nil || strings.TrimSpace(*wanted) == "" || learnerLocation == nil {
		return true
	}
	return strings.Contains(strings.ToLower(*learnerLocation), strings.ToLower(strings.TrimSpace(*wanted)))
}

func incomeWithin(income decimal.NullDecimal, max *decimal.Decimal) bool {
	if max == nil || !income.Valid {
		return true
	}
	return income.Decimal.LessThanOrEqual(*max)
}

func subjectQualifies(marks []models.SubjectMark, subject string, minMark decimal.Decimal) bool {
	for _, m := range marks {
		if strings.EqualFold(strings.TrimSpace(m.SubjectName), strings.TrimSpace(subject)) && m.Mark.GreaterThanOrEqual(minMark) {
			return true
		}
	}
	return false
}
