package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/bursary-match-api/internal/dto"
	"github.com/noah-isme/bursary-match-api/internal/models"
	"github.com/noah-isme/bursary-match-api/internal/repository"
	appErrors "github.com/noah-isme/bursary-match-api/pkg/errors"
	reqlog "github.com/noah-isme/bursary-match-api/pkg/logger"
)

type academicStore interface {
	CreateYear(ctx context.Context, year *models.AcademicYear) error
	YearExists(ctx context.Context, learnerID string, year, gradeLevel int) (bool, error)
	FindYearByID(ctx context.Context, id string) (*models.AcademicYear, error)
	DeleteYear(ctx context.Context, id string) error
	FindTermByID(ctx context.Context, id string) (*models.TermResult, error)
	TermExists(ctx context.Context, academicYearID string, termNumber int) (bool, error)
	ListTermsByYears(ctx context.Context, yearIDs []string) ([]models.TermResult, error)
	ListMarksByTerms(ctx context.Context, termIDs []string) ([]models.SubjectMark, error)
	LoadHistory(ctx context.Context, learnerID string) (models.AcademicHistory, error)
	CreateTermWithMarks(ctx context.Context, term *models.TermResult, marks []models.SubjectMark) error
	ReplaceTermMarks(ctx context.Context, term *models.TermResult, marks []models.SubjectMark) error
}

// AcademicEventPublisher receives academic record mutations once they are committed.
type AcademicEventPublisher interface {
	AcademicRecordMutated(ctx context.Context, learnerID, academicYearID string)
}

// AcademicService manages a learner's academic years, term results and subject marks.
type AcademicService struct {
	repo      academicStore
	events    AcademicEventPublisher
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewAcademicService constructs an AcademicService.
func NewAcademicService(repo academicStore, events AcademicEventPublisher, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *AcademicService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicService{repo: repo, events: events, validator: validate, metrics: metrics, logger: logger}
}

// CreateAcademicYear opens a new academic year for the learner.
func (s *AcademicService) CreateAcademicYear(ctx context.Context, learnerID string, req dto.CreateAcademicYearRequest) (*dto.AcademicYearResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic year payload")
	}

	exists, err := s.repo.YearExists(ctx, learnerID, req.Year, req.GradeLevel)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check academic year")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("academic year %d grade %d already exists", req.Year, req.GradeLevel))
	}

	year := &models.AcademicYear{LearnerID: learnerID, Year: req.Year, GradeLevel: req.GradeLevel}
	if err := s.repo.CreateYear(ctx, year); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("academic year %d grade %d already exists", req.Year, req.GradeLevel))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academic year")
	}

	reqlog.FromContext(ctx, s.logger).Info("academic year created", zap.String("learner_id", learnerID), zap.String("academic_year_id", year.ID))
	return &dto.AcademicYearResponse{
		ID:         year.ID,
		Year:       year.Year,
		GradeLevel: year.GradeLevel,
		Terms:      []dto.TermResultResponse{},
		CreatedAt:  year.CreatedAt,
	}, nil
}

// AddTermResult records a new term with its subject marks and notifies the learner's followers.
func (s *AcademicService) AddTermResult(ctx context.Context, learnerID, academicYearID string, req dto.CreateTermResultRequest) (*dto.TermResultResponse, error) {
	marks, err := s.validateTermRequest(req)
	if err != nil {
		return nil, err
	}

	year, err := s.ownedYear(ctx, learnerID, academicYearID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.TermExists(ctx, year.ID, req.TermNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check term result")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("term %d results already exist for this academic year", req.TermNumber))
	}

	term := &models.TermResult{
		AcademicYearID: year.ID,
		TermNumber:     req.TermNumber,
		AverageMark:    ComputeTermAverage(SubjectMarkValues(marks)),
	}
	start := time.Now()
	err = s.repo.CreateTermWithMarks(ctx, term, marks)
	s.metrics.ObserveDBQuery("term_result_create", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("term %d results already exist for this academic year", req.TermNumber))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save term result")
	}

	reqlog.FromContext(ctx, s.logger).Info("term result created",
		zap.String("learner_id", learnerID),
		zap.String("term_result_id", term.ID),
		zap.String("average", term.AverageMark.StringFixed(averageScale)))
	s.publish(ctx, learnerID, year.ID)

	resp := termResultResponse(*term, marks)
	return &resp, nil
}

// UpdateTermResult replaces a term's marks and recomputes its average. The term number cannot change.
func (s *AcademicService) UpdateTermResult(ctx context.Context, learnerID, termResultID string, req dto.CreateTermResultRequest) (*dto.TermResultResponse, error) {
	marks, err := s.validateTermRequest(req)
	if err != nil {
		return nil, err
	}

	term, err := s.repo.FindTermByID(ctx, termResultID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term result")
	}
	if _, err := s.ownedYear(ctx, learnerID, term.AcademicYearID); err != nil {
		return nil, err
	}
	if term.TermNumber != req.TermNumber {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term number cannot be changed; delete and recreate instead")
	}

	term.AverageMark = ComputeTermAverage(SubjectMarkValues(marks))
	start := time.Now()
	err = s.repo.ReplaceTermMarks(ctx, term, marks)
	s.metrics.ObserveDBQuery("term_result_update", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject names must be unique within a term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update term result")
	}

	reqlog.FromContext(ctx, s.logger).Info("term result updated",
		zap.String("learner_id", learnerID),
		zap.String("term_result_id", term.ID),
		zap.String("average", term.AverageMark.StringFixed(averageScale)))
	s.publish(ctx, learnerID, term.AcademicYearID)

	resp := termResultResponse(*term, marks)
	return &resp, nil
}

// ListMyAcademicYears returns the learner's full record, most recent year first.
func (s *AcademicService) ListMyAcademicYears(ctx context.Context, learnerID string) ([]dto.AcademicYearResponse, error) {
	start := time.Now()
	history, err := s.repo.LoadHistory(ctx, learnerID)
	s.metrics.ObserveDBQuery("academic_history", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic years")
	}
	return academicYearResponses(history), nil
}

// GetAcademicYear returns one of the learner's years with its terms.
func (s *AcademicService) GetAcademicYear(ctx context.Context, learnerID, academicYearID string) (*dto.AcademicYearResponse, error) {
	year, err := s.ownedYear(ctx, learnerID, academicYearID)
	if err != nil {
		return nil, err
	}
	terms, err := s.repo.ListTermsByYears(ctx, []string{year.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term results")
	}
	termIDs := make([]string, len(terms))
	for i, t := range terms {
		termIDs[i] = t.ID
	}
	marks, err := s.repo.ListMarksByTerms(ctx, termIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject marks")
	}
	history := models.NewAcademicHistory([]models.AcademicYear{*year}, terms, marks)
	resp := academicYearResponses(history)[0]
	return &resp, nil
}

// DeleteAcademicYear removes a year together with its terms and marks.
func (s *AcademicService) DeleteAcademicYear(ctx context.Context, learnerID, academicYearID string) error {
	year, err := s.ownedYear(ctx, learnerID, academicYearID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteYear(ctx, year.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete academic year")
	}
	reqlog.FromContext(ctx, s.logger).Info("academic year deleted", zap.String("learner_id", learnerID), zap.String("academic_year_id", year.ID))
	return nil
}

func (s *AcademicService) ownedYear(ctx context.Context, learnerID, academicYearID string) (*models.AcademicYear, error) {
	year, err := s.repo.FindYearByID(ctx, academicYearID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	if year.LearnerID != learnerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "this academic year does not belong to you")
	}
	return year, nil
}

func (s *AcademicService) validateTermRequest(req dto.CreateTermResultRequest) ([]models.SubjectMark, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term result payload")
	}
	seen := make(map[string]struct{}, len(req.Subjects))
	marks := make([]models.SubjectMark, 0, len(req.Subjects))
	for _, subject := range req.Subjects {
		name := strings.TrimSpace(subject.SubjectName)
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %q appears more than once", name))
		}
		seen[key] = struct{}{}
		marks = append(marks, models.SubjectMark{SubjectName: name, Mark: decimal.NewFromInt(int64(*subject.Mark))})
	}
	return marks, nil
}

func (s *AcademicService) publish(ctx context.Context, learnerID, academicYearID string) {
	if s.events == nil {
		return
	}
	s.events.AcademicRecordMutated(ctx, learnerID, academicYearID)
}

func termResultResponse(term models.TermResult, marks []models.SubjectMark) dto.TermResultResponse {
	sorted := append([]models.SubjectMark(nil), marks...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SubjectName < sorted[j].SubjectName })
	subjects := make([]dto.SubjectMarkResponse, len(sorted))
	for i, m := range sorted {
		subjects[i] = dto.SubjectMarkResponse{ID: m.ID, SubjectName: m.SubjectName, Mark: m.Mark}
	}
	return dto.TermResultResponse{
		ID:          term.ID,
		TermNumber:  term.TermNumber,
		AverageMark: term.AverageMark,
		Subjects:    subjects,
		CreatedAt:   term.CreatedAt,
		UpdatedAt:   term.UpdatedAt,
	}
}

func academicYearResponses(history models.AcademicHistory) []dto.AcademicYearResponse {
	out := make([]dto.AcademicYearResponse, 0, len(history.Years))
	for _, year := range history.Years {
		terms := history.TermsByYear[year.ID]
		termResponses := make([]dto.TermResultResponse, 0, len(terms))
		for _, term := range terms {
			termResponses = append(termResponses, termResultResponse(term, history.MarksByTerm[term.ID]))
		}
		out = append(out, dto.AcademicYearResponse{
			ID:         year.ID,
			Year:       year.Year,
			GradeLevel: year.GradeLevel,
			Terms:      termResponses,
			CreatedAt:  year.CreatedAt,
		})
	}
	return out
}
