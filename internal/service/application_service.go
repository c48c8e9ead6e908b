package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/bursary-match-api/internal/dto"
	"github.com/noah-isme/bursary-match-api/internal/models"
	"github.com/noah-isme/bursary-match-api/internal/repository"
	appErrors "github.com/noah-isme/bursary-match-api/pkg/errors"
	"github.com/noah-isme/bursary-match-api/pkg/export"
	reqlog "github.com/noah-isme/bursary-match-api/pkg/logger"
)

type applicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, id string) (*models.Application, error)
	FindByLearnerAndBursary(ctx context.Context, learnerID, bursaryID string) (*models.Application, error)
	DeleteWithdrawable(ctx context.Context, id string) (bool, error)
	ApplyReview(ctx context.Context, review models.ApplicationReview) (*models.Application, error)
	ListByLearner(ctx context.Context, learnerID string) ([]models.LearnerApplicationRow, error)
	FindForLearner(ctx context.Context, id string) (*models.LearnerApplicationRow, error)
	ListByProvider(ctx context.Context, providerID string, status *models.ApplicationStatus) ([]models.ProviderApplicationRow, error)
	ListByBursary(ctx context.Context, bursaryID string) ([]models.ProviderApplicationRow, error)
	FindForProvider(ctx context.Context, id string) (*models.ProviderApplicationRow, error)
	CountByStatusForProvider(ctx context.Context, providerID string) ([]models.ApplicationStatusCount, error)
	CountByBursaryForProvider(ctx context.Context, providerID string) ([]models.ApplicationBursaryCount, error)
}

type applicationBursaryReader interface {
	FindByID(ctx context.Context, id string) (*models.BursaryDetail, error)
}

// ApplicationEventPublisher delivers single-recipient notifications about applications.
type ApplicationEventPublisher interface {
	Notify(ctx context.Context, n models.Notification)
}

// ExportResult is a rendered application export.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ApplicationService drives the bursary application lifecycle for learners and providers.
type ApplicationService struct {
	repo      applicationStore
	bursaries applicationBursaryReader
	events    ApplicationEventPublisher
	renderers map[string]export.Renderer
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(repo applicationStore, bursaries applicationBursaryReader, events ApplicationEventPublisher, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *ApplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	csvRenderer := export.NewCSVExporter()
	pdfRenderer := export.NewPDFExporter()
	return &ApplicationService{
		repo:      repo,
		bursaries: bursaries,
		events:    events,
		renderers: map[string]export.Renderer{
			csvRenderer.Extension(): csvRenderer,
			pdfRenderer.Extension(): pdfRenderer,
		},
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Apply submits the learner's application to an active bursary.
func (s *ApplicationService) Apply(ctx context.Context, learnerID string, req dto.CreateApplicationRequest) (*dto.ApplicationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	bursary, err := s.loadBursary(ctx, req.BursaryID)
	if err != nil {
		return nil, err
	}
	if !bursary.IsActive {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "this bursary is no longer active")
	}

	if _, err := s.repo.FindByLearnerAndBursary(ctx, learnerID, bursary.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "you have already applied to this bursary")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing application")
	}

	submittedAt := s.now()
	app := &models.Application{
		LearnerID:   learnerID,
		BursaryID:   bursary.ID,
		Status:      models.ApplicationStatusSubmitted,
		SubmittedAt: &submittedAt,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "you have already applied to this bursary")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit application")
	}

	reqlog.FromContext(ctx, s.logger).Info("application submitted",
		zap.String("application_id", app.ID),
		zap.String("learner_id", learnerID),
		zap.String("bursary_id", bursary.ID))
	s.notify(ctx, models.Notification{
		UserID:            bursary.ProviderID,
		UserType:          models.UserTypeProvider,
		NotificationType:  models.NotificationNewApplication,
		Title:             "New Application Received",
		Message:           fmt.Sprintf("A learner has applied for %s", bursary.Title),
		RelatedEntityType: strPtr(models.EntityApplication),
		RelatedEntityID:   strPtr(app.ID),
	})

	resp := learnerApplicationResponse(models.LearnerApplicationRow{
		Application:        *app,
		BursaryTitle:       bursary.Title,
		BursaryDescription: bursary.Description,
		BursaryAmount:      bursary.Amount,
		BursaryDeadline:    bursary.ApplicationDeadline,
		BursaryActive:      bursary.IsActive,
		ProviderID:         bursary.ProviderID,
		ProviderName:       bursary.ProviderName,
		ProviderType:       bursary.ProviderType,
		ProviderLocation:   bursary.ProviderLocation,
	})
	return &resp, nil
}

// ListMine returns the learner's applications, most recently submitted first.
func (s *ApplicationService) ListMine(ctx context.Context, learnerID string) ([]dto.ApplicationResponse, error) {
	start := time.Now()
	rows, err := s.repo.ListByLearner(ctx, learnerID)
	s.metrics.ObserveDBQuery("applications_by_learner", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	out := make([]dto.ApplicationResponse, len(rows))
	for i, row := range rows {
		out[i] = learnerApplicationResponse(row)
	}
	return out, nil
}

// Get returns one of the learner's applications.
func (s *ApplicationService) Get(ctx context.Context, learnerID, applicationID string) (*dto.ApplicationResponse, error) {
	row, err := s.repo.FindForLearner(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if row.LearnerID != learnerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you don't have permission to view this application")
	}
	resp := learnerApplicationResponse(*row)
	return &resp, nil
}

// CheckApplied reports whether the learner already applied to the bursary.
func (s *ApplicationService) CheckApplied(ctx context.Context, learnerID, bursaryID string) (*dto.ApplicationCheckResponse, error) {
	app, err := s.repo.FindByLearnerAndBursary(ctx, learnerID, bursaryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.ApplicationCheckResponse{HasApplied: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check application")
	}
	status := app.Status
	return &dto.ApplicationCheckResponse{HasApplied: true, ApplicationID: &app.ID, Status: &status}, nil
}

// Withdraw deletes the learner's application while it is still draft or submitted.
func (s *ApplicationService) Withdraw(ctx context.Context, learnerID, applicationID string) error {
	app, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if app.LearnerID != learnerID {
		return appErrors.Clone(appErrors.ErrForbidden, "you don't have permission to withdraw this application")
	}
	if !app.Status.IsWithdrawable() {
		return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot withdraw application with status: %s", app.Status))
	}

	removed, err := s.repo.DeleteWithdrawable(ctx, app.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw application")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrInvalidState, "application is already under review")
	}
	reqlog.FromContext(ctx, s.logger).Info("application withdrawn", zap.String("application_id", app.ID), zap.String("learner_id", learnerID))
	return nil
}

// ListReceived returns applications to any of the provider's bursaries, optionally filtered by status.
func (s *ApplicationService) ListReceived(ctx context.Context, providerID, status string) ([]dto.ProviderApplicationResponse, error) {
	filter, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := s.repo.ListByProvider(ctx, providerID, filter)
	s.metrics.ObserveDBQuery("applications_by_provider", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return providerApplicationResponses(rows), nil
}

// ListForBursary returns all applications to one of the provider's bursaries.
func (s *ApplicationService) ListForBursary(ctx context.Context, providerID, bursaryID string) ([]dto.ProviderApplicationResponse, error) {
	bursary, err := s.loadBursary(ctx, bursaryID)
	if err != nil {
		return nil, err
	}
	if bursary.ProviderID != providerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "this bursary does not belong to you")
	}
	rows, err := s.repo.ListByBursary(ctx, bursary.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return providerApplicationResponses(rows), nil
}

// UpdateStatus records a provider review. Any review status may follow any other; the award amount is
// only written for accepted applications and a missing amount or note never clears a stored one.
func (s *ApplicationService) UpdateStatus(ctx context.Context, providerID, applicationID string, req dto.UpdateApplicationStatusRequest) (*dto.ProviderApplicationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.IsReviewStatus() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status: %s", req.Status))
	}
	if req.AwardAmount != nil && req.AwardAmount.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "award amount cannot be negative")
	}

	app, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	bursary, err := s.loadBursary(ctx, app.BursaryID)
	if err != nil {
		return nil, err
	}
	if bursary.ProviderID != providerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "this application does not belong to your bursaries")
	}

	review := models.ApplicationReview{
		ApplicationID: app.ID,
		Status:        req.Status,
		Notes:         req.Notes,
		ReviewedAt:    s.now(),
	}
	if req.AwardAmount != nil {
		review.AwardAmount = decimal.NewNullDecimal(*req.AwardAmount)
	}

	start := time.Now()
	updated, err := s.repo.ApplyReview(ctx, review)
	s.metrics.ObserveDBQuery("application_review", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application status")
	}

	reqlog.FromContext(ctx, s.logger).Info("application reviewed",
		zap.String("application_id", updated.ID),
		zap.String("provider_id", providerID),
		zap.String("status", string(updated.Status)))
	s.notify(ctx, reviewNotification(*updated, bursary.Title))

	row, err := s.repo.FindForProvider(ctx, updated.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	resp := providerApplicationResponse(*row)
	return &resp, nil
}

// Statistics summarises the applications a provider has received.
func (s *ApplicationService) Statistics(ctx context.Context, providerID string) (*dto.ApplicationStatistics, error) {
	byStatus, err := s.repo.CountByStatusForProvider(ctx, providerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application statistics")
	}
	byBursary, err := s.repo.CountByBursaryForProvider(ctx, providerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application statistics")
	}

	stats := &dto.ApplicationStatistics{
		ApplicationsByStatus:  make(map[string]int64, len(models.ReviewStatuses)),
		ApplicationsByBursary: make(map[string]int64, len(byBursary)),
	}
	for _, status := range models.ReviewStatuses {
		stats.ApplicationsByStatus[string(status)] = 0
	}
	for _, c := range byStatus {
		stats.TotalApplications += c.Count
		stats.ApplicationsByStatus[string(c.Status)] = c.Count
		switch c.Status {
		case models.ApplicationStatusSubmitted:
			stats.SubmittedApplications = c.Count
		case models.ApplicationStatusUnderReview:
			stats.UnderReviewApplications = c.Count
		case models.ApplicationStatusShortlisted:
			stats.ShortlistedApplications = c.Count
		case models.ApplicationStatusInterviewScheduled:
			stats.InterviewScheduledApplications = c.Count
		case models.ApplicationStatusAccepted:
			stats.AcceptedApplications = c.Count
		case models.ApplicationStatusRejected:
			stats.RejectedApplications = c.Count
		}
	}
	for _, c := range byBursary {
		stats.ApplicationsByBursary[c.BursaryID] = c.Count
	}
	return stats, nil
}

// Export renders the provider's received applications as csv or pdf.
func (s *ApplicationService) Export(ctx context.Context, providerID, status, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format: %s", format))
	}
	filter, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByProvider(ctx, providerID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}

	table := export.Table{
		Title: "Received Applications",
		Columns: []export.Column{
			{Key: "learner", Label: "Learner", Width: 1.4},
			{Key: "email", Label: "Email", Width: 1.6},
			{Key: "school", Label: "School", Width: 1.4},
			{Key: "bursary", Label: "Bursary", Width: 1.6},
			{Key: "status", Label: "Status"},
			{Key: "submitted", Label: "Submitted"},
			{Key: "award", Label: "Award Amount"},
		},
		Rows: make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, map[string]string{
			"learner":   strings.TrimSpace(row.LearnerFirstName + " " + row.LearnerLastName),
			"email":     row.LearnerEmail,
			"school":    deref(row.LearnerSchool),
			"bursary":   row.BursaryTitle,
			"status":    string(row.Status),
			"submitted": formatDate(row.SubmittedAt),
			"award":     formatAmount(row.AwardAmount),
		})
	}

	body, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("applications-%s.%s", s.now().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func (s *ApplicationService) loadBursary(ctx context.Context, bursaryID string) (*models.BursaryDetail, error) {
	bursary, err := s.bursaries.FindByID(ctx, bursaryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bursary not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bursary")
	}
	return bursary, nil
}

func (s *ApplicationService) notify(ctx context.Context, n models.Notification) {
	if s.events == nil {
		return
	}
	s.events.Notify(ctx, n)
}

func parseStatusFilter(raw string) (*models.ApplicationStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	status := models.ApplicationStatus(strings.ToLower(raw))
	if status != models.ApplicationStatusDraft && !status.IsReviewStatus() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status filter: %s", raw))
	}
	return &status, nil
}

func reviewNotification(app models.Application, bursaryTitle string) models.Notification {
	n := models.Notification{
		UserID:            app.LearnerID,
		UserType:          models.UserTypeLearner,
		NotificationType:  models.NotificationApplicationUpdate,
		Title:             "Application Status Updated",
		Message:           fmt.Sprintf("Your application for %s is now %s", bursaryTitle, strings.ReplaceAll(string(app.Status), "_", " ")),
		RelatedEntityType: strPtr(models.EntityApplication),
		RelatedEntityID:   strPtr(app.ID),
	}
	if app.Status == models.ApplicationStatusAccepted {
		n.NotificationType = models.NotificationNewOffer
		n.Title = "Bursary Offer!"
		n.Message = fmt.Sprintf("Congratulations! Your application for %s has been accepted", bursaryTitle)
	}
	return n
}

func learnerApplicationResponse(row models.LearnerApplicationRow) dto.ApplicationResponse {
	return dto.ApplicationResponse{
		ID:          row.ID,
		Status:      row.Status,
		SubmittedAt: row.SubmittedAt,
		ReviewedAt:  row.ReviewedAt,
		AwardAmount: row.AwardAmount,
		CreatedAt:   row.CreatedAt,
		Bursary: dto.ApplicationBursary{
			ID:                  row.BursaryID,
			Title:               row.BursaryTitle,
			Description:         row.BursaryDescription,
			Amount:              row.BursaryAmount,
			ApplicationDeadline: row.BursaryDeadline,
			IsActive:            row.BursaryActive,
			Provider: dto.ProviderSummary{
				ID:               row.ProviderID,
				OrganizationName: row.ProviderName,
				OrganizationType: row.ProviderType,
				Location:         row.ProviderLocation,
			},
		},
	}
}

func providerApplicationResponses(rows []models.ProviderApplicationRow) []dto.ProviderApplicationResponse {
	out := make([]dto.ProviderApplicationResponse, len(rows))
	for i, row := range rows {
		out[i] = providerApplicationResponse(row)
	}
	return out
}

func providerApplicationResponse(row models.ProviderApplicationRow) dto.ProviderApplicationResponse {
	return dto.ProviderApplicationResponse{
		ApplicationID: row.ID,
		Status:        row.Status,
		SubmittedAt:   row.SubmittedAt,
		ReviewedAt:    row.ReviewedAt,
		AwardAmount:   row.AwardAmount,
		Notes:         row.Notes,
		Learner: dto.ApplicantSnapshot{
			ID:              row.LearnerID,
			FirstName:       row.LearnerFirstName,
			LastName:        row.LearnerLastName,
			FullName:        strings.TrimSpace(row.LearnerFirstName + " " + row.LearnerLastName),
			Email:           row.LearnerEmail,
			SchoolName:      row.LearnerSchool,
			HouseholdIncome: row.LearnerIncome,
			Location:        row.LearnerLocation,
		},
		Bursary: dto.BursarySnapshot{
			ID:                  row.BursaryID,
			Title:               row.BursaryTitle,
			Amount:              row.BursaryAmount,
			ApplicationDeadline: row.BursaryDeadline,
		},
	}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func formatAmount(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.StringFixed(2)
}
