package service

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bursary-match-api/internal/dto"
	"github.com/noah-isme/bursary-match-api/internal/models"
	"github.com/noah-isme/bursary-match-api/internal/repository"
	appErrors "github.com/noah-isme/bursary-match-api/pkg/errors"
)

// applicationStoreStub keeps applications in memory and mimics the review write rules of the SQL store.
type applicationStoreStub struct {
	apps         map[string]*models.Application
	createErr    error
	deleteResult *bool
	providerRows []models.ProviderApplicationRow
	lastFilter   *models.ApplicationStatus
	statusCounts []models.ApplicationStatusCount
	bursaryCount []models.ApplicationBursaryCount
}

func newApplicationStoreStub() *applicationStoreStub {
	return &applicationStoreStub{apps: map[string]*models.Application{}}
}

func (s *applicationStoreStub) Create(ctx context.Context, app *models.Application) error {
	if s.createErr != nil {
		return s.createErr
	}
	app.ID = "a-new"
	stored := *app
	s.apps[app.ID] = &stored
	return nil
}

func (s *applicationStoreStub) FindByID(ctx context.Context, id string) (*models.Application, error) {
	if app, ok := s.apps[id]; ok {
		out := *app
		return &out, nil
	}
	return nil, sql.ErrNoRows
}

func (s *applicationStoreStub) FindByLearnerAndBursary(ctx context.Context, learnerID, bursaryID string) (*models.Application, error) {
	for _, app := range s.apps {
		if app.LearnerID == learnerID && app.BursaryID == bursaryID {
			out := *app
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *applicationStoreStub) DeleteWithdrawable(ctx context.Context, id string) (bool, error) {
	if s.deleteResult != nil {
		return *s.deleteResult, nil
	}
	app, ok := s.apps[id]
	if !ok || !app.Status.IsWithdrawable() {
		return false, nil
	}
	delete(s.apps, id)
	return true, nil
}

func (s *applicationStoreStub) ApplyReview(ctx context.Context, review models.ApplicationReview) (*models.Application, error) {
	app, ok := s.apps[review.ApplicationID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	app.Status = review.Status
	reviewedAt := review.ReviewedAt
	app.ReviewedAt = &reviewedAt
	if review.Status == models.ApplicationStatusAccepted && review.AwardAmount.Valid {
		app.AwardAmount = review.AwardAmount
	}
	if review.Notes != nil {
		app.Notes = review.Notes
	}
	out := *app
	return &out, nil
}

func (s *applicationStoreStub) ListByLearner(ctx context.Context, learnerID string) ([]models.LearnerApplicationRow, error) {
	var out []models.LearnerApplicationRow
	for _, app := range s.apps {
		if app.LearnerID == learnerID {
			out = append(out, models.LearnerApplicationRow{Application: *app})
		}
	}
	return out, nil
}

func (s *applicationStoreStub) FindForLearner(ctx context.Context, id string) (*models.LearnerApplicationRow, error) {
	app, ok := s.apps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.LearnerApplicationRow{Application: *app}, nil
}

func (s *applicationStoreStub) ListByProvider(ctx context.Context, providerID string, status *models.ApplicationStatus) ([]models.ProviderApplicationRow, error) {
	s.lastFilter = status
	return s.providerRows, nil
}

func (s *applicationStoreStub) ListByBursary(ctx context.Context, bursaryID string) ([]models.ProviderApplicationRow, error) {
	return s.providerRows, nil
}

func (s *applicationStoreStub) FindForProvider(ctx context.Context, id string) (*models.ProviderApplicationRow, error) {
	app, ok := s.apps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.ProviderApplicationRow{Application: *app, LearnerFirstName: "Thandi", LearnerLastName: "Nkosi"}, nil
}

func (s *applicationStoreStub) CountByStatusForProvider(ctx context.Context, providerID string) ([]models.ApplicationStatusCount, error) {
	return s.statusCounts, nil
}

func (s *applicationStoreStub) CountByBursaryForProvider(ctx context.Context, providerID string) ([]models.ApplicationBursaryCount, error) {
	return s.bursaryCount, nil
}

type bursaryReaderStub struct {
	bursaries map[string]*models.BursaryDetail
}

func (s bursaryReaderStub) FindByID(ctx context.Context, id string) (*models.BursaryDetail, error) {
	if b, ok := s.bursaries[id]; ok {
		return b, nil
	}
	return nil, sql.ErrNoRows
}

type notifierStub struct {
	sent []models.Notification
}

func (s *notifierStub) Notify(ctx context.Context, n models.Notification) {
	s.sent = append(s.sent, n)
}

func newApplicationFixture() (*ApplicationService, *applicationStoreStub, *notifierStub) {
	store := newApplicationStoreStub()
	bursaries := bursaryReaderStub{bursaries: map[string]*models.BursaryDetail{
		"b-1": {Bursary: models.Bursary{ID: "b-1", ProviderID: "p-1", Title: "STEM Fund", IsActive: true, Amount: decimal.NewFromInt(50000)}, ProviderName: "Acme"},
		"b-2": {Bursary: models.Bursary{ID: "b-2", ProviderID: "p-1", Title: "Closed Fund", IsActive: false}},
	}}
	events := &notifierStub{}
	svc := NewApplicationService(store, bursaries, events, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC) }
	return svc, store, events
}

func TestApplicationServiceApply(t *testing.T) {
	svc, store, events := newApplicationFixture()
	ctx := context.Background()

	resp, err := svc.Apply(ctx, "l-1", dto.CreateApplicationRequest{BursaryID: "b-1"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusSubmitted, resp.Status)
	require.NotNil(t, resp.SubmittedAt)
	assert.Equal(t, "STEM Fund", resp.Bursary.Title)
	assert.Equal(t, "Acme", resp.Bursary.Provider.OrganizationName)

	require.Len(t, events.sent, 1)
	assert.Equal(t, "p-1", events.sent[0].UserID)
	assert.Equal(t, models.UserTypeProvider, events.sent[0].UserType)
	assert.Equal(t, models.NotificationNewApplication, events.sent[0].NotificationType)

	_, err = svc.Apply(ctx, "l-1", dto.CreateApplicationRequest{BursaryID: "b-1"})
	dup := appErrors.FromError(err)
	assert.Equal(t, "CONFLICT", dup.Code)
	assert.Equal(t, http.StatusConflict, dup.Status)
	assert.Len(t, store.apps, 1)
	assert.Len(t, events.sent, 1)
}

func TestApplicationServiceApplyRejections(t *testing.T) {
	svc, store, _ := newApplicationFixture()
	ctx := context.Background()

	_, err := svc.Apply(ctx, "l-1", dto.CreateApplicationRequest{BursaryID: "b-2"})
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)

	_, err = svc.Apply(ctx, "l-1", dto.CreateApplicationRequest{BursaryID: "missing"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Apply(ctx, "l-1", dto.CreateApplicationRequest{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	store.createErr = repository.ErrDuplicate
	_, err = svc.Apply(ctx, "l-1", dto.CreateApplicationRequest{BursaryID: "b-1"})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceWithdraw(t *testing.T) {
	svc, store, _ := newApplicationFixture()
	ctx := context.Background()
	store.apps["a-sub"] = &models.Application{ID: "a-sub", LearnerID: "l-1", BursaryID: "b-1", Status: models.ApplicationStatusSubmitted}
	store.apps["a-draft"] = &models.Application{ID: "a-draft", LearnerID: "l-1", BursaryID: "b-1", Status: models.ApplicationStatusDraft}
	store.apps["a-rev"] = &models.Application{ID: "a-rev", LearnerID: "l-1", BursaryID: "b-1", Status: models.ApplicationStatusUnderReview}

	err := svc.Withdraw(ctx, "l-2", "a-sub")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = svc.Withdraw(ctx, "l-1", "a-rev")
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
	assert.Contains(t, store.apps, "a-rev")

	require.NoError(t, svc.Withdraw(ctx, "l-1", "a-sub"))
	require.NoError(t, svc.Withdraw(ctx, "l-1", "a-draft"))
	assert.NotContains(t, store.apps, "a-sub")
	assert.NotContains(t, store.apps, "a-draft")

	err = svc.Withdraw(ctx, "l-1", "a-sub")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceWithdrawLosesRaceWithReview(t *testing.T) {
	svc, store, _ := newApplicationFixture()
	store.apps["a-1"] = &models.Application{ID: "a-1", LearnerID: "l-1", BursaryID: "b-1", Status: models.ApplicationStatusSubmitted}
	removed := false
	store.deleteResult = &removed

	err := svc.Withdraw(context.Background(), "l-1", "a-1")
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceUpdateStatusAward(t *testing.T) {
	svc, store, events := newApplicationFixture()
	ctx := context.Background()
	store.apps["a-1"] = &models.Application{ID: "a-1", LearnerID: "l-1", BursaryID: "b-1", Status: models.ApplicationStatusSubmitted}

	resp, err := svc.UpdateStatus(ctx, "p-1", "a-1", dto.UpdateApplicationStatusRequest{
		Status:      models.ApplicationStatusAccepted,
		AwardAmount: dec("7500"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusAccepted, resp.Status)
	require.True(t, resp.AwardAmount.Valid)
	assert.True(t, resp.AwardAmount.Decimal.Equal(decimal.NewFromInt(7500)))
	require.NotNil(t, resp.ReviewedAt)
	assert.Equal(t, "Thandi Nkosi", resp.Learner.FullName)

	require.Len(t, events.sent, 1)
	assert.Equal(t, models.NotificationNewOffer, events.sent[0].NotificationType)
	assert.Equal(t, "l-1", events.sent[0].UserID)
	assert.Equal(t, models.UserTypeLearner, events.sent[0].UserType)

	// Re-accepting without an amount keeps the stored award.
	resp, err = svc.UpdateStatus(ctx, "p-1", "a-1", dto.UpdateApplicationStatusRequest{Status: models.ApplicationStatusAccepted})
	require.NoError(t, err)
	assert.True(t, resp.AwardAmount.Decimal.Equal(decimal.NewFromInt(7500)))

	resp, err = svc.UpdateStatus(ctx, "p-1", "a-1", dto.UpdateApplicationStatusRequest{
		Status:      models.ApplicationStatusAccepted,
		AwardAmount: dec("9000"),
	})
	require.NoError(t, err)
	assert.True(t, resp.AwardAmount.Decimal.Equal(decimal.NewFromInt(9000)))

	// An amount supplied with a non-accepted status is ignored.
	resp, err = svc.UpdateStatus(ctx, "p-1", "a-1", dto.UpdateApplicationStatusRequest{
		Status:      models.ApplicationStatusShortlisted,
		AwardAmount: dec("1"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusShortlisted, resp.Status)
	assert.True(t, resp.AwardAmount.Decimal.Equal(decimal.NewFromInt(9000)))
	assert.Equal(t, models.NotificationApplicationUpdate, events.sent[len(events.sent)-1].NotificationType)
	assert.Contains(t, events.sent[len(events.sent)-1].Message, "shortlisted")
}

func TestApplicationServiceUpdateStatusRejections(t *testing.T) {
	svc, store, events := newApplicationFixture()
	ctx := context.Background()
	store.apps["a-1"] = &models.Application{ID: "a-1", LearnerID: "l-1", BursaryID: "b-1", Status: models.ApplicationStatusSubmitted}

	_, err := svc.UpdateStatus(ctx, "p-2", "a-1", dto.UpdateApplicationStatusRequest{Status: models.ApplicationStatusRejected})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.UpdateStatus(ctx, "p-1", "a-1", dto.UpdateApplicationStatusRequest{Status: models.ApplicationStatusDraft})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.UpdateStatus(ctx, "p-1", "a-1", dto.UpdateApplicationStatusRequest{Status: "approved"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.UpdateStatus(ctx, "p-1", "a-1", dto.UpdateApplicationStatusRequest{Status: models.ApplicationStatusAccepted, AwardAmount: dec("-5")})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.UpdateStatus(ctx, "p-1", "missing", dto.UpdateApplicationStatusRequest{Status: models.ApplicationStatusRejected})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	assert.Equal(t, models.ApplicationStatusSubmitted, store.apps["a-1"].Status)
	assert.Empty(t, events.sent)
}

func TestApplicationServiceUpdateStatusAllowsAnyTransition(t *testing.T) {
	svc, store, _ := newApplicationFixture()
	store.apps["a-1"] = &models.Application{ID: "a-1", LearnerID: "l-1", BursaryID: "b-1", Status: models.ApplicationStatusRejected}

	resp, err := svc.UpdateStatus(context.Background(), "p-1", "a-1", dto.UpdateApplicationStatusRequest{Status: models.ApplicationStatusUnderReview})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusUnderReview, resp.Status)
}

func TestApplicationServiceGetAndCheck(t *testing.T) {
	svc, store, _ := newApplicationFixture()
	ctx := context.Background()
	store.apps["a-1"] = &models.Application{ID: "a-1", LearnerID: "l-1", BursaryID: "b-1", Status: models.ApplicationStatusShortlisted}

	_, err := svc.Get(ctx, "l-2", "a-1")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	got, err := svc.Get(ctx, "l-1", "a-1")
	require.NoError(t, err)
	assert.Equal(t, "a-1", got.ID)

	check, err := svc.CheckApplied(ctx, "l-1", "b-1")
	require.NoError(t, err)
	assert.True(t, check.HasApplied)
	require.NotNil(t, check.Status)
	assert.Equal(t, models.ApplicationStatusShortlisted, *check.Status)

	check, err = svc.CheckApplied(ctx, "l-1", "b-2")
	require.NoError(t, err)
	assert.False(t, check.HasApplied)
	assert.Nil(t, check.ApplicationID)
}

func TestApplicationServiceListReceivedStatusFilter(t *testing.T) {
	svc, store, _ := newApplicationFixture()
	ctx := context.Background()

	_, err := svc.ListReceived(ctx, "p-1", "")
	require.NoError(t, err)
	assert.Nil(t, store.lastFilter)

	_, err = svc.ListReceived(ctx, "p-1", "SHORTLISTED")
	require.NoError(t, err)
	require.NotNil(t, store.lastFilter)
	assert.Equal(t, models.ApplicationStatusShortlisted, *store.lastFilter)

	_, err = svc.ListReceived(ctx, "p-1", "pending")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.ListForBursary(ctx, "p-2", "b-1")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceStatistics(t *testing.T) {
	svc, store, _ := newApplicationFixture()
	store.statusCounts = []models.ApplicationStatusCount{
		{Status: models.ApplicationStatusSubmitted, Count: 3},
		{Status: models.ApplicationStatusAccepted, Count: 1},
	}
	store.bursaryCount = []models.ApplicationBursaryCount{{BursaryID: "b-1", Count: 4}}

	stats, err := svc.Statistics(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalApplications)
	assert.Equal(t, int64(3), stats.SubmittedApplications)
	assert.Equal(t, int64(1), stats.AcceptedApplications)
	assert.Equal(t, int64(0), stats.RejectedApplications)
	assert.Len(t, stats.ApplicationsByStatus, len(models.ReviewStatuses))
	assert.Equal(t, int64(0), stats.ApplicationsByStatus[string(models.ApplicationStatusShortlisted)])
	assert.Equal(t, int64(4), stats.ApplicationsByBursary["b-1"])
}

func TestApplicationServiceExport(t *testing.T) {
	svc, store, _ := newApplicationFixture()
	submitted := time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)
	school := "Grey High"
	store.providerRows = []models.ProviderApplicationRow{{
		Application: models.Application{
			ID:          "a-1",
			Status:      models.ApplicationStatusAccepted,
			SubmittedAt: &submitted,
			AwardAmount: decimal.NewNullDecimal(decimal.NewFromInt(7500)),
		},
		LearnerFirstName: "Thandi",
		LearnerLastName:  "Nkosi",
		LearnerEmail:     "thandi@example.com",
		LearnerSchool:    &school,
		BursaryTitle:     "STEM Fund",
	}}

	result, err := svc.Export(context.Background(), "p-1", "", "")
	require.NoError(t, err)
	assert.Equal(t, "applications-20250501.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)
	lines := strings.Split(strings.TrimSpace(string(result.Body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Learner,Email,School,Bursary,Status,Submitted,Award Amount", lines[0])
	assert.Equal(t, "Thandi Nkosi,thandi@example.com,Grey High,STEM Fund,accepted,2025-04-02,7500.00", lines[1])

	_, err = svc.Export(context.Background(), "p-1", "", "xlsx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
