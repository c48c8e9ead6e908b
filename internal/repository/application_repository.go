package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bursary-match-api/internal/models"
)

const applicationColumns = `a.id, a.learner_id, a.bursary_id, a.status, a.submitted_at, a.reviewed_at, a.award_amount, a.notes, a.created_at, a.updated_at`

const providerApplicationSelect = `SELECT ` + applicationColumns + `,
        l.first_name AS learner_first_name, l.last_name AS learner_last_name, l.email AS learner_email,
        l.school_name AS learner_school, l.household_income AS learner_income, l.location AS learner_location,
        b.title AS bursary_title, b.amount AS bursary_amount, b.application_deadline AS bursary_deadline
        FROM applications a
        JOIN learners l ON l.id = a.learner_id
        JOIN bursaries b ON b.id = a.bursary_id`

// ApplicationRepository persists bursary applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs an ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts an application. Returns ErrDuplicate when the learner already applied.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	const query = `INSERT INTO applications (id, learner_id, bursary_id, status, submitted_at, reviewed_at, award_amount, notes, created_at, updated_at)
        VALUES (:id, :learner_id, :bursary_id, :status, :submitted_at, :reviewed_at, :award_amount, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("create application: %w", mapUniqueViolation(err))
	}
	return nil
}

// FindByID fetches an application.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	var app models.Application
	if err := r.db.GetContext(ctx, &app, `SELECT `+applicationColumns+` FROM applications a WHERE a.id = $1`, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// FindByLearnerAndBursary fetches the unique application of a learner to a bursary.
func (r *ApplicationRepository) FindByLearnerAndBursary(ctx context.Context, learnerID, bursaryID string) (*models.Application, error) {
	var app models.Application
	const query = `SELECT ` + applicationColumns + ` FROM applications a WHERE a.learner_id = $1 AND a.bursary_id = $2`
	if err := r.db.GetContext(ctx, &app, query, learnerID, bursaryID); err != nil {
		return nil, err
	}
	return &app, nil
}

// DeleteWithdrawable removes an application only while it is still draft or submitted.
// It reports whether a row was removed.
func (r *ApplicationRepository) DeleteWithdrawable(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM applications WHERE id = $1 AND status IN ($2, $3)`
	res, err := r.db.ExecContext(ctx, query, id, models.ApplicationStatusDraft, models.ApplicationStatusSubmitted)
	if err != nil {
		return false, fmt.Errorf("delete application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete application rows: %w", err)
	}
	return affected > 0, nil
}

// ApplyReview writes a review in a single statement. A null award amount or notes keeps the stored value,
// and the award amount is only written for accepted applications.
func (r *ApplicationRepository) ApplyReview(ctx context.Context, review models.ApplicationReview) (*models.Application, error) {
	const query = `UPDATE applications a SET
        status = $1,
        reviewed_at = $2,
        updated_at = $2,
        award_amount = CASE WHEN $1 = 'accepted' THEN COALESCE($3, a.award_amount) ELSE a.award_amount END,
        notes = COALESCE($4, a.notes)
        WHERE a.id = $5
        RETURNING ` + applicationColumns
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, review.Status, review.ReviewedAt, review.AwardAmount, review.Notes, review.ApplicationID); err != nil {
		return nil, err
	}
	return &app, nil
}

// ListByLearner returns a learner's applications with bursary and provider details, newest first.
func (r *ApplicationRepository) ListByLearner(ctx context.Context, learnerID string) ([]models.LearnerApplicationRow, error) {
	const query = `SELECT ` + applicationColumns + `,
        b.title AS bursary_title, b.description AS bursary_description, b.amount AS bursary_amount,
        b.application_deadline AS bursary_deadline, b.is_active AS bursary_active,
        p.id AS provider_id, p.organization_name AS provider_name, p.organization_type AS provider_type, p.location AS provider_location
        FROM applications a
        JOIN bursaries b ON b.id = a.bursary_id
        JOIN providers p ON p.id = b.provider_id
        WHERE a.learner_id = $1
        ORDER BY a.submitted_at DESC NULLS LAST, a.created_at DESC`
	var rows []models.LearnerApplicationRow
	if err := r.db.SelectContext(ctx, &rows, query, learnerID); err != nil {
		return nil, fmt.Errorf("list learner applications: %w", err)
	}
	return rows, nil
}

// FindForLearner fetches one application with bursary and provider details.
func (r *ApplicationRepository) FindForLearner(ctx context.Context, id string) (*models.LearnerApplicationRow, error) {
	const query = `SELECT ` + applicationColumns + `,
        b.title AS bursary_title, b.description AS bursary_description, b.amount AS bursary_amount,
        b.application_deadline AS bursary_deadline, b.is_active AS bursary_active,
        p.id AS provider_id, p.organization_name AS provider_name, p.organization_type AS provider_type, p.location AS provider_location
        FROM applications a
        JOIN bursaries b ON b.id = a.bursary_id
        JOIN providers p ON p.id = b.provider_id
        WHERE a.id = $1`
	var row models.LearnerApplicationRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByProvider returns applications to any of the provider's bursaries, optionally by status.
func (r *ApplicationRepository) ListByProvider(ctx context.Context, providerID string, status *models.ApplicationStatus) ([]models.ProviderApplicationRow, error) {
	query := providerApplicationSelect + ` WHERE b.provider_id = $1`
	args := []interface{}{providerID}
	if status != nil {
		query += ` AND a.status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY a.submitted_at DESC NULLS LAST, a.created_at DESC`
	var rows []models.ProviderApplicationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list provider applications: %w", err)
	}
	return rows, nil
}

// ListByBursary returns all applications to a bursary.
func (r *ApplicationRepository) ListByBursary(ctx context.Context, bursaryID string) ([]models.ProviderApplicationRow, error) {
	query := providerApplicationSelect + ` WHERE a.bursary_id = $1 ORDER BY a.submitted_at DESC NULLS LAST, a.created_at DESC`
	var rows []models.ProviderApplicationRow
	if err := r.db.SelectContext(ctx, &rows, query, bursaryID); err != nil {
		return nil, fmt.Errorf("list bursary applications: %w", err)
	}
	return rows, nil
}

// FindForProvider fetches one application with learner and bursary snapshots.
func (r *ApplicationRepository) FindForProvider(ctx context.Context, id string) (*models.ProviderApplicationRow, error) {
	var row models.ProviderApplicationRow
	if err := r.db.GetContext(ctx, &row, providerApplicationSelect+` WHERE a.id = $1`, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// CountByStatusForProvider aggregates a provider's received applications by status.
func (r *ApplicationRepository) CountByStatusForProvider(ctx context.Context, providerID string) ([]models.ApplicationStatusCount, error) {
	const query = `SELECT a.status, COUNT(*) AS count FROM applications a JOIN bursaries b ON b.id = a.bursary_id
        WHERE b.provider_id = $1 GROUP BY a.status`
	var counts []models.ApplicationStatusCount
	if err := r.db.SelectContext(ctx, &counts, query, providerID); err != nil {
		return nil, fmt.Errorf("count applications by status: %w", err)
	}
	return counts, nil
}

// CountByBursaryForProvider aggregates a provider's received applications by bursary.
func (r *ApplicationRepository) CountByBursaryForProvider(ctx context.Context, providerID string) ([]models.ApplicationBursaryCount, error) {
	const query = `SELECT a.bursary_id, COUNT(*) AS count FROM applications a JOIN bursaries b ON b.id = a.bursary_id
        WHERE b.provider_id = $1 GROUP BY a.bursary_id`
	var counts []models.ApplicationBursaryCount
	if err := r.db.SelectContext(ctx, &counts, query, providerID); err != nil {
		return nil, fmt.Errorf("count applications by bursary: %w", err)
	}
	return counts, nil
}
