package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bursary-match-api/internal/models"
)

// FollowRepository persists provider-learner follow relationships.
type FollowRepository struct {
	db *sqlx.DB
}

// NewFollowRepository constructs a FollowRepository.
func NewFollowRepository(db *sqlx.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Create inserts a follow. Returns ErrDuplicate when the provider already follows the learner.
func (r *FollowRepository) Create(ctx context.Context, follow *models.ProviderLearnerFollow) error {
	if follow.ID == "" {
		follow.ID = uuid.NewString()
	}
	if follow.FollowedAt.IsZero() {
		follow.FollowedAt = time.Now().UTC()
	}
	const query = `INSERT INTO provider_learner_follows (id, provider_id, learner_id, followed_at, notes)
        VALUES (:id, :provider_id, :learner_id, :followed_at, :notes)`
	if _, err := r.db.NamedExecContext(ctx, query, follow); err != nil {
		return fmt.Errorf("create follow: %w", mapUniqueViolation(err))
	}
	return nil
}

// Find fetches a provider-learner follow.
func (r *FollowRepository) Find(ctx context.Context, providerID, learnerID string) (*models.ProviderLearnerFollow, error) {
	var follow models.ProviderLearnerFollow
	const query = `SELECT id, provider_id, learner_id, followed_at, notes FROM provider_learner_follows WHERE provider_id = $1 AND learner_id = $2`
	if err := r.db.GetContext(ctx, &follow, query, providerID, learnerID); err != nil {
		return nil, err
	}
	return &follow, nil
}

// Exists reports whether the provider follows the learner.
func (r *FollowRepository) Exists(ctx context.Context, providerID, learnerID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM provider_learner_follows WHERE provider_id = $1 AND learner_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, providerID, learnerID); err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return exists, nil
}

// Delete removes a follow and reports whether one existed.
func (r *FollowRepository) Delete(ctx context.Context, providerID, learnerID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM provider_learner_follows WHERE provider_id = $1 AND learner_id = $2`, providerID, learnerID)
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete follow rows: %w", err)
	}
	return affected > 0, nil
}

// ListFollowedLearnerIDs returns the IDs of every learner the provider follows.
func (r *FollowRepository) ListFollowedLearnerIDs(ctx context.Context, providerID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT learner_id FROM provider_learner_follows WHERE provider_id = $1`, providerID); err != nil {
		return nil, fmt.Errorf("list followed learners: %w", err)
	}
	return ids, nil
}

// ListFollowerProviderIDs returns the IDs of every provider following the learner.
func (r *FollowRepository) ListFollowerProviderIDs(ctx context.Context, learnerID string) ([]string, error) {
	var ids []string
	const query = `SELECT provider_id FROM provider_learner_follows WHERE learner_id = $1 ORDER BY followed_at, id`
	if err := r.db.SelectContext(ctx, &ids, query, learnerID); err != nil {
		return nil, fmt.Errorf("list follower providers: %w", err)
	}
	return ids, nil
}

// ListByProvider returns followed learners, most recent follow first.
func (r *FollowRepository) ListByProvider(ctx context.Context, providerID string) ([]models.FollowedLearnerRow, error) {
	const query = `SELECT f.id, f.provider_id, f.learner_id, f.followed_at, f.notes,
        l.first_name, l.last_name, l.school_name, l.location, l.household_income
        FROM provider_learner_follows f JOIN learners l ON l.id = f.learner_id
        WHERE f.provider_id = $1 ORDER BY f.followed_at DESC`
	var rows []models.FollowedLearnerRow
	if err := r.db.SelectContext(ctx, &rows, query, providerID); err != nil {
		return nil, fmt.Errorf("list provider follows: %w", err)
	}
	return rows, nil
}

// ListFollowers returns providers following the learner, most recent first.
func (r *FollowRepository) ListFollowers(ctx context.Context, learnerID string) ([]models.FollowerRow, error) {
	const query = `SELECT f.id, f.provider_id, f.learner_id, f.followed_at, f.notes,
        p.organization_name, p.organization_type, p.location AS provider_location
        FROM provider_learner_follows f JOIN providers p ON p.id = f.provider_id
        WHERE f.learner_id = $1 ORDER BY f.followed_at DESC`
	var rows []models.FollowerRow
	if err := r.db.SelectContext(ctx, &rows, query, learnerID); err != nil {
		return nil, fmt.Errorf("list learner followers: %w", err)
	}
	return rows, nil
}

// CountByLearner counts a learner's followers.
func (r *FollowRepository) CountByLearner(ctx context.Context, learnerID string) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM provider_learner_follows WHERE learner_id = $1`, learnerID); err != nil {
		return 0, fmt.Errorf("count followers: %w", err)
	}
	return count, nil
}
