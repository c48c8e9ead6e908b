package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bursary-match-api/internal/models"
)

const learnerColumns = `id, first_name, last_name, email, password_hash, phone, school_name, household_income, location, created_at, updated_at`

// LearnerRepository manages persistence for learner profiles.
type LearnerRepository struct {
	db *sqlx.DB
}

// NewLearnerRepository constructs a LearnerRepository.
func NewLearnerRepository(db *sqlx.DB) *LearnerRepository {
	return &LearnerRepository{db: db}
}

// FindByID fetches a learner by ID.
func (r *LearnerRepository) FindByID(ctx context.Context, id string) (*models.Learner, error) {
	var learner models.Learner
	if err := r.db.GetContext(ctx, &learner, `SELECT `+learnerColumns+` FROM learners WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &learner, nil
}

// FindByEmail fetches a learner by case-insensitive email.
func (r *LearnerRepository) FindByEmail(ctx context.Context, email string) (*models.Learner, error) {
	var learner models.Learner
	if err := r.db.GetContext(ctx, &learner, `SELECT `+learnerColumns+` FROM learners WHERE LOWER(email) = LOWER($1)`, email); err != nil {
		return nil, err
	}
	return &learner, nil
}

// ExistsByEmail checks whether an email is taken, optionally ignoring one learner.
func (r *LearnerRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM learners WHERE LOWER(email) = LOWER($1)"
	args := []interface{}{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check learner email: %w", err)
	}
	return true, nil
}

// Exists reports whether a learner with the ID exists.
func (r *LearnerRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM learners WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("check learner: %w", err)
	}
	return exists, nil
}

// Create inserts a new learner.
func (r *LearnerRepository) Create(ctx context.Context, learner *models.Learner) error {
	if learner.ID == "" {
		learner.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if learner.CreatedAt.IsZero() {
		learner.CreatedAt = now
	}
	learner.UpdatedAt = now
	const query = `INSERT INTO learners (` + learnerColumns + `)
        VALUES (:id, :first_name, :last_name, :email, :password_hash, :phone, :school_name, :household_income, :location, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, learner); err != nil {
		return fmt.Errorf("create learner: %w", mapUniqueViolation(err))
	}
	return nil
}

// Update persists mutable profile fields.
func (r *LearnerRepository) Update(ctx context.Context, learner *models.Learner) error {
	learner.UpdatedAt = time.Now().UTC()
	const query = `UPDATE learners SET first_name = :first_name, last_name = :last_name, email = :email, phone = :phone,
        school_name = :school_name, household_income = :household_income, location = :location, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, learner); err != nil {
		return fmt.Errorf("update learner: %w", mapUniqueViolation(err))
	}
	return nil
}

// ListSearchCandidates returns the learner population in stable registration order.
// Location and income predicates are pushed down; unknown values always pass.
func (r *LearnerRepository) ListSearchCandidates(ctx context.Context, filter models.LearnerCandidateFilter) ([]models.Learner, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.Location != nil && strings.TrimSpace(*filter.Location) != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(strings.TrimSpace(*filter.Location)))+"%")
		conditions = append(conditions, fmt.Sprintf("(location IS NULL OR LOWER(location) LIKE $%d)", len(args)))
	}
	if filter.MaxHouseholdIncome != nil {
		args = append(args, *filter.MaxHouseholdIncome)
		conditions = append(conditions, fmt.Sprintf("(household_income IS NULL OR household_income <= $%d)", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM learners WHERE %s ORDER BY created_at, id`, learnerColumns, strings.Join(conditions, " AND "))

	var learners []models.Learner
	if err := r.db.SelectContext(ctx, &learners, query, args...); err != nil {
		return nil, fmt.Errorf("list search candidates: %w", err)
	}
	return learners, nil
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
