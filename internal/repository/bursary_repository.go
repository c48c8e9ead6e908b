package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bursary-match-api/internal/models"
)

const bursaryDetailSelect = `SELECT b.id, b.provider_id, b.title, b.description, b.amount, b.application_deadline, b.is_active, b.criteria,
        b.created_at, b.updated_at, p.organization_name AS provider_name, p.organization_type AS provider_type, p.location AS provider_location
        FROM bursaries b JOIN providers p ON p.id = b.provider_id`

// BursaryRepository reads the bursary catalogue.
type BursaryRepository struct {
	db *sqlx.DB
}

// NewBursaryRepository constructs a BursaryRepository.
func NewBursaryRepository(db *sqlx.DB) *BursaryRepository {
	return &BursaryRepository{db: db}
}

// FindByID fetches a bursary with its provider.
func (r *BursaryRepository) FindByID(ctx context.Context, id string) (*models.BursaryDetail, error) {
	var detail models.BursaryDetail
	if err := r.db.GetContext(ctx, &detail, bursaryDetailSelect+` WHERE b.id = $1`, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListActive returns active bursaries ordered by deadline, open-ended ones last.
func (r *BursaryRepository) ListActive(ctx context.Context) ([]models.BursaryDetail, error) {
	var list []models.BursaryDetail
	query := bursaryDetailSelect + ` WHERE b.is_active = TRUE ORDER BY b.application_deadline ASC NULLS LAST, b.id`
	if err := r.db.SelectContext(ctx, &list, query); err != nil {
		return nil, fmt.Errorf("list active bursaries: %w", err)
	}
	return list, nil
}

// ListAvailable returns active bursaries whose deadline is on or after the given day.
func (r *BursaryRepository) ListAvailable(ctx context.Context, today time.Time) ([]models.BursaryDetail, error) {
	var list []models.BursaryDetail
	query := bursaryDetailSelect + ` WHERE b.is_active = TRUE AND (b.application_deadline IS NULL OR b.application_deadline >= $1)
        ORDER BY b.application_deadline ASC NULLS LAST, b.id`
	if err := r.db.SelectContext(ctx, &list, query, today.UTC().Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("list available bursaries: %w", err)
	}
	return list, nil
}

// Search filters the catalogue.
func (r *BursaryRepository) Search(ctx context.Context, filter models.BursaryFilter) ([]models.BursaryDetail, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	active := true
	if filter.IsActive != nil {
		active = *filter.IsActive
	}
	add("b.is_active = $%d", active)

	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(kw))+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(b.title) LIKE $%[1]d OR LOWER(COALESCE(b.description, '')) LIKE $%[1]d)", len(args)))
	}
	if filter.MinAmount != nil {
		add("b.amount >= $%d", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		add("b.amount <= $%d", *filter.MaxAmount)
	}
	if pt := strings.TrimSpace(filter.ProviderType); pt != "" {
		add("LOWER(p.organization_type) = LOWER($%d)", pt)
	}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		add("LOWER(p.location) LIKE $%d", "%"+escapeLike(strings.ToLower(loc))+"%")
	}
	if filter.DeadlineAfter != nil {
		add("b.application_deadline >= $%d", filter.DeadlineAfter.UTC().Format("2006-01-02"))
	}
	if filter.DeadlineBefore != nil {
		add("b.application_deadline <= $%d", filter.DeadlineBefore.UTC().Format("2006-01-02"))
	}

	sortColumns := map[string]string{
		"amount":    "b.amount",
		"deadline":  "b.application_deadline",
		"createdat": "b.created_at",
	}
	column, ok := sortColumns[strings.ToLower(filter.SortBy)]
	if !ok {
		column = "b.application_deadline"
	}
	direction := strings.ToUpper(filter.SortDirection)
	if direction != "ASC" && direction != "DESC" {
		direction = "ASC"
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY %s %s NULLS LAST, b.id", bursaryDetailSelect, strings.Join(conditions, " AND "), column, direction)
	var list []models.BursaryDetail
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("search bursaries: %w", err)
	}
	return list, nil
}

// CountActive counts active bursaries.
func (r *BursaryRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM bursaries WHERE is_active = TRUE`); err != nil {
		return 0, fmt.Errorf("count active bursaries: %w", err)
	}
	return count, nil
}
