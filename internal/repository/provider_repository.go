package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bursary-match-api/internal/models"
)

const providerColumns = `id, organization_name, organization_type, email, password_hash, location, created_at, updated_at`

// ProviderRepository reads provider organisations.
type ProviderRepository struct {
	db *sqlx.DB
}

// NewProviderRepository constructs a ProviderRepository.
func NewProviderRepository(db *sqlx.DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

// FindByID fetches a provider by ID.
func (r *ProviderRepository) FindByID(ctx context.Context, id string) (*models.Provider, error) {
	var provider models.Provider
	if err := r.db.GetContext(ctx, &provider, `SELECT `+providerColumns+` FROM providers WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &provider, nil
}

// FindByEmail fetches a provider by case-insensitive email.
func (r *ProviderRepository) FindByEmail(ctx context.Context, email string) (*models.Provider, error) {
	var provider models.Provider
	if err := r.db.GetContext(ctx, &provider, `SELECT `+providerColumns+` FROM providers WHERE LOWER(email) = LOWER($1)`, email); err != nil {
		return nil, err
	}
	return &provider, nil
}

// Exists reports whether a provider with the ID exists.
func (r *ProviderRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM providers WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("check provider: %w", err)
	}
	return exists, nil
}
