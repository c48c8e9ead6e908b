package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bursary is a funding offer published by a provider.
type Bursary struct {
	ID                  string          `db:"id" json:"id"`
	ProviderID          string          `db:"provider_id" json:"providerId"`
	Title               string          `db:"title" json:"title"`
	Description         *string         `db:"description" json:"description"`
	Amount              decimal.Decimal `db:"amount" json:"amount"`
	ApplicationDeadline *time.Time      `db:"application_deadline" json:"applicationDeadline"`
	IsActive            bool            `db:"is_active" json:"isActive"`
	Criteria            *string         `db:"criteria" json:"criteria"`
	CreatedAt           time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updatedAt"`
}

// BursaryDetail joins a bursary with its provider.
type BursaryDetail struct {
	Bursary
	ProviderName     string  `db:"provider_name" json:"providerName"`
	ProviderType     *string `db:"provider_type" json:"providerType"`
	ProviderLocation *string `db:"provider_location" json:"providerLocation"`
}

// IsAvailable reports whether the bursary is active and its deadline has not passed on the given day.
func (b Bursary) IsAvailable(today time.Time) bool {
	if !b.IsActive {
		return false
	}
	if b.ApplicationDeadline == nil {
		return true
	}
	y, m, d := today.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return !b.ApplicationDeadline.UTC().Before(start)
}

// BursaryFilter captures catalogue search options.
type BursaryFilter struct {
	Keyword        string
	MinAmount      *decimal.Decimal
	MaxAmount      *decimal.Decimal
	ProviderType   string
	Location       string
	IsActive       *bool
	DeadlineAfter  *time.Time
	DeadlineBefore *time.Time
	SortBy         string
	SortDirection  string
}
