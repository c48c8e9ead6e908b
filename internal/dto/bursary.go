package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BursarySummary is a catalogue row.
type BursarySummary struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Amount              decimal.Decimal `json:"amount"`
	ApplicationDeadline *time.Time      `json:"applicationDeadline"`
	ProviderName        string          `json:"providerName"`
	ProviderType        *string         `json:"providerType"`
	ProviderLocation    *string         `json:"providerLocation"`
	IsActive            bool            `json:"isActive"`
	IsAvailable         bool            `json:"isAvailable"`
}

// BursaryDetailResponse renders a single bursary with its provider.
type BursaryDetailResponse struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Description         *string         `json:"description"`
	Amount              decimal.Decimal `json:"amount"`
	ApplicationDeadline *time.Time      `json:"applicationDeadline"`
	IsActive            bool            `json:"isActive"`
	Criteria            *string         `json:"criteria"`
	CreatedAt           time.Time       `json:"createdAt"`
	Provider            ProviderSummary `json:"provider"`
}
