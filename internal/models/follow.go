package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProviderLearnerFollow records a provider's subscription to a learner's updates.
type ProviderLearnerFollow struct {
	ID         string    `db:"id" json:"id"`
	ProviderID string    `db:"provider_id" json:"providerId"`
	LearnerID  string    `db:"learner_id" json:"learnerId"`
	FollowedAt time.Time `db:"followed_at" json:"followedAt"`
	Notes      *string   `db:"notes" json:"notes"`
}

// FollowedLearnerRow is a follow joined with the learner profile.
type FollowedLearnerRow struct {
	ProviderLearnerFollow
	FirstName       string              `db:"first_name"`
	LastName        string              `db:"last_name"`
	SchoolName      *string             `db:"school_name"`
	Location        *string             `db:"location"`
	HouseholdIncome decimal.NullDecimal `db:"household_income"`
}

// FollowerRow is a follow joined with the provider profile.
type FollowerRow struct {
	ProviderLearnerFollow
	OrganizationName string  `db:"organization_name"`
	OrganizationType *string `db:"organization_type"`
	ProviderLocation *string `db:"provider_location"`
}
