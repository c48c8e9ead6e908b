package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// FollowLearnerRequest carries the provider's optional reason for following.
type FollowLearnerRequest struct {
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// FollowResponse acknowledges a new follow.
type FollowResponse struct {
	FollowID    string    `json:"followId"`
	ProviderID  string    `json:"providerId"`
	LearnerID   string    `json:"learnerId"`
	LearnerName string    `json:"learnerName"`
	Notes       *string   `json:"notes"`
	FollowedAt  time.Time `json:"followedAt"`
}

// FollowedLearnerResponse is a learner in a provider's following list.
type FollowedLearnerResponse struct {
	ID              string              `json:"id"`
	FirstName       string              `json:"firstName"`
	LastName        string              `json:"lastName"`
	SchoolName      *string             `json:"schoolName"`
	Location        *string             `json:"location"`
	HouseholdIncome decimal.NullDecimal `json:"householdIncome"`
	FollowID        string              `json:"followId"`
	FollowedAt      time.Time           `json:"followedAt"`
	Notes           *string             `json:"notes"`
}

// FollowerResponse is a provider in a learner's follower list.
type FollowerResponse struct {
	ProviderID       string    `json:"providerId"`
	OrganizationName string    `json:"organizationName"`
	OrganizationType *string   `json:"organizationType"`
	Location         *string   `json:"location"`
	FollowedAt       time.Time `json:"followedAt"`
}
