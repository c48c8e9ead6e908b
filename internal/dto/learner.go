package dto

import (
	"github.com/shopspring/decimal"
)

// SignupRequest registers a learner account.
type SignupRequest struct {
	FirstName       string           `json:"firstName" validate:"required,min=2,max=50,personname"`
	LastName        string           `json:"lastName" validate:"required,min=2,max=50,personname"`
	Email           string           `json:"email" validate:"required,email,max=100"`
	Password        string           `json:"password" validate:"required,min=8,max=100,strongpassword"`
	SchoolName      *string          `json:"schoolName,omitempty" validate:"omitempty,max=255"`
	HouseholdIncome *decimal.Decimal `json:"householdIncome,omitempty"`
	Location        *string          `json:"location,omitempty" validate:"omitempty,max=255"`
}

// UpdateProfileRequest patches the caller's profile. Absent fields are left unchanged.
type UpdateProfileRequest struct {
	FirstName       *string          `json:"firstName,omitempty" validate:"omitempty,min=2,max=100"`
	LastName        *string          `json:"lastName,omitempty" validate:"omitempty,min=2,max=100"`
	Email           *string          `json:"email,omitempty" validate:"omitempty,email,max=255"`
	SchoolName      *string          `json:"schoolName,omitempty" validate:"omitempty,max=255"`
	HouseholdIncome *decimal.Decimal `json:"householdIncome,omitempty"`
	Location        *string          `json:"location,omitempty" validate:"omitempty,max=255"`
}

// LearnerProfileResponse renders the caller's own profile.
type LearnerProfileResponse struct {
	ID              string              `json:"id"`
	FirstName       string              `json:"firstName"`
	LastName        string              `json:"lastName"`
	Email           string              `json:"email"`
	SchoolName      *string             `json:"schoolName"`
	HouseholdIncome decimal.NullDecimal `json:"householdIncome"`
	Location        *string             `json:"location"`
}
