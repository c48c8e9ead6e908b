package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Learner is a student profile stored in the learners table.
type Learner struct {
	ID              string              `db:"id" json:"id"`
	FirstName       string              `db:"first_name" json:"firstName"`
	LastName        string              `db:"last_name" json:"lastName"`
	Email           string              `db:"email" json:"email"`
	PasswordHash    string              `db:"password_hash" json:"-"`
	Phone           *string             `db:"phone" json:"phone,omitempty"`
	SchoolName      *string             `db:"school_name" json:"schoolName"`
	HouseholdIncome decimal.NullDecimal `db:"household_income" json:"householdIncome"`
	Location        *string             `db:"location" json:"location"`
	CreatedAt       time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time           `db:"updated_at" json:"updatedAt"`
}

// FullName joins first and last names.
func (l Learner) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// LearnerCandidateFilter narrows the search population before in-memory evaluation.
// A nil field means "no constraint"; learners with an unknown location or income always pass.
type LearnerCandidateFilter struct {
	Location           *string
	MaxHouseholdIncome *decimal.Decimal
}
