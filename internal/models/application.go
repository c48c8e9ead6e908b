package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplicationStatus enumerates the review lifecycle of an application.
type ApplicationStatus string

const (
	ApplicationStatusDraft              ApplicationStatus = "draft"
	ApplicationStatusSubmitted          ApplicationStatus = "submitted"
	ApplicationStatusUnderReview        ApplicationStatus = "under_review"
	ApplicationStatusShortlisted        ApplicationStatus = "shortlisted"
	ApplicationStatusInterviewScheduled ApplicationStatus = "interview_scheduled"
	ApplicationStatusAccepted           ApplicationStatus = "accepted"
	ApplicationStatusRejected           ApplicationStatus = "rejected"
)

// ReviewStatuses lists the statuses a provider may set, in lifecycle order.
var ReviewStatuses = []ApplicationStatus{
	ApplicationStatusSubmitted,
	ApplicationStatusUnderReview,
	ApplicationStatusShortlisted,
	ApplicationStatusInterviewScheduled,
	ApplicationStatusAccepted,
	ApplicationStatusRejected,
}

// IsReviewStatus reports whether a provider may set the status.
func (s ApplicationStatus) IsReviewStatus() bool {
	for _, candidate := range ReviewStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// IsWithdrawable reports whether a learner may still delete an application in this status.
func (s ApplicationStatus) IsWithdrawable() bool {
	return s == ApplicationStatusSubmitted || s == ApplicationStatusDraft
}

// IsTerminal reports whether no further review is expected.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusAccepted || s == ApplicationStatusRejected
}

// Application links a learner to a bursary.
type Application struct {
	ID          string              `db:"id" json:"id"`
	LearnerID   string              `db:"learner_id" json:"learnerId"`
	BursaryID   string              `db:"bursary_id" json:"bursaryId"`
	Status      ApplicationStatus   `db:"status" json:"status"`
	SubmittedAt *time.Time          `db:"submitted_at" json:"submittedAt"`
	ReviewedAt  *time.Time          `db:"reviewed_at" json:"reviewedAt"`
	AwardAmount decimal.NullDecimal `db:"award_amount" json:"awardAmount"`
	Notes       *string             `db:"notes" json:"notes"`
	CreatedAt   time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updatedAt"`
}

// ApplicationReview is the write model for a provider status change.
// AwardAmount is only persisted when Status is accepted; a null amount or notes keeps the stored value.
type ApplicationReview struct {
	ApplicationID string
	Status        ApplicationStatus
	AwardAmount   decimal.NullDecimal
	Notes         *string
	ReviewedAt    time.Time
}

// LearnerApplicationRow is an application joined with its bursary and provider at read time.
type LearnerApplicationRow struct {
	Application
	BursaryTitle       string          `db:"bursary_title"`
	BursaryDescription *string         `db:"bursary_description"`
	BursaryAmount      decimal.Decimal `db:"bursary_amount"`
	BursaryDeadline    *time.Time      `db:"bursary_deadline"`
	BursaryActive      bool            `db:"bursary_active"`
	ProviderID         string          `db:"provider_id"`
	ProviderName       string          `db:"provider_name"`
	ProviderType       *string         `db:"provider_type"`
	ProviderLocation   *string         `db:"provider_location"`
}

// ProviderApplicationRow is an application joined with learner and bursary snapshots at read time.
type ProviderApplicationRow struct {
	Application
	LearnerFirstName string              `db:"learner_first_name"`
	LearnerLastName  string              `db:"learner_last_name"`
	LearnerEmail     string              `db:"learner_email"`
	LearnerSchool    *string             `db:"learner_school"`
	LearnerIncome    decimal.NullDecimal `db:"learner_income"`
	LearnerLocation  *string             `db:"learner_location"`
	BursaryTitle     string              `db:"bursary_title"`
	BursaryAmount    decimal.Decimal     `db:"bursary_amount"`
	BursaryDeadline  *time.Time          `db:"bursary_deadline"`
}

// ApplicationStatusCount is one bucket of a GROUP BY status aggregate.
type ApplicationStatusCount struct {
	Status ApplicationStatus `db:"status"`
	Count  int64             `db:"count"`
}

// ApplicationBursaryCount is one bucket of a GROUP BY bursary aggregate.
type ApplicationBursaryCount struct {
	BursaryID string `db:"bursary_id"`
	Count     int64  `db:"count"`
}
