package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/bursary-match-api/internal/models"
)

// CreateApplicationRequest applies the caller to a bursary.
type CreateApplicationRequest struct {
	BursaryID string `json:"bursaryId" validate:"required"`
}

// UpdateApplicationStatusRequest is a provider review action.
type UpdateApplicationStatusRequest struct {
	Status      models.ApplicationStatus `json:"status" validate:"required"`
	AwardAmount *decimal.Decimal         `json:"awardAmount,omitempty"`
	Notes       *string                  `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// ProviderSummary embeds provider identity in learner-facing responses.
type ProviderSummary struct {
	ID               string  `json:"id"`
	OrganizationName string  `json:"organizationName"`
	OrganizationType *string `json:"organizationType"`
	Location         *string `json:"location"`
}

// ApplicationBursary embeds bursary details in a learner's application.
type ApplicationBursary struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Description         *string         `json:"description"`
	Amount              decimal.Decimal `json:"amount"`
	ApplicationDeadline *time.Time      `json:"applicationDeadline"`
	IsActive            bool            `json:"isActive"`
	Provider            ProviderSummary `json:"provider"`
}

// ApplicationResponse is a learner's view of an application.
type ApplicationResponse struct {
	ID          string                   `json:"id"`
	Status      models.ApplicationStatus `json:"status"`
	SubmittedAt *time.Time               `json:"submittedAt"`
	ReviewedAt  *time.Time               `json:"reviewedAt"`
	AwardAmount decimal.NullDecimal      `json:"awardAmount"`
	CreatedAt   time.Time                `json:"createdAt"`
	Bursary     ApplicationBursary       `json:"bursary"`
}

// ApplicantSnapshot is the learner as seen by a reviewing provider at read time.
type ApplicantSnapshot struct {
	ID              string              `json:"id"`
	FirstName       string              `json:"firstName"`
	LastName        string              `json:"lastName"`
	FullName        string              `json:"fullName"`
	Email           string              `json:"email"`
	SchoolName      *string             `json:"schoolName"`
	HouseholdIncome decimal.NullDecimal `json:"householdIncome"`
	Location        *string             `json:"location"`
}

// BursarySnapshot is the bursary as seen by a reviewing provider at read time.
type BursarySnapshot struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Amount              decimal.Decimal `json:"amount"`
	ApplicationDeadline *time.Time      `json:"applicationDeadline"`
}

// ProviderApplicationResponse is a provider's view of an application.
type ProviderApplicationResponse struct {
	ApplicationID string                   `json:"applicationId"`
	Status        models.ApplicationStatus `json:"status"`
	SubmittedAt   *time.Time               `json:"submittedAt"`
	ReviewedAt    *time.Time               `json:"reviewedAt"`
	AwardAmount   decimal.NullDecimal      `json:"awardAmount"`
	Notes         *string                  `json:"notes"`
	Learner       ApplicantSnapshot        `json:"learner"`
	Bursary       BursarySnapshot          `json:"bursary"`
}

// ApplicationCheckResponse reports whether the caller already applied to a bursary.
type ApplicationCheckResponse struct {
	HasApplied    bool                      `json:"hasApplied"`
	ApplicationID *string                   `json:"applicationId,omitempty"`
	Status        *models.ApplicationStatus `json:"status,omitempty"`
}

// ApplicationStatistics summarises applications received by a provider.
type ApplicationStatistics struct {
	TotalApplications              int64            `json:"totalApplications"`
	SubmittedApplications          int64            `json:"submittedApplications"`
	UnderReviewApplications        int64            `json:"underReviewApplications"`
	ShortlistedApplications        int64            `json:"shortlistedApplications"`
	InterviewScheduledApplications int64            `json:"interviewScheduledApplications"`
	AcceptedApplications           int64            `json:"acceptedApplications"`
	RejectedApplications           int64            `json:"rejectedApplications"`
	ApplicationsByStatus           map[string]int64 `json:"applicationsByStatus"`
	ApplicationsByBursary          map[string]int64 `json:"applicationsByBursary"`
}
