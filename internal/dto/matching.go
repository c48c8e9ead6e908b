package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LearnerSearchRequest holds optional, AND-combined search criteria.
type LearnerSearchRequest struct {
	MinAverageMark     *decimal.Decimal `json:"minAverageMark,omitempty"`
	GradeLevel         *int             `json:"gradeLevel,omitempty"`
	Location           *string          `json:"location,omitempty"`
	MaxHouseholdIncome *decimal.Decimal `json:"maxHouseholdIncome,omitempty"`
	SubjectName        *string          `json:"subjectName,omitempty"`
	MinSubjectMark     *decimal.Decimal `json:"minSubjectMark,omitempty"`
	Year               *int             `json:"year,omitempty"`
}

// HasSubjectFilter reports whether both halves of the subject criterion are present.
func (r LearnerSearchRequest) HasSubjectFilter() bool {
	return r.SubjectName != nil && *r.SubjectName != "" && r.MinSubjectMark != nil
}

// MatchResult is one ranked search hit.
type MatchResult struct {
	LearnerID          string              `json:"learnerId"`
	FirstName          string              `json:"firstName"`
	LastName           string              `json:"lastName"`
	FullName           string              `json:"fullName"`
	SchoolName         *string             `json:"schoolName"`
	Location           *string             `json:"location"`
	HouseholdIncome    decimal.NullDecimal `json:"householdIncome"`
	CurrentGradeLevel  int                 `json:"currentGradeLevel"`
	CurrentYear        int                 `json:"currentYear"`
	OverallAverage     decimal.Decimal     `json:"overallAverage"`
	HighestTermAverage decimal.Decimal     `json:"highestTermAverage"`
	IsFollowing        bool                `json:"isFollowing"`
}

// LearnerProfileDetail is a provider's view of a learner with full academic history.
type LearnerProfileDetail struct {
	LearnerID       string                 `json:"learnerId"`
	FirstName       string                 `json:"firstName"`
	LastName        string                 `json:"lastName"`
	FullName        string                 `json:"fullName"`
	Email           string                 `json:"email"`
	SchoolName      *string                `json:"schoolName"`
	Location        *string                `json:"location"`
	HouseholdIncome decimal.NullDecimal    `json:"householdIncome"`
	JoinedAt        time.Time              `json:"joinedAt"`
	AcademicHistory []AcademicYearResponse `json:"academicHistory"`
	IsFollowing     bool                   `json:"isFollowing"`
	FollowedAt      *time.Time             `json:"followedAt,omitempty"`
}
