package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateAcademicYearRequest opens a new academic year for the caller.
type CreateAcademicYearRequest struct {
	Year       int `json:"year" validate:"required,min=2020,max=2030"`
	GradeLevel int `json:"gradeLevel" validate:"required,min=8,max=12"`
}

// SubjectMarkInput is a single subject score in a term submission.
type SubjectMarkInput struct {
	SubjectName string `json:"subjectName" validate:"required,max=100"`
	Mark        *int   `json:"mark" validate:"required,min=0,max=100"`
}

// CreateTermResultRequest submits (or replaces) the marks of one term.
type CreateTermResultRequest struct {
	TermNumber int                `json:"termNumber" validate:"required,min=1,max=4"`
	Subjects   []SubjectMarkInput `json:"subjects" validate:"required,min=1,dive"`
}

// SubjectMarkResponse renders a subject score.
type SubjectMarkResponse struct {
	ID          string          `json:"id"`
	SubjectName string          `json:"subjectName"`
	Mark        decimal.Decimal `json:"mark"`
}

// TermResultResponse renders a term with its marks ordered by subject name.
type TermResultResponse struct {
	ID          string                `json:"id"`
	TermNumber  int                   `json:"termNumber"`
	AverageMark decimal.Decimal       `json:"averageMark"`
	Subjects    []SubjectMarkResponse `json:"subjects"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// AcademicYearResponse renders a year with its terms ordered by term number.
type AcademicYearResponse struct {
	ID         string               `json:"id"`
	Year       int                  `json:"year"`
	GradeLevel int                  `json:"gradeLevel"`
	Terms      []TermResultResponse `json:"terms"`
	CreatedAt  time.Time            `json:"createdAt"`
}
