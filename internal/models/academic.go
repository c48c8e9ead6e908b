package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AcademicYear groups a learner's terms for one calendar year and grade.
type AcademicYear struct {
	ID         string    `db:"id" json:"id"`
	LearnerID  string    `db:"learner_id" json:"learnerId"`
	Year       int       `db:"year" json:"year"`
	GradeLevel int       `db:"grade_level" json:"gradeLevel"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// TermResult holds the stored average of a term's subject marks.
type TermResult struct {
	ID             string          `db:"id" json:"id"`
	AcademicYearID string          `db:"academic_year_id" json:"academicYearId"`
	TermNumber     int             `db:"term_number" json:"termNumber"`
	AverageMark    decimal.Decimal `db:"average_mark" json:"averageMark"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`
}

// SubjectMark is a single subject score within a term.
type SubjectMark struct {
	ID           string          `db:"id" json:"id"`
	TermResultID string          `db:"term_result_id" json:"termResultId"`
	SubjectName  string          `db:"subject_name" json:"subjectName"`
	Mark         decimal.Decimal `db:"mark" json:"mark"`
}

// AcademicHistory is a flat, id-indexed snapshot of a learner's academic records.
// Years are ordered year desc, grade desc; terms by term number; marks by subject name.
type AcademicHistory struct {
	Years       []AcademicYear
	TermsByYear map[string][]TermResult
	MarksByTerm map[string][]SubjectMark
}

// NewAcademicHistory indexes the provided rows. Input order is normalised.
func NewAcademicHistory(years []AcademicYear, terms []TermResult, marks []SubjectMark) AcademicHistory {
	h := AcademicHistory{
		Years:       append([]AcademicYear(nil), years...),
		TermsByYear: make(map[string][]TermResult),
		MarksByTerm: make(map[string][]SubjectMark),
	}
	sort.SliceStable(h.Years, func(i, j int) bool {
		if h.Years[i].Year != h.Years[j].Year {
			return h.Years[i].Year > h.Years[j].Year
		}
		return h.Years[i].GradeLevel > h.Years[j].GradeLevel
	})
	for _, t := range terms {
		h.TermsByYear[t.AcademicYearID] = append(h.TermsByYear[t.AcademicYearID], t)
	}
	for id := range h.TermsByYear {
		list := h.TermsByYear[id]
		sort.SliceStable(list, func(i, j int) bool { return list[i].TermNumber < list[j].TermNumber })
	}
	for _, m := range marks {
		h.MarksByTerm[m.TermResultID] = append(h.MarksByTerm[m.TermResultID], m)
	}
	for id := range h.MarksByTerm {
		list := h.MarksByTerm[id]
		sort.SliceStable(list, func(i, j int) bool { return list[i].SubjectName < list[j].SubjectName })
	}
	return h
}

// Latest returns the most recent academic year.
func (h AcademicHistory) Latest() (AcademicYear, bool) {
	if len(h.Years) == 0 {
		return AcademicYear{}, false
	}
	return h.Years[0], true
}
