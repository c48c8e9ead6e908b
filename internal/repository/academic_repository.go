package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/bursary-match-api/internal/models"
)

// AcademicRepository persists academic years, term results and subject marks.
type AcademicRepository struct {
	db *sqlx.DB
}

// NewAcademicRepository constructs an AcademicRepository.
func NewAcademicRepository(db *sqlx.DB) *AcademicRepository {
	return &AcademicRepository{db: db}
}

// CreateYear inserts an academic year. Returns ErrDuplicate for an existing (learner, year, grade).
func (r *AcademicRepository) CreateYear(ctx context.Context, year *models.AcademicYear) error {
	if year.ID == "" {
		year.ID = uuid.NewString()
	}
	if year.CreatedAt.IsZero() {
		year.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO academic_years (id, learner_id, year, grade_level, created_at) VALUES (:id, :learner_id, :year, :grade_level, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("create academic year: %w", mapUniqueViolation(err))
	}
	return nil
}

// YearExists checks for an existing (learner, year, grade) combination.
func (r *AcademicRepository) YearExists(ctx context.Context, learnerID string, year, gradeLevel int) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM academic_years WHERE learner_id = $1 AND year = $2 AND grade_level = $3)`
	if err := r.db.GetContext(ctx, &exists, query, learnerID, year, gradeLevel); err != nil {
		return false, fmt.Errorf("check academic year: %w", err)
	}
	return exists, nil
}

// FindYearByID fetches an academic year.
func (r *AcademicRepository) FindYearByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	var year models.AcademicYear
	const query = `SELECT id, learner_id, year, grade_level, created_at FROM academic_years WHERE id = $1`
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// ListYearsByLearner returns a learner's years, most recent first.
func (r *AcademicRepository) ListYearsByLearner(ctx context.Context, learnerID string) ([]models.AcademicYear, error) {
	const query = `SELECT id, learner_id, year, grade_level, created_at FROM academic_years WHERE learner_id = $1 ORDER BY year DESC, grade_level DESC`
	var years []models.AcademicYear
	if err := r.db.SelectContext(ctx, &years, query, learnerID); err != nil {
		return nil, fmt.Errorf("list academic years: %w", err)
	}
	return years, nil
}

// DeleteYear removes a year; terms and marks cascade.
func (r *AcademicRepository) DeleteYear(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM academic_years WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete academic year: %w", err)
	}
	return nil
}

// FindTermByID fetches a term result.
func (r *AcademicRepository) FindTermByID(ctx context.Context, id string) (*models.TermResult, error) {
	var term models.TermResult
	const query = `SELECT id, academic_year_id, term_number, average_mark, created_at, updated_at FROM term_results WHERE id = $1`
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// TermExists checks whether a term number is already recorded for a year.
func (r *AcademicRepository) TermExists(ctx context.Context, academicYearID string, termNumber int) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM term_results WHERE academic_year_id = $1 AND term_number = $2)`
	if err := r.db.GetContext(ctx, &exists, query, academicYearID, termNumber); err != nil {
		return false, fmt.Errorf("check term result: %w", err)
	}
	return exists, nil
}

// ListTermsByYears returns terms for the given years ordered by term number.
func (r *AcademicRepository) ListTermsByYears(ctx context.Context, yearIDs []string) ([]models.TermResult, error) {
	if len(yearIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, academic_year_id, term_number, average_mark, created_at, updated_at FROM term_results
        WHERE academic_year_id = ANY($1) ORDER BY academic_year_id, term_number`
	var terms []models.TermResult
	if err := r.db.SelectContext(ctx, &terms, query, pq.Array(yearIDs)); err != nil {
		return nil, fmt.Errorf("list term results: %w", err)
	}
	return terms, nil
}

// ListMarksByTerms returns marks for the given terms ordered by subject name.
func (r *AcademicRepository) ListMarksByTerms(ctx context.Context, termIDs []string) ([]models.SubjectMark, error) {
	if len(termIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, term_result_id, subject_name, mark FROM subject_marks
        WHERE term_result_id = ANY($1) ORDER BY term_result_id, subject_name`
	var marks []models.SubjectMark
	if err := r.db.SelectContext(ctx, &marks, query, pq.Array(termIDs)); err != nil {
		return nil, fmt.Errorf("list subject marks: %w", err)
	}
	return marks, nil
}

// LoadHistory assembles the full academic snapshot of a learner.
func (r *AcademicRepository) LoadHistory(ctx context.Context, learnerID string) (models.AcademicHistory, error) {
	years, err := r.ListYearsByLearner(ctx, learnerID)
	if err != nil {
		return models.AcademicHistory{}, err
	}
	yearIDs := make([]string, len(years))
	for i, y := range years {
		yearIDs[i] = y.ID
	}
	terms, err := r.ListTermsByYears(ctx, yearIDs)
	if err != nil {
		return models.AcademicHistory{}, err
	}
	termIDs := make([]string, len(terms))
	for i, t := range terms {
		termIDs[i] = t.ID
	}
	marks, err := r.ListMarksByTerms(ctx, termIDs)
	if err != nil {
		return models.AcademicHistory{}, err
	}
	return models.NewAcademicHistory(years, terms, marks), nil
}

// CreateTermWithMarks inserts a term and its marks in one transaction.
func (r *AcademicRepository) CreateTermWithMarks(ctx context.Context, term *models.TermResult, marks []models.SubjectMark) (err error) {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if term.CreatedAt.IsZero() {
		term.CreatedAt = now
	}
	term.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create term result: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO term_results (id, academic_year_id, term_number, average_mark, created_at, updated_at)
        VALUES (:id, :academic_year_id, :term_number, :average_mark, :created_at, :updated_at)`
	if _, err = sqlx.NamedExecContext(ctx, tx, query, term); err != nil {
		return fmt.Errorf("insert term result: %w", mapUniqueViolation(err))
	}
	if err = insertMarks(ctx, tx, term.ID, marks); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create term result: %w", err)
	}
	return nil
}

// ReplaceTermMarks swaps a term's marks and stored average in one transaction.
func (r *AcademicRepository) ReplaceTermMarks(ctx context.Context, term *models.TermResult, marks []models.SubjectMark) (err error) {
	term.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace term marks: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM subject_marks WHERE term_result_id = $1`, term.ID); err != nil {
		return fmt.Errorf("delete subject marks: %w", err)
	}
	if err = insertMarks(ctx, tx, term.ID, marks); err != nil {
		return err
	}
	const update = `UPDATE term_results SET average_mark = $1, updated_at = $2 WHERE id = $3`
	if _, err = tx.ExecContext(ctx, update, term.AverageMark, term.UpdatedAt, term.ID); err != nil {
		return fmt.Errorf("update term average: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace term marks: %w", err)
	}
	return nil
}

func insertMarks(ctx context.Context, exec sqlx.ExtContext, termID string, marks []models.SubjectMark) error {
	const query = `INSERT INTO subject_marks (id, term_result_id, subject_name, mark) VALUES (:id, :term_result_id, :subject_name, :mark)`
	for i := range marks {
		if marks[i].ID == "" {
			marks[i].ID = uuid.NewString()
		}
		marks[i].TermResultID = termID
		if _, err := sqlx.NamedExecContext(ctx, exec, query, &marks[i]); err != nil {
			return fmt.Errorf("insert subject mark: %w", mapUniqueViolation(err))
		}
	}
	return nil
}
