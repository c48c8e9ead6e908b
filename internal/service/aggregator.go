package service

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/bursary-match-api/internal/models"
)

// averageScale is the number of decimal places kept for every computed average.
const averageScale = 2

// ComputeTermAverage returns the arithmetic mean of the marks rounded half-up to two decimals.
// An empty slice yields zero.
func ComputeTermAverage(marks []decimal.Decimal) decimal.Decimal {
	return mean(marks)
}

// ComputeOverallAverage returns the mean of the term averages rounded half-up to two decimals.
// An empty slice yields zero.
func ComputeOverallAverage(termAverages []decimal.Decimal) decimal.Decimal {
	return mean(termAverages)
}

// ComputeHighestTermAverage returns the largest term average, or zero when there are none.
func ComputeHighestTermAverage(termAverages []decimal.Decimal) decimal.Decimal {
	if len(termAverages) == 0 {
		return decimal.Zero
	}
	return decimal.Max(termAverages[0], termAverages[1:]...)
}

// SubjectMarkValues extracts the numeric marks of a term.
func SubjectMarkValues(marks []models.SubjectMark) []decimal.Decimal {
	values := make([]decimal.Decimal, len(marks))
	for i, m := range marks {
		values[i] = m.Mark
	}
	return values
}

// TermAverageValues extracts the stored averages of the given terms.
func TermAverageValues(terms []models.TermResult) []decimal.Decimal {
	values := make([]decimal.Decimal, len(terms))
	for i, t := range terms {
		values[i] = t.AverageMark
	}
	return values
}

func mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(values[0], values[1:]...).DivRound(decimal.NewFromInt(int64(len(values))), averageScale)
}
