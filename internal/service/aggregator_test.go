package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/bursary-match-api/internal/models"
)

func decs(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

func TestComputeTermAverage(t *testing.T) {
	cases := []struct {
		name  string
		marks []decimal.Decimal
		want  string
	}{
		{name: "empty", marks: nil, want: "0.00"},
		{name: "two marks", marks: decs("80", "60"), want: "70.00"},
		{name: "repeating", marks: decs("70", "70", "71"), want: "70.33"},
		{name: "half up", marks: decs("70", "70.01"), want: "70.01"},
		{name: "round up at five", marks: decs("66.665", "66.665"), want: "66.67"},
		{name: "single", marks: decs("100"), want: "100.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeTermAverage(tc.marks).StringFixed(2))
		})
	}
}

func TestComputeOverallAverage(t *testing.T) {
	assert.True(t, ComputeOverallAverage(nil).IsZero())
	assert.Equal(t, "75.00", ComputeOverallAverage(decs("70.00", "80.00")).StringFixed(2))
	assert.Equal(t, "66.67", ComputeOverallAverage(decs("60", "70", "70")).StringFixed(2))
}

func TestComputeHighestTermAverage(t *testing.T) {
	assert.True(t, ComputeHighestTermAverage(nil).IsZero())
	assert.Equal(t, "82.50", ComputeHighestTermAverage(decs("70.00", "82.50", "81.99")).StringFixed(2))
}

func TestAggregatorExtractors(t *testing.T) {
	marks := []models.SubjectMark{{Mark: decimal.NewFromInt(80)}, {Mark: decimal.NewFromInt(60)}}
	assert.Equal(t, "70.00", ComputeTermAverage(SubjectMarkValues(marks)).StringFixed(2))

	terms := []models.TermResult{{AverageMark: decimal.NewFromInt(70)}, {AverageMark: decimal.NewFromInt(90)}}
	assert.Equal(t, "80.00", ComputeOverallAverage(TermAverageValues(terms)).StringFixed(2))
}
