package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bursary-match-api/internal/models"
)

var bursaryRowColumns = []string{"id", "provider_id", "title", "description", "amount", "application_deadline", "is_active", "criteria",
	"created_at", "updated_at", "provider_name", "provider_type", "provider_location"}

func TestBursaryRepositorySearchDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBursaryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND b.is_active = $1 ORDER BY b.application_deadline ASC NULLS LAST, b.id")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(bursaryRowColumns))

	list, err := repo.Search(context.Background(), models.BursaryFilter{SortBy: "unknown", SortDirection: "sideways"})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBursaryRepositorySearchAllFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBursaryRepository(db)

	minAmount := decimal.NewFromInt(10000)
	maxAmount := decimal.NewFromInt(50000)
	after := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	rows := sqlmock.NewRows(bursaryRowColumns).
		AddRow("b-1", "p-1", "Engineering Bursary", nil, "25000.00", after, true, nil, now, now, "Acme Foundation", "NGO", "Durban")

	mock.ExpectQuery(regexp.QuoteMeta("(LOWER(b.title) LIKE $2 OR LOWER(COALESCE(b.description, '')) LIKE $2) AND b.amount >= $3 AND b.amount <= $4 AND LOWER(p.organization_type) = LOWER($5) AND LOWER(p.location) LIKE $6 AND b.application_deadline >= $7 ORDER BY b.amount DESC NULLS LAST, b.id")).
		WithArgs(true, "%engineering%", "10000", "50000", "NGO", "%durban%", "2025-01-01").
		WillReturnRows(rows)

	list, err := repo.Search(context.Background(), models.BursaryFilter{
		Keyword:       " Engineering ",
		MinAmount:     &minAmount,
		MaxAmount:     &maxAmount,
		ProviderType:  "NGO",
		Location:      "Durban",
		DeadlineAfter: &after,
		SortBy:        "amount",
		SortDirection: "desc",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Acme Foundation", list[0].ProviderName)
	assert.True(t, list[0].Amount.Equal(decimal.NewFromInt(25000)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBursaryRepositoryCountActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBursaryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bursaries WHERE is_active = TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountActive(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
