package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bursary-match-api/internal/models"
)

func TestFollowRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFollowRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO provider_learner_follows")).WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.ProviderLearnerFollow{ProviderID: "p-1", LearnerID: "l-1"})
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepositoryDeleteReportsRemoval(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFollowRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM provider_learner_follows WHERE provider_id = $1 AND learner_id = $2")).
		WithArgs("p-1", "l-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := repo.Delete(context.Background(), "p-1", "l-1")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepositoryListFollowerProviderIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFollowRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT provider_id FROM provider_learner_follows WHERE learner_id = $1 ORDER BY followed_at, id")).
		WithArgs("l-1").
		WillReturnRows(sqlmock.NewRows([]string{"provider_id"}).AddRow("p-1").AddRow("p-2"))

	ids, err := repo.ListFollowerProviderIDs(context.Background(), "l-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p-1", "p-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
