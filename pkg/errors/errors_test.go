package errors

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsCodeAndStatus(t *testing.T) {
	err := Clone(ErrInvalidState, "cannot withdraw application in status accepted")
	assert.Equal(t, "INVALID_STATE", err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
	assert.Equal(t, "cannot withdraw application in status accepted", err.Error())
	assert.Equal(t, "operation not allowed in current state", ErrInvalidState.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.Nil(t, FromError(nil))
}

func TestFromErrorUnwrapsTyped(t *testing.T) {
	wrapped := Wrap(sql.ErrNoRows, ErrNotFound.Code, ErrNotFound.Status, "bursary not found")
	got := FromError(errors.Join(errors.New("context"), wrapped))
	assert.Equal(t, http.StatusNotFound, got.Status)
	assert.Equal(t, "bursary not found: sql: no rows in result set", got.Error())
}
