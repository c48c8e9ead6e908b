package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/bursary-match-api/internal/middleware"
	"github.com/noah-isme/bursary-match-api/internal/models"
	appErrors "github.com/noah-isme/bursary-match-api/pkg/errors"
	"github.com/noah-isme/bursary-match-api/pkg/response"
)

// currentUser returns the authenticated principal, writing 401 when absent.
func currentUser(c *gin.Context) (*models.JWTClaims, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

// pathID reads an identifier path parameter. Ids are UUIDs, so anything else cannot name an
// existing row and is answered with 404 before reaching the store.
func pathID(c *gin.Context, key string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(key)))
	if err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return "", false
	}
	return id.String(), true
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func parseDateParam(key, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid %s, expected YYYY-MM-DD", key))
	}
	return &parsed, nil
}

func parseDecimalParam(key, raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid %s, expected a number", key))
	}
	return &d, nil
}

func parseBoolParam(key, raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid %s, expected true or false", key))
	}
	return &b, nil
}
