package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bursary-match-api/internal/middleware"
	"github.com/noah-isme/bursary-match-api/internal/models"
)

const (
	testApplicationID       = "6f1c2a3e-8b4d-4c1a-9e2f-0a1b2c3d4e51"
	testBursaryID           = "3a7e9c10-5d2b-4f8e-a1c3-7b6d5e4f3a21"
	testOtherBursaryID      = "3a7e9c10-5d2b-4f8e-a1c3-7b6d5e4f3a29"
	testFollowID            = "9d8c7b6a-5f4e-4d3c-8b2a-1f0e9d8c7b61"
	testLearnerID           = "c0ffee00-1111-4222-8333-444455556601"
	testSecondLearnerID     = "c0ffee00-1111-4222-8333-444455556602"
	testThirdLearnerID      = "c0ffee00-1111-4222-8333-444455556603"
	testUnknownLearnerID    = "c0ffee00-1111-4222-8333-444455556609"
	testNotificationID      = "5e5e5e5e-0000-4000-8000-00000000000a"
	testOtherNotificationID = "5e5e5e5e-0000-4000-8000-00000000000b"
	testProviderID          = "ab12cd34-ef56-4a78-9b0c-de12f3456701"
	testTermID              = "7e7e7e7e-aaaa-4bbb-8ccc-ddddeeee0001"
	testYearID              = "2b2b2b2b-1c1c-4d1d-8e1e-1f1f1f1f0001"
	testOtherYearID         = "2b2b2b2b-1c1c-4d1d-8e1e-1f1f1f1f0002"
	testMissingID           = "0d0d0d0d-0000-4000-8000-000000000000"
)

func learnerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: testLearnerID, Role: models.RoleLearner, Email: "thandi@example.com"}
}

func providerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: testProviderID, Role: models.RoleProvider, Email: "grants@acme.org"}
}

func newTestContext(method, target, body string, claims *models.JWTClaims, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	c.Params = params
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *struct{ Code string } `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
