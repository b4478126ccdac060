package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_DomainErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", &models.NotFoundError{Resource: "relationship", ID: "x"}, http.StatusNotFound},
		{"validation", &models.ValidationError{Message: "bad kind"}, http.StatusBadRequest},
		{"duplicate name", &models.DuplicateNameError{Name: "knows"}, http.StatusConflict},
		{"duplicate edge", &models.DuplicateEdgeError{TypeID: "t", FromID: "a", ToID: "b"}, http.StatusConflict},
		{"in use", &models.InUseError{Name: "reports_to", EdgeCount: 2}, http.StatusConflict},
		{"system type", &models.SystemTypeError{Name: "knows"}, http.StatusForbidden},
		{"not allowed", &models.NotAllowedError{Message: "inferred edge"}, http.StatusForbidden},
		{"reconciliation", &models.ReconciliationError{Err: assert.AnError}, http.StatusInternalServerError},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	handler := Error(logger)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler(tc.err, c)

			assert.Equal(t, tc.status, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestError_EchoHTTPErrorPassesThrough(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	handler := Error(logger)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler(echo.NewHTTPError(http.StatusTeapot, "short and stout"), c)

	assert.Equal(t, http.StatusTeapot, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "short and stout", body.Message)
}

func TestError_CommittedResponseUntouched(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	handler := Error(logger)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, c.NoContent(http.StatusAccepted))
	handler(assert.AnError, c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}
