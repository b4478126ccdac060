package middleware

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/Ramsey-B/tendril/pkg/reqcontext"
	"github.com/Ramsey-B/tendril/pkg/tracing"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	TraceID   string         `json:"trace_id"`
	Meta      map[string]any `json:"meta"`
}

func Error(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		ctx := c.Request().Context()
		logger.WithContext(ctx).WithError(err).Error("api is returning an error")
		// Check if the response is already committed
		if c.Response().Committed {
			return
		}

		// Default response
		code := http.StatusInternalServerError
		message := "Internal Server Error"
		meta := map[string]any{}

		// Handle specific Echo errors
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		}

		if domainCode, ok := statusForDomainError(err); ok {
			code = domainCode
			message = err.Error()
		}

		if ok := httperror.IsHTTPError(err); ok {
			httperr := httperror.ToHTTPError(err)
			code = httperror.GetStatusCode(err)
			message = httperr.Error()
			meta = httperr.Meta
		}
		requestID := reqcontext.GetRequestID(ctx)
		traceID := tracing.GetTraceID(ctx)

		// Return a JSON response
		_ = c.JSON(code, ErrorResponse{
			Message:   message,
			RequestID: requestID,
			TraceID:   traceID,
			Meta:      meta,
		})
	}
}

func statusForDomainError(err error) (int, bool) {
	var (
		notFound      *models.NotFoundError
		validation    *models.ValidationError
		duplicateName *models.DuplicateNameError
		duplicateEdge *models.DuplicateEdgeError
		systemType    *models.SystemTypeError
		inUse         *models.InUseError
		notAllowed    *models.NotAllowedError
		reconcile     *models.ReconciliationError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, true
	case errors.As(err, &validation):
		return http.StatusBadRequest, true
	case errors.As(err, &duplicateName):
		return http.StatusConflict, true
	case errors.As(err, &duplicateEdge):
		return http.StatusConflict, true
	case errors.As(err, &inUse):
		return http.StatusConflict, true
	case errors.As(err, &systemType):
		return http.StatusForbidden, true
	case errors.As(err, &notAllowed):
		return http.StatusForbidden, true
	case errors.As(err, &reconcile):
		return http.StatusInternalServerError, true
	}
	return 0, false
}
