// Package dto holds the request and response shapes of the quote API and
// the mapping from domain errors to the JSON error envelope.
package dto

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-engine/internal/domain"
	"github.com/jsamuelsen/quote-engine/internal/platform/logging"
)

// ErrorResponse is the standard error envelope for all error responses.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	// Code is a machine-readable error code (e.g., "NOT_FOUND", "STALE_WRITE").
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Details holds field-level messages for validation errors.
	Details map[string]string `json:"details,omitempty"`
}

// Error codes for machine-readable error identification.
const (
	ErrorCodeNotFound          = "NOT_FOUND"
	ErrorCodeConflict          = "CONFLICT"
	ErrorCodeStaleWrite        = "STALE_WRITE"
	ErrorCodeValidation        = "VALIDATION_ERROR"
	ErrorCodeIllegalTransition = "ILLEGAL_TRANSITION"
	ErrorCodePluginResolution  = "PLUGIN_RESOLUTION"
	ErrorCodeForbidden         = "FORBIDDEN"
	ErrorCodeUnauthorized      = "UNAUTHORIZED"
	ErrorCodeUnavailable       = "SERVICE_UNAVAILABLE"
	ErrorCodeInternal          = "INTERNAL_ERROR"
	ErrorCodeTimeout           = "TIMEOUT"
	ErrorCodeBadRequest        = "BAD_REQUEST"
)

const (
	traceIDKey      = "trace_id"
	requestIDHeader = "X-Request-ID"
)

// NewErrorResponse creates a new error response with the given code and message.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithDetails creates an error response with additional details.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// WithTraceID adds a trace ID to the error response.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// HTTPStatusFromCode maps error codes to HTTP status codes.
func HTTPStatusFromCode(code string) int {
	switch code {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeConflict, ErrorCodeStaleWrite:
		return http.StatusConflict
	case ErrorCodeValidation, ErrorCodeBadRequest:
		return http.StatusBadRequest
	case ErrorCodeIllegalTransition:
		return http.StatusUnprocessableEntity
	case ErrorCodePluginResolution:
		return http.StatusFailedDependency
	case ErrorCodeForbidden:
		return http.StatusForbidden
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// MapDomainError maps an error returned by the quote services to a status
// and an error envelope. Stale writes are checked before conflicts since
// they match both.
func MapDomainError(err error) (int, *ErrorResponse) {
	code := ErrorCodeInternal
	message := "an internal error occurred"

	switch {
	case domain.IsNotFound(err):
		code, message = ErrorCodeNotFound, err.Error()
	case domain.IsStaleWrite(err):
		code, message = ErrorCodeStaleWrite, err.Error()
	case domain.IsConflict(err):
		code, message = ErrorCodeConflict, err.Error()
	case domain.IsValidation(err):
		resp := NewErrorResponse(ErrorCodeValidation, err.Error())

		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.Field != "" {
			resp.Error.Details = map[string]string{validationErr.Field: validationErr.Message}
		}

		return http.StatusBadRequest, resp
	case domain.IsWorkflowTransition(err):
		code, message = ErrorCodeIllegalTransition, err.Error()
	case domain.IsPluginResolution(err):
		code, message = ErrorCodePluginResolution, err.Error()
	case domain.IsForbidden(err), domain.IsUnresolvedActor(err):
		code, message = ErrorCodeForbidden, err.Error()
	case domain.IsUnavailable(err):
		code, message = ErrorCodeUnavailable, "a dependency is temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		code, message = ErrorCodeTimeout, "the request timed out"
	}

	return HTTPStatusFromCode(code), NewErrorResponse(code, message)
}

// GetTraceID returns the trace id for error envelopes: an explicit
// trace_id set on the gin context, the active span's trace id, or the
// request id header, in that order.
func GetTraceID(c *gin.Context) string {
	if v, ok := c.Get(traceIDKey); ok {
		s, _ := v.(string)
		return s
	}

	if c.Request == nil {
		return ""
	}

	if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return c.GetHeader(requestIDHeader)
}

// HandleError writes the error envelope for err. Internal errors are
// logged with the full error since the response hides it.
func HandleError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	resp.TraceID = GetTraceID(c)

	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("trace_id", resp.TraceID),
		)
	}

	c.JSON(status, resp)
}

// HandleBindingError writes a 400 for a request that failed binding or
// struct validation.
func HandleBindingError(c *gin.Context, err error) {
	var resp *ErrorResponse

	if details := ValidationErrors(err); len(details) > 0 {
		resp = NewErrorResponseWithDetails(ErrorCodeValidation, "request validation failed", details)
	} else {
		resp = NewErrorResponse(ErrorCodeBadRequest, err.Error())
	}

	resp.TraceID = GetTraceID(c)
	c.JSON(http.StatusBadRequest, resp)
}
