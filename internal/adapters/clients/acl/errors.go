package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quote-engine/internal/adapters/clients"
	"github.com/jsamuelsen/quote-engine/internal/domain"
)

// ErrorResponse is the error body returned by downstream services. Both
// {"error":{"code":..,"message":..}} and a flat {"code":..,"message":..}
// are accepted.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorDetail is the nested error object.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// GetCode returns the nested code, falling back to the flat one.
func (e *ErrorResponse) GetCode() string {
	if e.Error.Code != "" {
		return e.Error.Code
	}

	return e.Code
}

// GetMessage returns the nested message, falling back to the flat one.
func (e *ErrorResponse) GetMessage() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}

	return e.Message
}

// ParseErrorResponse decodes an error body. It returns nil when the body
// is empty, not JSON, or carries neither code nor message.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.GetCode() == "" && errResp.GetMessage() == "" {
		return nil
	}

	return &errResp
}

// Target names what a downstream call was about, for error context.
type Target struct {
	Service   string
	Operation string
	Entity    string
	ID        string
}

// MapHTTPError turns a failed call into a domain error. clientErr wins
// over resp; a 2xx response maps to nil.
func MapHTTPError(resp *http.Response, clientErr error, target Target) error {
	if clientErr != nil {
		return mapClientError(clientErr, target)
	}

	if resp == nil {
		return domain.NewUnavailableError(target.Service, "no response received")
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	var errResp *ErrorResponse
	if resp.Body != nil {
		errResp = ParseErrorResponse(resp.Body)
	}

	return mapStatusCode(resp.StatusCode, errResp, target)
}

func mapClientError(err error, target Target) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(target.Service, "circuit breaker open during "+target.Operation)
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(target.Service, "max retries exceeded during "+target.Operation)
	default:
		return domain.NewUnavailableError(target.Service, fmt.Sprintf("%s failed: %v", target.Operation, err))
	}
}

func mapStatusCode(status int, errResp *ErrorResponse, target Target) error {
	message := fmt.Sprintf("%s failed with status %d", target.Operation, status)
	if errResp != nil && errResp.GetMessage() != "" {
		message = errResp.GetMessage()
	}

	switch {
	case status == http.StatusNotFound:
		return domain.NewNotFoundError(target.Entity, target.ID)
	case status == http.StatusConflict:
		return domain.NewConflictError(target.Entity, message)
	case status == http.StatusUnauthorized:
		return domain.NewForbiddenError(target.Operation, "authentication required")
	case status == http.StatusForbidden:
		return domain.NewForbiddenError(target.Operation, message)
	case status == http.StatusTooManyRequests:
		return domain.NewUnavailableError(target.Service, "rate limit exceeded")
	case status >= http.StatusInternalServerError:
		return domain.NewUnavailableError(target.Service, message)
	}

	// Report the first field the service complained about, if any.
	if errResp != nil {
		for field, msg := range errResp.Error.Details {
			return domain.NewValidationError(field, msg)
		}
	}

	return domain.NewValidationError("", message)
}
