package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Error codes carried in the error_code extension of a problem.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeValidation     = "VALIDATION_FAILED"
	CodeNotFound       = "NOT_FOUND"
	CodeRateLimited    = "RATE_LIMIT_EXCEEDED"
	CodeUpgradeFailed  = "WEBSOCKET_UPGRADE_FAILED"
	CodeExportFailed   = "EXPORT_FAILED"
	CodeInternal       = "INTERNAL_SERVER_ERROR"
)

// APIError is an error raised at the transport edge, as opposed to the
// dataset and selection sentinels mapped in domainProblems.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render sets the response status for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// WithDetails returns a copy of e carrying details.
func (e *APIError) WithDetails(details interface{}) *APIError {
	c := *e
	c.Details = details
	return &c
}

// ValidationError names the offending selection field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates an APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

var (
	// ErrRateLimitExceeded is written by the rate limiter.
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded, retry after 60 seconds")

	// ErrWebSocketUpgrade is written when a live session cannot be opened.
	// The upgrader's reason goes in the details.
	ErrWebSocketUpgrade = New(http.StatusBadRequest, CodeUpgradeFailed, "WebSocket upgrade failed")
)

// InvalidRequestWithError reports a message that could not be decoded.
func InvalidRequestWithError(err error) *APIError {
	return New(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format").WithDetails(err.Error())
}

// ErrValidation reports an invalid query or message field.
func ErrValidation(field, message string) *APIError {
	return New(http.StatusBadRequest, CodeValidation, "Request validation failed").
		WithDetails(ValidationError{Field: field, Message: message})
}

// FileSystemError reports a failed export write.
func FileSystemError(operation string, err error) *APIError {
	return New(http.StatusInternalServerError, CodeExportFailed, fmt.Sprintf("File system error during %s", operation)).
		WithDetails(err.Error())
}

// NewInternalError reports a failure with no domain meaning, such as a chart
// that could not be drawn.
func NewInternalError(message string) *APIError {
	return New(http.StatusInternalServerError, CodeInternal, message)
}
