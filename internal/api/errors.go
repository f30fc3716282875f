package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Custom Error Types
var (
	ErrRateLimited  = errors.New("API rate limit exceeded")
	ErrUnauthorized = errors.New("API request unauthorized (check login)")
	ErrNotFound     = errors.New("API resource not found")
	ErrServerError  = errors.New("API server error")
)

// ValidationError reports client-side validation failures. These are raised
// before any network activity happens.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StatusError is a non-2xx API response carrying the normalized server
// message. It unwraps to the status sentinels above so callers can use
// errors.Is without inspecting codes.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return e.Message
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode >= 500:
		return ErrServerError
	}
	return nil
}

// fieldError is one element of a structured validation detail array.
// Loc entries can be strings or numbers (array indices), so interface{} it is.
type fieldError struct {
	Loc []interface{} `json:"loc"`
	Msg string        `json:"msg"`
}

// errorEnvelope covers the error payload shapes the backend produces.
// Detail is either a plain string or an array of fieldError objects.
type errorEnvelope struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// NewStatusError builds a StatusError from the response status and body,
// normalizing the body via NormalizeErrorBody.
func NewStatusError(statusCode int, body []byte) *StatusError {
	message := NormalizeErrorBody(body)
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &StatusError{StatusCode: statusCode, Message: message}
}

// NormalizeErrorBody extracts a human-readable message from an error payload.
// Resolution order:
//  1. A string "detail" field is used verbatim.
//  2. An array "detail" of {loc, msg} objects is rendered as
//     "<loc joined with dots>: <msg>" entries joined by "; ".
//  3. A string "message" field is used.
//  4. Anything else falls back to the raw payload text.
func NormalizeErrorBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		// Not a JSON object, surface the payload as-is
		return trimmed
	}

	if len(envelope.Detail) > 0 {
		var detailStr string
		if err := json.Unmarshal(envelope.Detail, &detailStr); err == nil {
			return detailStr
		}

		var fieldErrors []fieldError
		if err := json.Unmarshal(envelope.Detail, &fieldErrors); err == nil && len(fieldErrors) > 0 {
			parts := make([]string, 0, len(fieldErrors))
			for _, fe := range fieldErrors {
				parts = append(parts, renderFieldError(fe))
			}
			return strings.Join(parts, "; ")
		}
	}

	if envelope.Message != "" {
		return envelope.Message
	}

	return trimmed
}

// renderFieldError formats a single structured field error, e.g.
// {loc: ["body", "ingredients"], msg: "field required"} becomes
// "body.ingredients: field required".
func renderFieldError(fe fieldError) string {
	if len(fe.Loc) == 0 {
		return fe.Msg
	}
	locParts := make([]string, 0, len(fe.Loc))
	for _, loc := range fe.Loc {
		locParts = append(locParts, fmt.Sprintf("%v", loc))
	}
	return fmt.Sprintf("%s: %s", strings.Join(locParts, "."), fe.Msg)
}
