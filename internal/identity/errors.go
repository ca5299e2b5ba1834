package identity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError represents a structured error response from the identity provider.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"error_code"`
	Message    string `json:"msg"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("identity: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound returns true if the error is a 404 not found.
func IsNotFound(err error) bool {
	if e, ok := err.(*APIError); ok {
		return e.StatusCode == 404
	}
	return false
}

// IsConflict reports whether the error means an identity record with this
// email already exists. Providers disagree on the status code, so the
// message is consulted for the 422 case.
func IsConflict(err error) bool {
	e, ok := err.(*APIError)
	if !ok {
		return false
	}
	if e.StatusCode == 409 {
		return true
	}
	msg := strings.ToLower(e.Message + " " + e.Code)
	return e.StatusCode == 422 && (strings.Contains(msg, "already") || strings.Contains(msg, "exists") || strings.Contains(msg, "duplicate"))
}

// parseAPIError attempts to decode a JSON error body; falls back to raw text.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || (apiErr.Code == "" && apiErr.Message == "") {
		apiErr.Code = "unknown"
		apiErr.Message = string(body)
	}
	return apiErr
}
