package pdb

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthFailed marks bad credentials or a rejected OTP. The setup flow
	// clears stored credentials and re-prompts on this.
	ErrAuthFailed = errors.New("pdb: authentication failed")

	// ErrTokenRefresh marks a failed access-token refresh. Callers should
	// clear stored credentials and force a full re-login instead of retrying.
	ErrTokenRefresh = errors.New("pdb: token refresh failed")

	// ErrNoRefreshToken is returned when a refresh is attempted without a
	// refresh token on hand.
	ErrNoRefreshToken = errors.New("pdb: no refresh token available")
)

// Provider error codes translated into user-facing replies by command
// handlers.
const (
	CodeInactiveRecipient = "E403153"
	CodeChatLimitReached  = "E403151"
)

// APIError is a non-2xx response from the provider with its error code.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("pdb: api error %s (status %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("pdb: api error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the provider.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// ErrorCode extracts the provider error code, if any.
func ErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// StatusCode extracts the HTTP status, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
