package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrRefreshDeclined means no refresh was attempted because the client held no
	// usable refresh token. It is reachable from the original 401 through errors.Is.
	ErrRefreshDeclined = errors.New("token refresh declined: no valid refresh token")

	// ErrInvalidTokenPair is returned when a token response lacks an access or refresh token.
	ErrInvalidTokenPair = errors.New("token response must contain both access_token and refresh_token")
)

// NetworkError is returned when a request got no HTTP response at all.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: no response received: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte

	// RefreshErr records why a 401 could not be recovered by refreshing the token.
	RefreshErr error
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: unexpected HTTP status: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if len(e.Body) > 0 {
		msg += ". Body: " + truncate(string(e.Body), 200)
	}
	return msg
}

func (e *HTTPError) Unwrap() error { return e.RefreshErr }

// IsUnauthorized reports whether err is, or wraps, a 401 HTTPError.
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized
}

// ExtractErrorMessage pulls a human-readable message out of an error response body.
// It looks for "message", "error" and "error_description" fields and falls back to a generic text.
func ExtractErrorMessage(body []byte) string {
	var payload struct {
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		case payload.ErrorDescription != "":
			return payload.ErrorDescription
		}
		return "An unexpected error occurred"
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return truncate(text, 200)
	}
	return "An unexpected error occurred"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
