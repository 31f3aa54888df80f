package hoaapi

import (
	"errors"
	"net/http"
	"strings"
)

var ErrInvalidResponse = errors.New("invalid response from backend")

// APIError is a non-2xx answer from the backend. Message is the backend's own
// text when it sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

// IsUnauthorized reports whether the backend rejected the bearer token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// UserMessage returns the backend message verbatim when there is one and the
// fallback otherwise. Transport and decode errors never leak to users.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return fallback
}
