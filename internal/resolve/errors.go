package resolve

import (
	"errors"
	"fmt"
)

// Common errors returned by the resolver.
var (
	// ErrNotFound indicates the DOI is not registered.
	ErrNotFound = errors.New("DOI not found")

	// ErrRateLimited indicates the handle server refused the request rate.
	ErrRateLimited = errors.New("DOI resolver rate limit exceeded")

	// ErrInvalidResponse indicates an unexpected response body.
	ErrInvalidResponse = errors.New("invalid response from DOI resolver")
)

// APIError represents an HTTP error from the handle API.
type APIError struct {
	StatusCode   int
	ResponseCode int // Handle protocol response code, 0 when absent
	DOI          string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("DOI resolver error (status %d, response code %d) for %s", e.StatusCode, e.ResponseCode, e.DOI)
}

// IsNotFound returns true if the error indicates an unknown DOI.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404 || apiErr.ResponseCode == responseHandleNotFound
	}
	return false
}
