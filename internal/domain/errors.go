package domain

import (
	"errors"
	"fmt"
)

// Controller error taxonomy. Adapters wrap their failures in these so
// the services can classify without importing the adapter.
var (
	// ErrConnection marks a failure to reach the controller at all.
	ErrConnection = errors.New("controller connection failed")
	// ErrAuth marks rejected or missing credentials.
	ErrAuth = errors.New("controller authentication failed")
)

// APIError is a controller API call that reached the controller but was
// rejected.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("controller API error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("controller API error: %s", e.Message)
}

// DescribeError renders a controller error the way tool results expect:
// a short classified prefix plus the underlying message.
func DescribeError(err error) string {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrAuth):
		return fmt.Sprintf("Authentication error: %v", err)
	case errors.Is(err, ErrConnection):
		return fmt.Sprintf("Connection error: %v", err)
	case errors.As(err, &apiErr):
		return fmt.Sprintf("API error: %v", err)
	default:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
}
