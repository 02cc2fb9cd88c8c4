package ghcontents

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches responses with status 404.
	ErrNotFound = errors.New("ghcontents: not found")
	// ErrConflict matches responses the API uses for missing or stale shas.
	ErrConflict = errors.New("ghcontents: sha conflict")
	// ErrUnauthorized matches 401 and 403 responses.
	ErrUnauthorized = errors.New("ghcontents: unauthorized")
)

// Error is a non-2xx response from the contents API.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ghcontents: %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("ghcontents: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Is lets callers match on the sentinel for the response class.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict || e.StatusCode == http.StatusUnprocessableEntity
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}
