package content

import (
	"errors"
	"strings"
)

var (
	// ErrConfiguration is matched by every *ConfigError.
	ErrConfiguration = errors.New("content: repository configuration is incomplete")
	// ErrNotFound is returned when a write needs an object that does not exist.
	ErrNotFound = errors.New("content: not found")
	// ErrSave wraps a rejected post write.
	ErrSave = errors.New("content: save post failed")
	// ErrDelete wraps a rejected post delete.
	ErrDelete = errors.New("content: delete post failed")
	// ErrUpload wraps a rejected image write.
	ErrUpload = errors.New("content: upload image failed")
	// ErrInvalidSlug is returned for slugs that cannot name a file under posts/.
	ErrInvalidSlug = errors.New("content: invalid slug")
	// ErrPartialListing marks a listing that dropped entries it could not read.
	ErrPartialListing = errors.New("content: some posts could not be loaded")
)

// ConfigError lists the required settings that are missing.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return ErrConfiguration.Error() + ": missing " + strings.Join(e.Missing, ", ")
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}
