package publish

import (
	"errors"
	"fmt"

	"afterglow/internal/gallery"
)

var (
	// ErrMissingCredentials is returned before any network call when no
	// usable credentials are stored.
	ErrMissingCredentials = errors.New("credentials not configured")

	// ErrPlanNotFound is returned for an unknown or already consumed plan.
	ErrPlanNotFound = errors.New("publish plan not found")

	// ErrIndexNotFound is returned when the workspace has no gallery index.
	ErrIndexNotFound = gallery.ErrIndexNotFound

	// ErrInvalidationTimeout is returned when the CDN does not answer in time.
	ErrInvalidationTimeout = errors.New("cdn invalidation timed out")

	// ErrInvalidationRejected is returned when the CDN refuses the request.
	ErrInvalidationRejected = errors.New("cdn invalidation rejected")
)

// RemoteError wraps a failed object-store call.
type RemoteError struct {
	Op  string // "list", "put" or "delete"
	Key string
	Err error
}

func (e *RemoteError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("remote %s %s failed: %v", e.Op, e.Key, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }
