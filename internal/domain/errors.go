package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means identity verification failed or was absent.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrFeedNotFound is returned for a feed id the user does not own.
	ErrFeedNotFound = errors.New("feed not found")

	// ErrVideoNotFound is returned by flag toggles on an unknown video.
	ErrVideoNotFound = errors.New("video not found")
)

// ResolutionError means a reference could not be turned into a canonical
// feed endpoint: the external lookup was unavailable, returned nothing, or
// failed. Reference and Reason let callers tell the user what went wrong.
type ResolutionError struct {
	Reference string
	Reason    string
	Err       error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %q: %s: %v", e.Reference, e.Reason, e.Err)
	}
	return fmt.Sprintf("resolve %q: %s", e.Reference, e.Reason)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// FeedUnreachableError means the HTTP fetch failed or the body was not a
// parseable syndication document. Terminal at registration, skippable
// during bulk sync.
type FeedUnreachableError struct {
	URL string
	Err error
}

func (e *FeedUnreachableError) Error() string {
	return fmt.Sprintf("feed unreachable %q: %v", e.URL, e.Err)
}

func (e *FeedUnreachableError) Unwrap() error {
	return e.Err
}

// ConflictError means the user already registered this canonical feed.
type ConflictError struct {
	UserID string
	URL    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("feed %q already exists for user", e.URL)
}
