package files

import (
	"errors"
	"fmt"
)

var (
	// Authentication errors. Both reasons surface as 401 but stay
	// distinguishable with errors.Is.
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidSession = fmt.Errorf("%w: invalid session", ErrUnauthorized)
	ErrUnknownUser    = fmt.Errorf("%w: unknown user", ErrUnauthorized)
	ErrInvalidParent  = fmt.Errorf("%w: malformed parent id", ErrUnauthorized)

	// Lookup errors. Entries owned by someone else are reported as missing.
	ErrNotFound        = errors.New("not found")
	ErrContentNotFound = fmt.Errorf("%w: content", ErrNotFound)

	ErrFolderHasNoContent = errors.New("a folder doesn't have content")

	// Backend errors.
	ErrStorage  = errors.New("storage error")
	ErrUpstream = errors.New("upstream error")
)

// ValidationError reports the first invalid field of a request or entry.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DispatchError is returned by Upload when the entry was stored but its
// thumbnail job could not be queued. The upload is not rolled back.
type DispatchError struct {
	Entry *Entry
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("failed to queue thumbnail job for %s: %v", e.Entry.ID.Hex(), e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
