package plumbing

import "fmt"

// PermanentError wraps an error that will not succeed on retry, the
// way go-git's transport layer distinguishes retryable conditions
// from terminal ones. The ingest pipeline uses it to mark a corrupt
// or truncated incoming pack as unrecoverable rather than worth a
// second read attempt.
type PermanentError struct {
	Err error
}

// NewPermanentError wraps err, or returns nil if err is nil.
func NewPermanentError(err error) *PermanentError {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent error: %s", e.Err.Error())
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}
