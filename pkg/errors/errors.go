package errors

import "errors"

// PermanentError marks an error that redelivery cannot fix: schema
// violations, undeclared options, malformed payloads. The agent terminates
// the event instead of asking the bus to redeliver it.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError wraps err as permanent, nil stays nil.
func NewPermanentError(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err carries a permanent marker.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var perr *PermanentError
	return errors.As(err, &perr)
}
