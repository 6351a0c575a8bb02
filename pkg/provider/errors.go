package provider

import (
	"github.com/pkg/errors"
)

// Error is the error returned by a Client when its failure is classified
type Error interface {
	error
	Transient() bool
}

// ErrTransient is a failure that may not happen again: timeout, transport error, malformed response...
type ErrTransient struct {
	error
}

// Transient is implementation of Error interface
func (e ErrTransient) Transient() bool {
	return true
}

func (e ErrTransient) Unwrap() error {
	return e.error
}

// ErrFatal is a failure that will happen again for this provider, such as bad credentials.
// Other providers can still be tried.
type ErrFatal struct {
	error
}

// Transient is implementation of Error interface
func (e ErrFatal) Transient() bool {
	return false
}

func (e ErrFatal) Unwrap() error {
	return e.error
}

// Transient returns the given error flagged as transient
func Transient(err error) error {
	return ErrTransient{err}
}

// Fatal returns the given error flagged as fatal
func Fatal(err error) error {
	return ErrFatal{err}
}

// IsFatal returns true if the error is flagged as fatal.
// Unclassified errors are considered transient.
func IsFatal(err error) bool {
	var perr Error
	if errors.As(err, &perr) {
		return !perr.Transient()
	}
	return false
}
