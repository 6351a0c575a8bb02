package store

import "fmt"

// NotFoundError returns a new ErrNotFound
func NotFoundError(what string) error {
	return ErrNotFound{what}
}

// ErrNotFound is the error returned when something requested could not be found.
// This error should not be retried.
type ErrNotFound struct {
	what string
}

func (err ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found", err.what)
}

// AlreadyExistsError returns a new ErrAlreadyExists
func AlreadyExistsError(what string) error {
	return ErrAlreadyExists{what}
}

// ErrAlreadyExists is the error returned when creating something that exists already.
type ErrAlreadyExists struct {
	what string
}

func (err ErrAlreadyExists) Error() string {
	return fmt.Sprintf("%s already exists", err.what)
}
