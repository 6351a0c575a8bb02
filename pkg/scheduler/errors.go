package scheduler

import "fmt"

// InvalidStateError returns a new ErrInvalidState
func InvalidStateError(format string, args ...interface{}) error {
	return ErrInvalidState{fmt.Sprintf(format, args...)}
}

// ErrInvalidState is returned when an operation is not permitted by the current status of a pipeline or step.
type ErrInvalidState struct {
	msg string
}

func (err ErrInvalidState) Error() string {
	return err.msg
}

// ErrOutOfOrder is returned when a step would start before every previous step is approved.
type ErrOutOfOrder struct {
	Step     string
	Blocking string
}

func (err ErrOutOfOrder) Error() string {
	return fmt.Sprintf("step %s cannot start, step %s is not approved", err.Step, err.Blocking)
}

// ErrOutOfRange is returned when a line or comment index does not exist in an artifact.
type ErrOutOfRange struct {
	What   string
	Index  int
	Length int
}

func (err ErrOutOfRange) Error() string {
	return fmt.Sprintf("%s index %d out of range [0,%d)", err.What, err.Index, err.Length)
}

// ErrNoArtifact is returned when editing or commenting a step with no artifact.
type ErrNoArtifact struct {
	Step string
}

func (err ErrNoArtifact) Error() string {
	return fmt.Sprintf("step %s has no artifact", err.Step)
}

// ErrUnexpectedFault wraps an executor failure. The step has been rolled back to pending and can be retried.
type ErrUnexpectedFault struct {
	Step string
	err  error
}

func (err ErrUnexpectedFault) Error() string {
	return fmt.Sprintf("unexpected fault executing step %s: %v", err.Step, err.err)
}

// Unwrap returns the executor error
func (err ErrUnexpectedFault) Unwrap() error {
	return err.err
}
