package motion

import (
	"fmt"

	"github.com/pkg/errors"
)

// The error taxonomy every facade operation reports through. Callers check
// categories with errors.Is; a nil error is the call's success status.
var (
	// ErrInvalidArgument covers malformed requests: unknown joint or chain
	// names, mismatched sequence lengths, speeds outside [0, 1], unsupported
	// space selectors, unsafe postures passed to Rest.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnavailable means the joint exists but not on the active body
	// variant.
	ErrUnavailable = errors.New("joint not available on body variant")

	// ErrBackendRejected means the backend refused the command (mechanical
	// limit, safety interlock, controller-level refusal).
	ErrBackendRejected = errors.New("backend rejected command")

	// ErrBackendUnreachable means the backend connection was lost during a
	// call.
	ErrBackendUnreachable = errors.New("backend unreachable")

	// ErrInterrupted means a motion ended before its goal: the in-flight
	// operation was stopped, or path following hit an obstacle.
	ErrInterrupted = errors.New("motion interrupted")
)

// InterruptedError reports path following that terminated early, recording
// how many waypoints were reached before the backend stopped. It unwraps to
// ErrInterrupted.
type InterruptedError struct {
	Reached int
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("path interrupted by obstacle after %d waypoint(s)", e.Reached)
}

// Unwrap classifies the error as ErrInterrupted.
func (e *InterruptedError) Unwrap() error {
	return ErrInterrupted
}

// PathProgress extracts the number of waypoints reached from a path error,
// if the error carries that information.
func PathProgress(err error) (int, bool) {
	var interrupted *InterruptedError
	if errors.As(err, &interrupted) {
		return interrupted.Reached, true
	}
	return 0, false
}
