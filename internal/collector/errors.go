package collector

import (
	"errors"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

var (
	// ErrSourceUnavailable means the OS metrics layer could not be queried.
	// The tick that hit it should be skipped.
	ErrSourceUnavailable = errors.New("metrics source unavailable")

	// ErrNoSuchProcess means the process exited before it could be read.
	ErrNoSuchProcess = errors.New("no such process")

	// ErrAccessDenied means the caller lacks privileges for the process.
	ErrAccessDenied = errors.New("access denied")

	// ErrTerminateTimeout means the process was signalled but did not exit in time.
	ErrTerminateTimeout = errors.New("process did not exit before timeout")
)

// TerminationError reports a failed Terminate
type TerminationError struct {
	PID int32
	Err error
}

func (e *TerminationError) Error() string {
	return fmt.Sprintf("terminate pid %d: %v", e.PID, e.Err)
}

func (e *TerminationError) Unwrap() error { return e.Err }

// InspectionError reports a failed Inspect
type InspectionError struct {
	PID int32
	Err error
}

func (e *InspectionError) Error() string {
	return fmt.Sprintf("inspect pid %d: %v", e.PID, e.Err)
}

func (e *InspectionError) Unwrap() error { return e.Err }

// classify maps OS and gopsutil errors onto ErrNoSuchProcess / ErrAccessDenied.
// Anything else is returned unchanged.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNoSuchProcess), errors.Is(err, ErrAccessDenied):
		return err
	case errors.Is(err, process.ErrorProcessNotRunning),
		errors.Is(err, os.ErrProcessDone),
		errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrNoSuchProcess, err)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	default:
		return err
	}
}

// isTransient reports whether err is an expected per-process failure
// that should be skipped during enumeration
func isTransient(err error) bool {
	err = classify(err)
	return errors.Is(err, ErrNoSuchProcess) || errors.Is(err, ErrAccessDenied)
}
