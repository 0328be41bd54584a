package driver

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrUnavailable   = errors.New("driver: not available on this system")
	ErrUnknownDriver = errors.New("driver: unknown driver")
	ErrNoEntryPoint  = errors.New("driver: entry point not found")
	ErrReleased      = errors.New("driver: object already released")
	ErrInvalidArg    = errors.New("driver: invalid argument")
)

// BuildError is returned by Context.BuildProgram when the source does not compile.
type BuildError struct {
	Log string // Compiler diagnostics as reported by the backend
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("driver: program build failed: %s", e.Log)
}

// Status wraps a numeric status code returned by a native API.
type Status struct {
	Call string // API call that failed
	Code int    // Native status code
	Name string // Symbolic name of the code, if known
}

// Error implements the error interface.
func (e *Status) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("driver: %s failed: %s (%d)", e.Call, e.Name, e.Code)
	}
	return fmt.Sprintf("driver: %s failed: status %d", e.Call, e.Code)
}
