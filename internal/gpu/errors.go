package gpu

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNotInitialized is returned by program and kernel loading before Initialize.
	ErrNotInitialized = errors.New("gpu: context not initialized")

	// ErrNoPlatform is returned when the driver reports no platforms.
	ErrNoPlatform = errors.New("gpu: no compute platform available")

	// ErrNoDevice is returned when the chosen platform has no device of the requested class.
	ErrNoDevice = errors.New("gpu: no compute device available")

	// ErrNoChooser is returned by Initialize(false) when no Chooser is configured.
	ErrNoChooser = errors.New("gpu: interactive selection requested but no chooser configured")

	// ErrNoMatch is returned by Choose when no option satisfies the criterion.
	ErrNoMatch = errors.New("gpu: no option matches the selection criterion")

	// ErrInvalidSelection is returned when a Chooser picks an index outside the option list.
	ErrInvalidSelection = errors.New("gpu: selection out of range")

	// ErrDuplicateKernel matches *DuplicateKernelError.
	ErrDuplicateKernel = errors.New("gpu: kernel already registered")

	// ErrKernelNotLoaded matches *KernelNotLoadedError.
	ErrKernelNotLoaded = errors.New("gpu: kernel not loaded")
)

// CompileError carries the diagnostics of a program that failed to build.
type CompileError struct {
	Diagnostic string
	Err        error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("gpu: program compilation failed:\n%s", e.Diagnostic)
}

// Unwrap returns the underlying driver error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// DuplicateKernelError is returned when a scoped kernel name is registered twice.
type DuplicateKernelError struct {
	Name string // Scoped name, "scope::kernel"
}

// Error implements the error interface.
func (e *DuplicateKernelError) Error() string {
	return fmt.Sprintf("gpu: kernel %q already registered", e.Name)
}

// Is reports whether target is ErrDuplicateKernel.
func (e *DuplicateKernelError) Is(target error) bool {
	return target == ErrDuplicateKernel
}

// KernelNotLoadedError is returned by a device op whose kernel is not registered.
type KernelNotLoadedError struct {
	Name string // Scoped name, "scope::kernel"
}

// Error implements the error interface.
func (e *KernelNotLoadedError) Error() string {
	return fmt.Sprintf("gpu: kernel %q not loaded", e.Name)
}

// Is reports whether target is ErrKernelNotLoaded.
func (e *KernelNotLoadedError) Is(target error) bool {
	return target == ErrKernelNotLoaded
}
