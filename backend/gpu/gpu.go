// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package gpu provides the device backend for matrix operations.
//
// A device is reached through a driver:
//   - "opencl": OpenCL 1.2 via cgo (build with -tags opencl)
//   - "webgpu": WebGPU via go-webgpu (windows)
//   - "emulator": a pure Go device, always available
//
// Example:
//
//	import (
//	    "github.com/born-ml/matmath/backend/gpu"
//	)
//
//	func main() {
//	    dev, err := gpu.Open(ctx, "opencl")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer dev.Close()
//
//	    c, err := dev.Multiply(a, b)
//	}
package gpu

import (
	"context"
	"errors"

	internalgpu "github.com/born-ml/matmath/internal/gpu"
	"github.com/born-ml/matmath/internal/gpu/driver"
	"github.com/born-ml/matmath/internal/kernels"
	"github.com/born-ml/matmath/matrix"

	// Drivers register themselves.
	_ "github.com/born-ml/matmath/internal/gpu/driver/emulator"
	_ "github.com/born-ml/matmath/internal/gpu/driver/opencl"
	_ "github.com/born-ml/matmath/internal/gpu/driver/webgpu"
)

// Backend represents a compute device with its kernel registry.
type Backend = internalgpu.Context

// Compile-time check that Backend implements matrix.Backend.
var _ matrix.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option = internalgpu.Option

// Chooser selects a platform or device when auto-selection is off.
type Chooser = internalgpu.Chooser

// Options.
var (
	WithLogger      = internalgpu.WithLogger
	WithChooser     = internalgpu.WithChooser
	WithBufferPool  = internalgpu.WithBufferPool
	WithDeviceClass = internalgpu.WithDeviceClass
)

// Scope is the registry scope of the built-in matrix kernels.
const Scope = internalgpu.Scope

// Errors.
var (
	ErrNotInitialized  = internalgpu.ErrNotInitialized
	ErrNoPlatform      = internalgpu.ErrNoPlatform
	ErrNoDevice        = internalgpu.ErrNoDevice
	ErrNoChooser       = internalgpu.ErrNoChooser
	ErrDuplicateKernel = internalgpu.ErrDuplicateKernel
	ErrKernelNotLoaded = internalgpu.ErrKernelNotLoaded
)

// CompileError carries the compiler diagnostics of a program that failed to build.
type CompileError = internalgpu.CompileError

// DuplicateKernelError names a scoped kernel that was registered twice.
type DuplicateKernelError = internalgpu.DuplicateKernelError

// KernelNotLoadedError names the scoped kernel a device op could not find.
type KernelNotLoadedError = internalgpu.KernelNotLoadedError

// Drivers returns the names of the registered drivers.
func Drivers() []string {
	return driver.Names()
}

// Open creates a backend on the named driver with the first platform and
// device, and loads the built-in kernels for the driver's language.
func Open(ctx context.Context, driverName string, opts ...Option) (*Backend, error) {
	drv, err := driver.Open(driverName)
	if err != nil {
		return nil, err
	}
	src, err := kernels.SourceFor(kernels.Embedded(), drv.Language())
	if err != nil {
		return nil, err
	}

	b := internalgpu.New(drv, opts...)
	if err := b.Initialize(true); err != nil {
		return nil, errors.Join(err, b.Close())
	}
	if _, err := internalgpu.LoadMatrixKernels(ctx, b, src); err != nil {
		return nil, errors.Join(err, b.Close())
	}
	return b, nil
}

// IsAvailable reports whether the named driver can open a device.
func IsAvailable(driverName string) bool {
	b, err := Open(context.Background(), driverName)
	if err != nil {
		return false
	}
	return b.Close() == nil
}
