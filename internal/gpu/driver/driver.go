// Package driver defines the device compute API that gpu.Context is written
// against. Implementations live in subpackages: opencl (cgo), webgpu
// (go-webgpu) and emulator (pure Go).
//
// The model follows OpenCL: a platform exposes devices, a context is bound to
// one device, programs are compiled from source inside a context, and kernels
// are named entry points of a program whose arguments are bound by index.
package driver

import (
	"fmt"
	"strings"
)

// DeviceClass filters the devices returned by Driver.Devices.
type DeviceClass int

// Device classes.
const (
	DeviceGPU DeviceClass = iota
	DeviceCPU
	DeviceAll
)

// String returns a human-readable class name.
func (c DeviceClass) String() string {
	switch c {
	case DeviceGPU:
		return "GPU"
	case DeviceCPU:
		return "CPU"
	case DeviceAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseDeviceClass parses "gpu", "cpu" or "all", ignoring case.
func ParseDeviceClass(s string) (DeviceClass, error) {
	switch strings.ToLower(s) {
	case "gpu":
		return DeviceGPU, nil
	case "cpu":
		return DeviceCPU, nil
	case "all":
		return DeviceAll, nil
	}
	return 0, fmt.Errorf("%w: device class %q", ErrInvalidArg, s)
}

// Language identifies the kernel source dialect a driver compiles.
type Language string

// Kernel source languages.
const (
	LanguageOpenCL Language = "opencl"
	LanguageWGSL   Language = "wgsl"
)

// MemFlags describe how a buffer is accessed by kernels.
type MemFlags uint32

// Buffer flags. CopyHost initializes the buffer from host data at creation.
const (
	MemReadOnly MemFlags = 1 << iota
	MemWriteOnly
	MemReadWrite
	MemCopyHost
)

// Driver is the entry point of a device compute API.
type Driver interface {
	// Name identifies the driver ("opencl", "webgpu", "emulator").
	Name() string
	// Language is the kernel source dialect accepted by BuildProgram.
	Language() Language
	// Platforms lists the available platforms in a stable order.
	Platforms() ([]Platform, error)
	// Devices lists the devices of the given class under p.
	Devices(p Platform, class DeviceClass) ([]Device, error)
	// CreateContext creates a compute context bound to d.
	CreateContext(p Platform, d Device) (Context, error)
}

// Platform is one implementation/vendor of the compute API.
type Platform interface {
	Name() string
}

// Device is one compute device under a platform.
type Device interface {
	Name() string
	Class() DeviceClass
}

// Context owns the device-side objects created for one device.
type Context interface {
	// CreateQueue creates an in-order command queue on the context's device.
	CreateQueue() (Queue, error)
	// BuildProgram compiles source. Compilation failures return *BuildError.
	BuildProgram(source string) (Program, error)
	// CreateBuffer allocates a buffer of n float32 elements. With MemCopyHost,
	// host must hold exactly n elements and initializes the buffer.
	CreateBuffer(flags MemFlags, n int, host []float32) (Buffer, error)
	Release() error
}

// Program is a compiled kernel program.
type Program interface {
	// CreateKernel resolves the named entry point.
	CreateKernel(name string) (Kernel, error)
	Release() error
}

// Kernel is one entry point of a program with its bound arguments.
// Arguments persist across dispatches until rebound.
type Kernel interface {
	Name() string
	SetArgBuffer(index int, b Buffer) error
	SetArgUint32(index int, v uint32) error
	Release() error
}

// Queue serializes device commands.
type Queue interface {
	// Dispatch enqueues k over a 1-D or 2-D global index space.
	Dispatch(k Kernel, global ...int) error
	// WriteBuffer copies src into b and blocks until the copy is complete.
	WriteBuffer(b Buffer, src []float32) error
	// ReadBuffer copies b into dst and blocks until all prior commands finish.
	ReadBuffer(b Buffer, dst []float32) error
	// Finish blocks until all enqueued commands complete.
	Finish() error
	Release() error
}

// Buffer is device-resident memory holding float32 elements.
type Buffer interface {
	// Len returns the capacity in float32 elements.
	Len() int
	Release() error
}
