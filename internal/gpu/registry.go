package gpu

import (
	"context"
	"fmt"
)

// Scope is the registry scope of the matrix kernels.
const Scope = "Matrices"

// Tolerance is the largest absolute per-element difference allowed between
// device and CPU results.
const Tolerance = 5e-4

// KernelID enumerates the entry points the device ops dispatch.
type KernelID int

// Matrix kernels.
const (
	KernelMultiply KernelID = iota
	KernelAddRowToRows
	KernelAddColToCols
	KernelReLU
	KernelHorizontalSoftmax
	KernelVerticalSoftmax
	numKernels
)

var kernelNames = [numKernels]string{
	KernelMultiply:          "matrixMultiply",
	KernelAddRowToRows:      "addRowToRows",
	KernelAddColToCols:      "addColToCols",
	KernelReLU:              "relu",
	KernelHorizontalSoftmax: "horizontalSoftmax",
	KernelVerticalSoftmax:   "verticalSoftmax",
}

// Kernels lists every KernelID.
func Kernels() []KernelID {
	ids := make([]KernelID, numKernels)
	for i := range ids {
		ids[i] = KernelID(i)
	}
	return ids
}

// EntryPoint returns the program entry point name.
func (id KernelID) EntryPoint() string {
	if id < 0 || id >= numKernels {
		return fmt.Sprintf("KernelID(%d)", int(id))
	}
	return kernelNames[id]
}

// ScopedName returns the registry key, "Matrices::<entry point>".
func (id KernelID) ScopedName() string {
	return ScopedName(Scope, id.EntryPoint())
}

// String implements fmt.Stringer.
func (id KernelID) String() string {
	return id.ScopedName()
}

// ScopedName joins scope and kernel name into a registry key.
func ScopedName(scope, name string) string {
	return scope + "::" + name
}

// LoadMatrixKernels builds source on c and registers every matrix kernel
// under Scope. It returns the program id.
func LoadMatrixKernels(ctx context.Context, c *Context, source string) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	id, err := c.LoadProgram(source)
	if err != nil {
		return -1, err
	}
	for _, k := range Kernels() {
		if err := ctx.Err(); err != nil {
			return id, err
		}
		ok, err := c.LoadKernel(id, Scope, k.EntryPoint())
		if err != nil {
			return id, fmt.Errorf("gpu: load %s: %w", k, err)
		}
		if !ok {
			return id, fmt.Errorf("gpu: load %s: program %d not found", k, id)
		}
	}
	return id, nil
}
