// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package matrix

import "github.com/born-ml/matmath/internal/matrix"

// Matrix is a dense row-major float32 matrix.
type Matrix = matrix.Matrix

// Shape is a (rows, cols) pair.
type Shape = matrix.Shape

// Backend defines the operations every execution path implements.
//
// Implementations:
//   - backend/cpu: in-process reference loops
//   - backend/gpu: kernels dispatched to a compute device
type Backend = matrix.Backend

// DimensionError reports operands whose shapes violate an operation's contract.
type DimensionError = matrix.DimensionError

// Errors.
var (
	ErrInvalidShape      = matrix.ErrInvalidShape
	ErrDimensionMismatch = matrix.ErrDimensionMismatch
	ErrOutOfRange        = matrix.ErrOutOfRange
)

// New creates a zero-filled rows×cols matrix.
func New(rows, cols int) (*Matrix, error) {
	return matrix.New(rows, cols)
}

// FromData creates a rows×cols matrix holding a copy of data.
// A data slice of the wrong length yields a zero-filled matrix.
func FromData(rows, cols int, data []float32) (*Matrix, error) {
	return matrix.FromData(rows, cols, data)
}

// MaxAbsDiff returns the largest absolute element-wise difference between two
// matrices of the same shape.
func MaxAbsDiff(a, b *Matrix) (float64, error) {
	return matrix.MaxAbsDiff(a, b)
}
