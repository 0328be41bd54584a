// Package cpu implements the in-process reference kernels for matrix operations.
package cpu

import "github.com/born-ml/matmath/internal/matrix"

// Backend exposes the CPU kernels through the matrix.Backend interface.
// It holds no state and is safe for concurrent use.
type Backend struct{}

// Compile-time check that Backend implements matrix.Backend.
var _ matrix.Backend = (*Backend)(nil)

// New creates a new CPU backend.
func New() *Backend {
	return &Backend{}
}

// Name returns the backend name.
func (cpu *Backend) Name() string {
	return "CPU"
}

// Multiply computes a·b.
func (cpu *Backend) Multiply(a, b *matrix.Matrix) (*matrix.Matrix, error) {
	return Multiply(a, b)
}

// AddRowToRows adds row to every row of a.
func (cpu *Backend) AddRowToRows(a, row *matrix.Matrix) (*matrix.Matrix, error) {
	return AddRowToRows(a, row)
}

// AddColToCols adds col to every column of a.
func (cpu *Backend) AddColToCols(a, col *matrix.Matrix) (*matrix.Matrix, error) {
	return AddColToCols(a, col)
}

// ReLU applies max(x, 0) element-wise.
func (cpu *Backend) ReLU(a *matrix.Matrix) (*matrix.Matrix, error) {
	return ReLU(a), nil
}

// ReLUDerivative returns the element-wise ReLU gradient mask.
// It has no device counterpart, so it is not part of matrix.Backend.
func (cpu *Backend) ReLUDerivative(a *matrix.Matrix) *matrix.Matrix {
	return ReLUDerivative(a)
}

// HorizontalSoftmax applies softmax along each row.
func (cpu *Backend) HorizontalSoftmax(a *matrix.Matrix) (*matrix.Matrix, error) {
	return HorizontalSoftmax(a), nil
}

// VerticalSoftmax applies softmax along each column.
func (cpu *Backend) VerticalSoftmax(a *matrix.Matrix) (*matrix.Matrix, error) {
	return VerticalSoftmax(a), nil
}
