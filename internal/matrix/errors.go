package matrix

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidShape      = errors.New("matrix: invalid shape")
	ErrDimensionMismatch = errors.New("matrix: dimensions mismatch")
	ErrOutOfRange        = errors.New("matrix: index out of range")
)

// DimensionError reports two operand shapes that an operation cannot combine.
// The shapes are carried for diagnostics only.
type DimensionError struct {
	Op string // Operation that rejected the operands (e.g. "multiply")
	A  Shape  // Shape of the receiver / left operand
	B  Shape  // Shape of the right operand
}

// Error implements the error interface.
func (e *DimensionError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("dimensions mismatch: %s %s", e.A, e.B)
	}
	return fmt.Sprintf("%s: dimensions mismatch: %s %s", e.Op, e.A, e.B)
}

// Is makes errors.Is(err, ErrDimensionMismatch) match any *DimensionError.
func (e *DimensionError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
