package matrix

import (
	"fmt"
	"math"
)

// Shape is the (rows, cols) extent of a matrix.
type Shape struct {
	Rows int
	Cols int
}

// NumElements returns rows*cols.
func (s Shape) NumElements() int {
	return s.Rows * s.Cols
}

// Validate checks that both dimensions are positive and that rows*cols fits
// in an int.
func (s Shape) Validate() error {
	if s.Rows <= 0 || s.Cols <= 0 {
		return fmt.Errorf("%w: %dx%d (dimensions must be > 0)", ErrInvalidShape, s.Rows, s.Cols)
	}
	if s.Rows > math.MaxInt/s.Cols {
		return fmt.Errorf("%w: %dx%d (element count overflows int)", ErrInvalidShape, s.Rows, s.Cols)
	}
	return nil
}

// Equal reports whether two shapes are identical.
func (s Shape) Equal(other Shape) bool {
	return s.Rows == other.Rows && s.Cols == other.Cols
}

// String formats the shape as "(RxC)".
func (s Shape) String() string {
	return fmt.Sprintf("(%dx%d)", s.Rows, s.Cols)
}
