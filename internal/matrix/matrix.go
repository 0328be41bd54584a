// Package matrix provides the dense float32 matrix shared by the CPU and
// device kernel sets, plus the shape contracts both of them enforce.
package matrix

import (
	"fmt"
	"strings"
)

// Matrix is a dense row-major float32 matrix.
// The shape is fixed at construction and the buffer always holds exactly
// rows*cols elements. Each Matrix owns its buffer exclusively.
type Matrix struct {
	rows int
	cols int
	data []float32
}

// New creates a zero-filled rows×cols matrix.
func New(rows, cols int) (*Matrix, error) {
	shape := Shape{Rows: rows, Cols: cols}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &Matrix{
		rows: rows,
		cols: cols,
		data: make([]float32, shape.NumElements()),
	}, nil
}

// FromData creates a rows×cols matrix holding a copy of data.
//
// Construction is permissive: when len(data) != rows*cols the supplied
// values are ignored and the matrix is zero-filled instead. No error is
// returned for that case.
func FromData(rows, cols int, data []float32) (*Matrix, error) {
	m, err := New(rows, cols)
	if err != nil {
		return nil, err
	}
	if len(data) == len(m.data) {
		copy(m.data, data)
	}
	return m, nil
}

// newLike allocates a zero matrix for a shape that has already been validated.
func newLike(rows, cols int) *Matrix {
	return &Matrix{rows: rows, cols: cols, data: make([]float32, rows*cols)}
}

// Zeros allocates the result matrix of an operation. The shape comes from
// operands that were validated at construction, so it cannot fail.
func Zeros(shape Shape) *Matrix {
	return newLike(shape.Rows, shape.Cols)
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// Shape returns the (rows, cols) pair.
func (m *Matrix) Shape() Shape {
	return Shape{Rows: m.rows, Cols: m.cols}
}

// Len returns rows*cols.
func (m *Matrix) Len() int { return len(m.data) }

// Data returns the backing row-major slice. Writes through it modify the matrix.
func (m *Matrix) Data() []float32 { return m.data }

// At returns the element at (row, col).
func (m *Matrix) At(row, col int) (float32, error) {
	idx, err := m.index(row, col)
	if err != nil {
		return 0, err
	}
	return m.data[idx], nil
}

// Set stores v at (row, col).
func (m *Matrix) Set(row, col int, v float32) error {
	idx, err := m.index(row, col)
	if err != nil {
		return err
	}
	m.data[idx] = v
	return nil
}

func (m *Matrix) index(row, col int) (int, error) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		return 0, fmt.Errorf("%w: (%d,%d) in %s", ErrOutOfRange, row, col, m.Shape())
	}
	return row*m.cols + col, nil
}

// Row returns a copy of row r.
func (m *Matrix) Row(r int) ([]float32, error) {
	if r < 0 || r >= m.rows {
		return nil, fmt.Errorf("%w: row %d in %s", ErrOutOfRange, r, m.Shape())
	}
	out := make([]float32, m.cols)
	copy(out, m.data[r*m.cols:(r+1)*m.cols])
	return out, nil
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	c := newLike(m.rows, m.cols)
	copy(c.data, m.data)
	return c
}

// String renders small matrices in full and larger ones by shape only.
func (m *Matrix) String() string {
	const maxPrinted = 64
	if len(m.data) > maxPrinted {
		return fmt.Sprintf("Matrix%s", m.Shape())
	}
	var sb strings.Builder
	sb.WriteString("[")
	for r := 0; r < m.rows; r++ {
		if r > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("[")
		for c := 0; c < m.cols; c++ {
			if c > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(&sb, "%g", m.data[r*m.cols+c])
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}
