package matrix

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m, err := New(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Rows())
	assert.Equal(t, 3, m.Cols())
	assert.Equal(t, 6, m.Len())
	assert.Equal(t, []float32{0, 0, 0, 0, 0, 0}, m.Data())
}

func TestNew_InvalidShape(t *testing.T) {
	for _, tc := range []struct{ rows, cols int }{{0, 1}, {1, 0}, {-2, 3}, {0, 0}} {
		_, err := New(tc.rows, tc.cols)
		assert.ErrorIs(t, err, ErrInvalidShape, "%dx%d", tc.rows, tc.cols)
	}
}

func TestNew_ElementCountOverflow(t *testing.T) {
	for _, tc := range []struct{ rows, cols int }{
		{math.MaxInt/2 + 1, 2},
		{2, math.MaxInt/2 + 1},
		{math.MaxInt, math.MaxInt},
	} {
		m, err := New(tc.rows, tc.cols)
		assert.Nil(t, m)
		assert.ErrorIs(t, err, ErrInvalidShape, "%dx%d", tc.rows, tc.cols)

		_, err = FromData(tc.rows, tc.cols, nil)
		assert.ErrorIs(t, err, ErrInvalidShape)
	}

	// The largest representable element count is still a valid shape.
	require.NoError(t, Shape{Rows: math.MaxInt, Cols: 1}.Validate())
	require.NoError(t, Shape{Rows: math.MaxInt / 2, Cols: 2}.Validate())
}

func TestFromData(t *testing.T) {
	src := []float32{1, 2, 3, 4, 5, 6}
	m, err := FromData(2, 3, src)
	require.NoError(t, err)
	assert.Equal(t, src, m.Data())

	// The matrix owns a copy.
	src[0] = 100
	v, err := m.At(0, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(1), v)
}

func TestFromData_WrongLengthIsZeroFilled(t *testing.T) {
	m, err := FromData(2, 2, []float32{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len())
	assert.Equal(t, []float32{0, 0, 0, 0}, m.Data())

	m, err = FromData(1, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0}, m.Data())
}

func TestAtSet(t *testing.T) {
	m, err := New(2, 2)
	require.NoError(t, err)

	require.NoError(t, m.Set(1, 0, 7))
	v, err := m.At(1, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(7), v)
	assert.Equal(t, []float32{0, 0, 7, 0}, m.Data())

	_, err = m.At(2, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, m.Set(0, -1, 1), ErrOutOfRange)
}

func TestRowAndClone(t *testing.T) {
	m, err := FromData(2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)

	row, err := m.Row(1)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, row)

	c := m.Clone()
	c.Data()[0] = 9
	assert.Equal(t, float32(1), m.Data()[0])

	_, err = m.Row(5)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestString(t *testing.T) {
	m, err := FromData(2, 2, []float32{1, 2, 3, 4.5})
	require.NoError(t, err)
	assert.Equal(t, "[[1 2] [3 4.5]]", m.String())

	big, err := New(10, 10)
	require.NoError(t, err)
	assert.Equal(t, "Matrix(10x10)", big.String())
}

func TestDimensionError(t *testing.T) {
	a, _ := New(2, 3)
	b, _ := New(4, 5)

	err := CheckMultiply(a, b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	assert.Equal(t, "multiply: dimensions mismatch: (2x3) (4x5)", err.Error())

	var dimErr *DimensionError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, Shape{Rows: 2, Cols: 3}, dimErr.A)
	assert.Equal(t, Shape{Rows: 4, Cols: 5}, dimErr.B)

	bare := &DimensionError{A: Shape{1, 1}, B: Shape{2, 2}}
	assert.Equal(t, "dimensions mismatch: (1x1) (2x2)", bare.Error())
}

func TestChecks(t *testing.T) {
	a, _ := New(2, 3)
	tests := []struct {
		name  string
		check func(a, b *Matrix) error
		rows  int
		cols  int
		ok    bool
	}{
		{"multiply ok", CheckMultiply, 3, 4, true},
		{"multiply inner mismatch", CheckMultiply, 2, 3, false},
		{"row ok", CheckRowBroadcast, 1, 3, true},
		{"row wrong width", CheckRowBroadcast, 1, 2, false},
		{"row not a row", CheckRowBroadcast, 2, 3, false},
		{"col ok", CheckColBroadcast, 2, 1, true},
		{"col wrong height", CheckColBroadcast, 3, 1, false},
		{"col not a col", CheckColBroadcast, 2, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.rows, tt.cols)
			require.NoError(t, err)
			err = tt.check(a, b)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrDimensionMismatch)
			}
		})
	}
}

func TestShape(t *testing.T) {
	s := Shape{Rows: 3, Cols: 4}
	assert.Equal(t, 12, s.NumElements())
	assert.True(t, s.Equal(Shape{3, 4}))
	assert.False(t, s.Equal(Shape{4, 3}))
	assert.Equal(t, "(3x4)", s.String())
	assert.NoError(t, s.Validate())
	assert.ErrorIs(t, Shape{0, 4}.Validate(), ErrInvalidShape)
}
