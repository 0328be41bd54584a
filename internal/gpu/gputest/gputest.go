// Package gputest checks a driver.Driver against the CPU kernel set.
//
// Every driver package runs RunConformance from its tests; drivers that find
// no usable device skip instead of failing.
package gputest

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/matmath/internal/backend/cpu"
	"github.com/born-ml/matmath/internal/gpu"
	"github.com/born-ml/matmath/internal/gpu/driver"
	"github.com/born-ml/matmath/internal/kernels"
	"github.com/born-ml/matmath/internal/matrix"
	"github.com/born-ml/matmath/internal/scenario"
)

// Tolerance is the largest absolute per-element difference allowed between
// device and CPU results.
const Tolerance = gpu.Tolerance

// Open initializes a context on drv with the embedded kernels loaded. It skips
// the test when drv has no platform or device, and closes the context at
// cleanup.
func Open(t testing.TB, drv driver.Driver, opts ...gpu.Option) *gpu.Context {
	t.Helper()

	c := gpu.New(drv, opts...)
	t.Cleanup(func() {
		assert.NoError(t, c.Close())
	})

	if err := c.Initialize(true); err != nil {
		if errors.Is(err, gpu.ErrNoPlatform) || errors.Is(err, gpu.ErrNoDevice) || errors.Is(err, driver.ErrUnavailable) {
			t.Skipf("%s: %v", drv.Name(), err)
		}
		require.NoError(t, err)
	}

	src, err := kernels.SourceFor(kernels.Embedded(), drv.Language())
	require.NoError(t, err)
	_, err = gpu.LoadMatrixKernels(context.Background(), c, src)
	require.NoError(t, err)
	require.True(t, c.IsCompatible())
	return c
}

// MustMatrix builds a matrix or fails the test.
func MustMatrix(t testing.TB, rows, cols int, data ...float32) *matrix.Matrix {
	t.Helper()
	m, err := matrix.FromData(rows, cols, data)
	require.NoError(t, err)
	return m
}

// Random returns a rows×cols matrix with elements uniform in [-1, 1).
func Random(t testing.TB, rng *rand.Rand, rows, cols int) *matrix.Matrix {
	t.Helper()
	m, err := matrix.New(rows, cols)
	require.NoError(t, err)
	for i := range m.Data() {
		m.Data()[i] = rng.Float32()*2 - 1
	}
	return m
}

// AssertClose checks shape equality and that every element of got is within
// Tolerance of want. A NaN on either side is a mismatch.
func AssertClose(t testing.TB, want, got *matrix.Matrix) bool {
	t.Helper()
	if !assert.Equal(t, want.Shape(), got.Shape(), "shape") {
		return false
	}
	w, g := want.Data(), got.Data()
	for i := range w {
		if d := math.Abs(float64(w[i]) - float64(g[i])); math.IsNaN(d) || d > Tolerance {
			return assert.Failf(t, "element differs",
				"index %d (row %d, col %d): want %v, got %v", i, i/want.Cols(), i%want.Cols(), w[i], g[i])
		}
	}
	return true
}

// RunConformance runs the device ops of drv against the CPU kernel set.
func RunConformance(t *testing.T, drv driver.Driver, opts ...gpu.Option) {
	c := Open(t, drv, opts...)
	host := cpu.New()

	t.Run("Scenarios", func(t *testing.T) {
		runScenarios(t, c)
	})

	t.Run("MatchesCPU", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(1, 2))
		shapes := []matrix.Shape{{Rows: 1, Cols: 1}, {Rows: 3, Cols: 5}, {Rows: 17, Cols: 9}, {Rows: 64, Cols: 65}}
		for _, s := range shapes {
			a := Random(t, rng, s.Rows, s.Cols)
			b := Random(t, rng, s.Cols, s.Rows+2)
			row := Random(t, rng, 1, s.Cols)
			col := Random(t, rng, s.Rows, 1)

			compare(t, "Multiply "+s.String(), host.Multiply, c.Multiply, a, b)
			compare(t, "AddRowToRows "+s.String(), host.AddRowToRows, c.AddRowToRows, a, row)
			compare(t, "AddColToCols "+s.String(), host.AddColToCols, c.AddColToCols, a, col)
			compareUnary(t, "ReLU "+s.String(), host.ReLU, c.ReLU, a)
			compareUnary(t, "HorizontalSoftmax "+s.String(), host.HorizontalSoftmax, c.HorizontalSoftmax, a)
			compareUnary(t, "VerticalSoftmax "+s.String(), host.VerticalSoftmax, c.VerticalSoftmax, a)
		}
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		a := MustMatrix(t, 2, 3)
		_, err := c.Multiply(a, a)
		require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
		_, err = c.AddRowToRows(a, MustMatrix(t, 1, 2))
		require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
		_, err = c.AddColToCols(a, MustMatrix(t, 3, 1))
		require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	})

	t.Run("Large", func(t *testing.T) {
		if testing.Short() {
			t.Skip("skipping 1000x1000 ops in short mode")
		}
		rng := rand.New(rand.NewPCG(3, 4))
		a := Random(t, rng, 1000, 1000)
		b := Random(t, rng, 1000, 1000)
		row := Random(t, rng, 1, 1000)
		col := Random(t, rng, 1000, 1)

		compare(t, "Multiply 1000x1000", host.Multiply, c.Multiply, a, b)
		compare(t, "AddRowToRows 1000x1000", host.AddRowToRows, c.AddRowToRows, a, row)
		compare(t, "AddColToCols 1000x1000", host.AddColToCols, c.AddColToCols, a, col)
		compareUnary(t, "ReLU 1000x1000", host.ReLU, c.ReLU, a)
		compareUnary(t, "HorizontalSoftmax 1000x1000", host.HorizontalSoftmax, c.HorizontalSoftmax, a)
		compareUnary(t, "VerticalSoftmax 1000x1000", host.VerticalSoftmax, c.VerticalSoftmax, a)
	})
}

type binaryOp func(a, b *matrix.Matrix) (*matrix.Matrix, error)

type unaryOp func(a *matrix.Matrix) (*matrix.Matrix, error)

func compare(t *testing.T, name string, want, got binaryOp, a, b *matrix.Matrix) {
	t.Helper()
	w, err := want(a, b)
	require.NoError(t, err, name)
	g, err := got(a, b)
	require.NoError(t, err, name)
	AssertClose(t, w, g)
}

func compareUnary(t *testing.T, name string, want, got unaryOp, a *matrix.Matrix) {
	t.Helper()
	w, err := want(a)
	require.NoError(t, err, name)
	g, err := got(a)
	require.NoError(t, err, name)
	AssertClose(t, w, g)
}

func runScenarios(t *testing.T, c *gpu.Context) {
	for _, sc := range scenario.All() {
		t.Run(sc.Name, func(t *testing.T) {
			got, err := sc.Run(c)
			require.NoError(t, err)
			AssertClose(t, sc.Want, got)
		})
	}
}
