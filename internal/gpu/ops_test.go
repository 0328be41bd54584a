package gpu_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/matmath/internal/gpu"
	"github.com/born-ml/matmath/internal/gpu/driver"
	"github.com/born-ml/matmath/internal/gpu/driver/emulator"
	"github.com/born-ml/matmath/internal/gpu/gputest"
	"github.com/born-ml/matmath/internal/matrix"
)

func TestConformanceEmulatorOpenCL(t *testing.T) {
	gputest.RunConformance(t, emulator.New())
}

func TestConformanceEmulatorWGSL(t *testing.T) {
	gputest.RunConformance(t, emulator.New(emulator.WithLanguage(driver.LanguageWGSL)))
}

func TestConformanceEmulatorPooled(t *testing.T) {
	gputest.RunConformance(t, emulator.New(), gpu.WithBufferPool())
}

func TestKernelNotLoadedAllocatesNothing(t *testing.T) {
	drv := emulator.New()
	c := initialized(t, drv)
	a := gputest.MustMatrix(t, 2, 2, 1, 2, 3, 4)
	col := gputest.MustMatrix(t, 2, 1, 1, 2)
	row := gputest.MustMatrix(t, 1, 2, 1, 2)

	ops := map[gpu.KernelID]func() (*matrix.Matrix, error){
		gpu.KernelMultiply:          func() (*matrix.Matrix, error) { return c.Multiply(a, a) },
		gpu.KernelAddRowToRows:      func() (*matrix.Matrix, error) { return c.AddRowToRows(a, row) },
		gpu.KernelAddColToCols:      func() (*matrix.Matrix, error) { return c.AddColToCols(a, col) },
		gpu.KernelReLU:              func() (*matrix.Matrix, error) { return c.ReLU(a) },
		gpu.KernelHorizontalSoftmax: func() (*matrix.Matrix, error) { return c.HorizontalSoftmax(a) },
		gpu.KernelVerticalSoftmax:   func() (*matrix.Matrix, error) { return c.VerticalSoftmax(a) },
	}
	require.Len(t, ops, len(gpu.Kernels()))

	for id, op := range ops {
		t.Run(id.EntryPoint(), func(t *testing.T) {
			out, err := op()
			assert.Nil(t, out)
			require.ErrorIs(t, err, gpu.ErrKernelNotLoaded)
			var nl *gpu.KernelNotLoadedError
			require.ErrorAs(t, err, &nl)
			assert.Equal(t, id.ScopedName(), nl.Name)
		})
	}

	assert.Zero(t, c.Stats().Allocations)
	counters := drv.Counters()
	assert.Zero(t, counters.Buffers)
	assert.Zero(t, counters.Dispatches)
}

func TestDimensionMismatchAllocatesNothing(t *testing.T) {
	drv := emulator.New()
	c := gputest.Open(t, drv)
	a := gputest.MustMatrix(t, 2, 3)

	_, err := c.Multiply(a, a)
	var de *matrix.DimensionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, matrix.Shape{Rows: 2, Cols: 3}, de.A)
	assert.Equal(t, matrix.Shape{Rows: 2, Cols: 3}, de.B)

	_, err = c.AddColToCols(a, gputest.MustMatrix(t, 2, 2))
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	assert.Zero(t, drv.Counters().Buffers)
}

func TestOpsReleaseBuffers(t *testing.T) {
	drv := emulator.New()
	c := gputest.Open(t, drv)
	a := gputest.MustMatrix(t, 2, 2, 1, 2, 3, 4)

	_, err := c.Multiply(a, a)
	require.NoError(t, err)
	_, err = c.VerticalSoftmax(a)
	require.NoError(t, err)

	counters := drv.Counters()
	assert.Equal(t, 5, counters.Buffers)
	assert.Zero(t, counters.LiveBuffers())
	assert.Equal(t, 2, counters.Dispatches)

	st := c.Stats()
	assert.Equal(t, uint64(5), st.Allocations)
	assert.Equal(t, uint64(5), st.Releases)
	assert.Zero(t, st.ActiveBuffers)
	assert.Zero(t, st.TotalAllocatedBytes)
	assert.Equal(t, uint64(3*16), st.PeakMemoryBytes)
}

func TestOpFailuresReleaseBuffers(t *testing.T) {
	boom := errors.New("boom")
	a := [...]float32{1, 2, 3, 4}

	for _, op := range []emulator.Op{emulator.OpSetArg, emulator.OpDispatch, emulator.OpReadBuffer} {
		t.Run(string(op), func(t *testing.T) {
			drv := emulator.New()
			c := gputest.Open(t, drv)

			drv.FailOn(op, boom)
			out, err := c.ReLU(gputest.MustMatrix(t, 2, 2, a[:]...))
			drv.ClearFaults()

			require.ErrorIs(t, err, boom)
			assert.Nil(t, out)
			assert.Zero(t, drv.Counters().LiveBuffers())
			assert.Zero(t, c.Stats().ActiveBuffers)
		})
	}
}

func TestAllocationFailure(t *testing.T) {
	boom := errors.New("boom")
	drv := emulator.New()
	c := gputest.Open(t, drv)

	drv.FailOn(emulator.OpCreateBuffer, boom)
	_, err := c.Multiply(gputest.MustMatrix(t, 1, 1, 2), gputest.MustMatrix(t, 1, 1, 3))
	drv.ClearFaults()

	require.ErrorIs(t, err, boom)
	assert.Zero(t, drv.Counters().LiveBuffers())
}

func TestReleaseFailureSurfaces(t *testing.T) {
	boom := errors.New("boom")
	drv := emulator.New()
	c := gputest.Open(t, drv)

	drv.FailOn(emulator.OpRelease, boom)
	out, err := c.ReLU(gputest.MustMatrix(t, 1, 2, -1, 1))
	drv.ClearFaults()

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "release buffer")
	assert.Nil(t, out)
}

func TestBufferPoolReuse(t *testing.T) {
	drv := emulator.New()
	c := gputest.Open(t, drv, gpu.WithBufferPool())

	first := gputest.MustMatrix(t, 2, 2, -1, 2, -3, 4)
	second := gputest.MustMatrix(t, 2, 2, 5, -6, 7, -8)

	got, err := c.ReLU(first)
	require.NoError(t, err)
	gputest.AssertClose(t, gputest.MustMatrix(t, 2, 2, 0, 2, 0, 4), got)

	got, err = c.ReLU(second)
	require.NoError(t, err)
	gputest.AssertClose(t, gputest.MustMatrix(t, 2, 2, 5, 0, 7, 0), got)

	st := c.Stats()
	assert.Equal(t, uint64(2), st.Allocations)
	assert.Equal(t, uint64(2), st.PoolHits)
	assert.Equal(t, uint64(2), st.PoolMisses)
	assert.Equal(t, 2, st.PooledBuffers)
	assert.Equal(t, int64(2), st.ActiveBuffers)
	assert.Equal(t, 1, drv.Counters().Writes)

	// Buffers of another length are never served from the pool.
	_, err = c.ReLU(gputest.MustMatrix(t, 1, 3, 1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), c.Stats().Allocations)

	require.NoError(t, c.Close())
	assert.Zero(t, c.Stats().ActiveBuffers)
	assert.False(t, drv.Counters().Leaked())
}

func TestBackendName(t *testing.T) {
	var b matrix.Backend = initialized(t, emulator.New())
	assert.Equal(t, "Emulator Platform / Emulated GPU", b.Name())
}
