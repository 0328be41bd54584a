package emulator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/matmath/internal/gpu/driver"
)

const testProgram = `
// test program
__kernel void matrixMultiply(__global float* out, __global const float* a,
                             __global const float* b, const unsigned int colsA,
                             const unsigned int colsB) { /* body */ }
__kernel void relu(__global float* out, __global const float* in, const unsigned int cols) {}
`

func openContext(t *testing.T, d *Driver) driver.Context {
	t.Helper()
	platforms, err := d.Platforms()
	require.NoError(t, err)
	require.NotEmpty(t, platforms)
	devices, err := d.Devices(platforms[0], driver.DeviceGPU)
	require.NoError(t, err)
	require.NotEmpty(t, devices)
	ctx, err := d.CreateContext(platforms[0], devices[0])
	require.NoError(t, err)
	return ctx
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, driver.Names(), DriverName)
	drv, err := driver.Open(DriverName)
	require.NoError(t, err)
	assert.Equal(t, DriverName, drv.Name())
	assert.Equal(t, driver.LanguageOpenCL, drv.Language())
}

func TestDevicesFilter(t *testing.T) {
	d := New()
	platforms, err := d.Platforms()
	require.NoError(t, err)
	require.Len(t, platforms, 1)
	assert.Equal(t, "Emulator Platform", platforms[0].Name())

	gpus, err := d.Devices(platforms[0], driver.DeviceGPU)
	require.NoError(t, err)
	require.Len(t, gpus, 1)
	assert.Equal(t, "Emulated GPU", gpus[0].Name())
	assert.Equal(t, driver.DeviceGPU, gpus[0].Class())

	all, err := d.Devices(platforms[0], driver.DeviceAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestWithPlatforms(t *testing.T) {
	d := New(WithPlatforms(
		PlatformSpec{Name: "A", Devices: []DeviceSpec{{Name: "cpu only", Class: driver.DeviceCPU}}},
		PlatformSpec{Name: "B"},
	))
	platforms, err := d.Platforms()
	require.NoError(t, err)
	require.Len(t, platforms, 2)

	gpus, err := d.Devices(platforms[0], driver.DeviceGPU)
	require.NoError(t, err)
	assert.Empty(t, gpus)
}

func TestParseProgram(t *testing.T) {
	entries, err := parseProgram(testProgram, driver.LanguageOpenCL)
	require.NoError(t, err)
	assert.Equal(t, []string{"matrixMultiply", "relu"}, entries)

	wgsl := `
@group(0) @binding(0) var<storage, read_write> out: array<f32>;
fn helper(x: f32) -> f32 { return x; }
@compute @workgroup_size(64)
fn relu(@builtin(global_invocation_id) gid: vec3<u32>) { out[gid.x] = helper(0.0); }
`
	entries, err = parseProgram(wgsl, driver.LanguageWGSL)
	require.NoError(t, err)
	assert.Equal(t, []string{"relu"}, entries)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unclosed brace", "__kernel void relu(__global float* out) {"},
		{"stray paren", "__kernel void relu(__global float* out)) {}"},
		{"mismatched", "__kernel void relu(__global float* out] {}"},
	}

	ctx := openContext(t, New())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ctx.BuildProgram(tt.source)
			var be *driver.BuildError
			require.ErrorAs(t, err, &be)
			assert.Contains(t, be.Log, "error")
		})
	}
}

func TestCommentsIgnored(t *testing.T) {
	ctx := openContext(t, New())
	_, err := ctx.BuildProgram("// (unbalanced { in a comment\n/* ) */ __kernel void relu() {}")
	require.NoError(t, err)
}

func TestCreateKernelMissingEntry(t *testing.T) {
	ctx := openContext(t, New())
	prog, err := ctx.BuildProgram(testProgram)
	require.NoError(t, err)

	_, err = prog.CreateKernel("softmax")
	require.ErrorIs(t, err, driver.ErrNoEntryPoint)
}

func TestDispatchMultiply(t *testing.T) {
	d := New()
	ctx := openContext(t, d)
	q, err := ctx.CreateQueue()
	require.NoError(t, err)
	prog, err := ctx.BuildProgram(testProgram)
	require.NoError(t, err)
	k, err := prog.CreateKernel("matrixMultiply")
	require.NoError(t, err)

	// [[1,2,3],[0,1,0]] x [[1,0],[1,3],[2,1]]
	a, err := ctx.CreateBuffer(driver.MemReadOnly|driver.MemCopyHost, 6, []float32{1, 2, 3, 0, 1, 0})
	require.NoError(t, err)
	b, err := ctx.CreateBuffer(driver.MemReadOnly|driver.MemCopyHost, 6, []float32{1, 0, 1, 3, 2, 1})
	require.NoError(t, err)
	out, err := ctx.CreateBuffer(driver.MemReadWrite, 4, nil)
	require.NoError(t, err)

	require.NoError(t, k.SetArgBuffer(0, out))
	require.NoError(t, k.SetArgBuffer(1, a))
	require.NoError(t, k.SetArgBuffer(2, b))
	require.NoError(t, k.SetArgUint32(3, 3))
	require.NoError(t, k.SetArgUint32(4, 2))
	require.NoError(t, q.Dispatch(k, 2, 2))

	got := make([]float32, 4)
	require.NoError(t, q.ReadBuffer(out, got))
	assert.Equal(t, []float32{9, 9, 1, 3}, got)

	for _, obj := range []interface{ Release() error }{a, b, out, k, prog, q, ctx} {
		require.NoError(t, obj.Release())
	}

	c := d.Counters()
	assert.Equal(t, 3, c.Buffers)
	assert.Equal(t, 1, c.Dispatches)
	assert.Equal(t, 1, c.Reads)
	assert.False(t, c.Leaked())
}

func TestDispatchArgumentErrors(t *testing.T) {
	ctx := openContext(t, New())
	q, err := ctx.CreateQueue()
	require.NoError(t, err)
	prog, err := ctx.BuildProgram(testProgram)
	require.NoError(t, err)
	k, err := prog.CreateKernel("relu")
	require.NoError(t, err)

	out, err := ctx.CreateBuffer(driver.MemReadWrite, 4, nil)
	require.NoError(t, err)
	require.NoError(t, k.SetArgBuffer(0, out))

	// Missing input buffer and scalar.
	require.ErrorIs(t, q.Dispatch(k, 1), driver.ErrInvalidArg)

	in, err := ctx.CreateBuffer(driver.MemReadOnly|driver.MemCopyHost, 4, []float32{-1, 2, -3, 0})
	require.NoError(t, err)
	require.NoError(t, k.SetArgBuffer(1, in))
	require.NoError(t, k.SetArgUint32(2, 4))

	// Global size past the buffer end faults instead of panicking.
	err = q.Dispatch(k, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "faulted")

	require.NoError(t, q.Dispatch(k, 1))
	got := make([]float32, 4)
	require.NoError(t, q.ReadBuffer(out, got))
	assert.Equal(t, []float32{0, 2, 0, 0}, got)
}

func TestCreateBufferValidation(t *testing.T) {
	ctx := openContext(t, New())

	_, err := ctx.CreateBuffer(driver.MemReadWrite, 0, nil)
	require.ErrorIs(t, err, driver.ErrInvalidArg)

	_, err = ctx.CreateBuffer(driver.MemReadOnly|driver.MemCopyHost, 4, []float32{1, 2})
	require.ErrorIs(t, err, driver.ErrInvalidArg)
}

func TestReleaseTwice(t *testing.T) {
	d := New()
	ctx := openContext(t, d)
	buf, err := ctx.CreateBuffer(driver.MemReadWrite, 1, nil)
	require.NoError(t, err)

	require.NoError(t, buf.Release())
	require.ErrorIs(t, buf.Release(), driver.ErrReleased)
	assert.Equal(t, 1, d.Counters().BuffersReleased)
}

func TestFaultInjection(t *testing.T) {
	boom := errors.New("boom")
	d := New()
	ctx := openContext(t, d)

	d.FailOn(OpCreateBuffer, boom)
	_, err := ctx.CreateBuffer(driver.MemReadWrite, 1, nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, d.Counters().Buffers)

	d.ClearFaults()
	buf, err := ctx.CreateBuffer(driver.MemReadWrite, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Counters().LiveBuffers())

	d.FailOn(OpRelease, boom)
	require.ErrorIs(t, buf.Release(), boom)
	d.ClearFaults()
	require.NoError(t, buf.Release())
	assert.Equal(t, 0, d.Counters().LiveBuffers())
}
