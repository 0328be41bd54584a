//go:build opencl

package opencl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/matmath/internal/gpu/driver"
	"github.com/born-ml/matmath/internal/gpu/gputest"
)

func TestConformance(t *testing.T) {
	drv, err := driver.Open(DriverName)
	require.NoError(t, err)
	gputest.RunConformance(t, drv)
}

func TestBuildLog(t *testing.T) {
	drv, err := driver.Open(DriverName)
	require.NoError(t, err)
	platforms, err := drv.Platforms()
	require.NoError(t, err)
	if len(platforms) == 0 {
		t.Skip("no OpenCL platform")
	}
	devices, err := drv.Devices(platforms[0], driver.DeviceAll)
	require.NoError(t, err)
	if len(devices) == 0 {
		t.Skip("no OpenCL device")
	}

	ctx, err := drv.CreateContext(platforms[0], devices[0])
	require.NoError(t, err)
	defer ctx.Release()

	_, err = ctx.BuildProgram("__kernel void broken(__global float* out) { out[0] = undefined_symbol; }")
	var be *driver.BuildError
	require.ErrorAs(t, err, &be)
	require.NotEmpty(t, be.Log)
}
