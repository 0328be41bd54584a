//go:build windows

package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/matmath/internal/gpu/driver"
	"github.com/born-ml/matmath/internal/gpu/gputest"
)

func TestConformance(t *testing.T) {
	drv, err := driver.Open(DriverName)
	if err != nil {
		t.Skipf("WebGPU not available: %v", err)
	}
	gputest.RunConformance(t, drv)
}

func TestPlatformsReportsOpenFailure(t *testing.T) {
	drv, err := driver.Open(DriverName)
	require.NoError(t, err)

	platforms, err := drv.Platforms()
	if err != nil {
		assert.ErrorIs(t, err, driver.ErrUnavailable)
		assert.Empty(t, platforms)
		return
	}
	require.Len(t, platforms, 1)
	assert.Equal(t, "WebGPU", platforms[0].Name())
}
