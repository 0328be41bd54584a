//go:build !windows

package webgpu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/matmath/internal/gpu/driver"
)

func TestStubUnavailable(t *testing.T) {
	_, err := driver.Open(DriverName)
	require.ErrorIs(t, err, driver.ErrUnavailable)
}
