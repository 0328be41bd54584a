package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/matmath/internal/gpu/driver"
	"github.com/born-ml/matmath/internal/gpu/driver/emulator"
	"github.com/born-ml/matmath/internal/kernels"
)

var envKeys = []string{
	"MATMATH_DRIVER", "MATMATH_PLATFORM", "MATMATH_DEVICE", "MATMATH_DEVICE_CLASS",
	"MATMATH_KERNELS", "MATMATH_LOG_LEVEL", "MATMATH_INTERACTIVE", "MATMATH_POOL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, in string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(in))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	clearEnv(t)
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "matmath "+version+"\n", out)
}

func TestDevices(t *testing.T) {
	clearEnv(t)
	out, _, err := execute(t, "", "devices", "--driver", "emulator")
	require.NoError(t, err)
	assert.Contains(t, out, "Drivers: ")
	assert.Contains(t, out, "emulator (opencl kernels):")
	assert.Contains(t, out, "1.) Emulator Platform")
	assert.Contains(t, out, "1.) Emulated GPU [GPU]")
	assert.Contains(t, out, "2.) Emulated CPU [CPU]")
	assert.Contains(t, out, "Host: ")
}

// no-adapter opens but fails to enumerate platforms, like webgpu without an adapter.
func init() {
	driver.Register("no-adapter", func() (driver.Driver, error) {
		drv := emulator.New()
		drv.FailOn(emulator.OpPlatforms, fmt.Errorf("%w: request adapter: no adapter found", driver.ErrUnavailable))
		return drv, nil
	})
}

func TestDevicesShowsPlatformError(t *testing.T) {
	clearEnv(t)
	out, _, err := execute(t, "", "devices", "--driver", "no-adapter")
	require.NoError(t, err)
	assert.Contains(t, out, "no-adapter: driver: not available on this system: request adapter: no adapter found")
}

func TestSelftestPlatformError(t *testing.T) {
	clearEnv(t)
	_, _, err := execute(t, "", "selftest", "--driver", "no-adapter")
	require.ErrorIs(t, err, driver.ErrUnavailable)
}

func TestDevicesUnknownDriver(t *testing.T) {
	clearEnv(t)
	_, _, err := execute(t, "", "devices", "--driver", "nope")
	require.ErrorIs(t, err, driver.ErrUnknownDriver)
}

func TestSelftest(t *testing.T) {
	clearEnv(t)
	out, _, err := execute(t, "", "selftest", "--driver", "emulator")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Device: Emulator Platform / Emulated GPU (driver emulator)")
	assert.Contains(t, out, "ok   CPU/Multiply")
	assert.Contains(t, out, "ok   Emulator Platform / Emulated GPU/VerticalSoftmax")
	assert.NotContains(t, out, "FAIL")
	assert.True(t, strings.HasSuffix(out, "All tests succeeded\n"))
}

func TestSelftestAutoFallsBackToEmulator(t *testing.T) {
	if !available("emulator") || available("opencl") || available("webgpu") {
		t.Skip("a hardware driver is available")
	}
	clearEnv(t)
	out, errOut, err := execute(t, "", "selftest", "--log-level", "debug", "--pool")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Emulated GPU (driver emulator)")
	assert.Contains(t, errOut, "driver skipped")
}

func available(name string) bool {
	_, err := driver.Open(name)
	return err == nil
}

func TestSelectByName(t *testing.T) {
	clearEnv(t)
	t.Setenv("MATMATH_DEVICE", "cpu")
	out, _, err := execute(t, "", "selftest", "--driver", "emulator", "--class", "all")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Device: Emulator Platform / Emulated CPU")
}

func TestSelectNoMatch(t *testing.T) {
	clearEnv(t)
	_, _, err := execute(t, "", "selftest", "--driver", "emulator", "--platform", "nvidia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platform")
}

func TestInteractive(t *testing.T) {
	clearEnv(t)
	out, _, err := execute(t, "x\n2\n1\n1\n", "selftest", "--driver", "emulator", "-i")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Select a platform:\n1.) Emulator Platform\n")
	assert.Contains(t, out, "Enter a number between 1 and 1.")
	assert.Contains(t, out, "Select a device:\n1.) Emulated GPU\n")
	assert.Contains(t, out, "All tests succeeded")
}

func TestInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"log level", []string{"--log-level", "loud"}, "log level"},
		{"device class", []string{"--class", "fpga"}, "device class"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			args := append([]string{"selftest", "--driver", "emulator"}, tt.args...)
			_, _, err := execute(t, "", args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestKernelsDir(t *testing.T) {
	clearEnv(t)
	_, _, err := execute(t, "", "selftest", "--driver", "emulator", "--kernels", t.TempDir())
	require.ErrorIs(t, err, kernels.ErrNotFound)
}

func TestBench(t *testing.T) {
	clearEnv(t)
	out, _, err := execute(t, "", "bench", "--driver", "emulator", "--size", "24", "--runs", "2")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Large matrices: 24x24, 2 run(s)")
	assert.Contains(t, out, "Time to run small multiplication on Emulator Platform / Emulated GPU: ")
	assert.Contains(t, out, "Time to run large multiplication on CPU: ")
	assert.Contains(t, out, "Max difference between device and CPU: ")
	assert.Contains(t, out, "Device memory: 12 allocations, 12 releases")
}

func TestBenchRejectsSize(t *testing.T) {
	clearEnv(t)
	_, _, err := execute(t, "", "bench", "--driver", "emulator", "--size", "0")
	require.Error(t, err)
}
