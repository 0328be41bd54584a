package main

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sys/cpu"

	"github.com/born-ml/matmath/internal/gpu/driver"
)

func newDevicesCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List drivers, platforms and devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			names := driver.Names()
			if cfg.driver != driverAuto {
				names = []string{cfg.driver}
			}
			fmt.Fprintf(out, "Drivers: %s\n", strings.Join(driver.Names(), ", "))
			for _, name := range names {
				if err := listDriver(out, name); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "Host: %s/%s, %d CPUs, features: %s\n",
				runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), hostFeatures())
			return nil
		},
	}
}

// listDriver prints the platforms and devices of one driver. An unavailable
// driver is reported, not returned.
func listDriver(out io.Writer, name string) error {
	drv, err := driver.Open(name)
	if err != nil {
		if errors.Is(err, driver.ErrUnavailable) {
			fmt.Fprintf(out, "%s: %v\n", name, err)
			return nil
		}
		return err
	}
	platforms, err := drv.Platforms()
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", name, err)
		return nil
	}
	fmt.Fprintf(out, "%s (%s kernels):\n", name, drv.Language())
	if len(platforms) == 0 {
		fmt.Fprintln(out, "  no platforms")
	}
	for i, p := range platforms {
		fmt.Fprintf(out, "  %d.) %s\n", i+1, p.Name())
		devices, err := drv.Devices(p, driver.DeviceAll)
		if err != nil {
			fmt.Fprintf(out, "      %v\n", err)
			continue
		}
		for j, d := range devices {
			fmt.Fprintf(out, "      %d.) %s [%s]\n", j+1, d.Name(), d.Class())
		}
	}
	return nil
}

// hostFeatures lists the SIMD extensions the CPU path can benefit from.
func hostFeatures() string {
	var f []string
	switch runtime.GOARCH {
	case "amd64", "386":
		for _, x := range []struct {
			name string
			ok   bool
		}{
			{"SSE4.1", cpu.X86.HasSSE41},
			{"AVX", cpu.X86.HasAVX},
			{"AVX2", cpu.X86.HasAVX2},
			{"FMA", cpu.X86.HasFMA},
			{"AVX-512F", cpu.X86.HasAVX512F},
		} {
			if x.ok {
				f = append(f, x.name)
			}
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			f = append(f, "ASIMD")
		}
		if cpu.ARM64.HasSVE {
			f = append(f, "SVE")
		}
	}
	if len(f) == 0 {
		return "none"
	}
	return strings.Join(f, " ")
}
