package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/born-ml/matmath/internal/backend/cpu"
	"github.com/born-ml/matmath/internal/gpu"
	"github.com/born-ml/matmath/internal/matrix"
)

type benchOptions struct {
	size int
	runs int
}

func newBenchCmd(cfg *config) *cobra.Command {
	opts := benchOptions{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time small and large multiplications on the device and the CPU",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.size < 1 || opts.runs < 1 {
				return fmt.Errorf("size and runs must be positive (got %d, %d)", opts.size, opts.runs)
			}
			dev, logger, err := session(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeDevice(dev, logger)
			return runBench(cmd.OutOrStdout(), dev, opts)
		},
	}
	cmd.Flags().IntVar(&opts.size, "size", 1500, "rows and columns of the large matrices")
	cmd.Flags().IntVar(&opts.runs, "runs", 1, "timed runs per measurement")
	return cmd
}

func runBench(out io.Writer, dev *gpu.Context, opts benchOptions) error {
	host := cpu.New()
	rng := rand.New(rand.NewPCG(7, 11))

	fmt.Fprintf(out, "Device: %s (driver %s)\n", dev.Name(), dev.Driver().Name())
	fmt.Fprintf(out, "Large matrices: %dx%d, %d run(s)\n\n", opts.size, opts.size, opts.runs)

	smallA, smallB := random(rng, 2, 3), random(rng, 3, 2)
	largeA, largeB := random(rng, opts.size, opts.size), random(rng, opts.size, opts.size)

	var results [2]*matrix.Matrix
	for i, b := range []matrix.Backend{dev, host} {
		t, _, err := timeMultiply(b, smallA, smallB, opts.runs)
		if err != nil {
			return err
		}
		printTiming(out, "small", b.Name(), t)

		t, results[i], err = timeMultiply(b, largeA, largeB, opts.runs)
		if err != nil {
			return err
		}
		printTiming(out, "large", b.Name(), t)
	}

	diff, err := matrix.MaxAbsDiff(results[1], results[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nMax difference between device and CPU: %.3g\n", diff)

	s := dev.Stats()
	fmt.Fprintf(out, "Device memory: %d allocations, %d releases, peak %d bytes\n",
		s.Allocations, s.Releases, s.PeakMemoryBytes)
	if diff > gpu.Tolerance {
		return fmt.Errorf("device result differs from CPU by %.3g", diff)
	}
	return nil
}

type timing struct {
	avg, min, max time.Duration
}

// timeMultiply runs a·b runs times and returns the timings and the last result.
func timeMultiply(b matrix.Backend, x, y *matrix.Matrix, runs int) (timing, *matrix.Matrix, error) {
	var (
		t     timing
		total time.Duration
		last  *matrix.Matrix
	)
	for i := range runs {
		start := time.Now()
		m, err := b.Multiply(x, y)
		elapsed := time.Since(start)
		if err != nil {
			return t, nil, fmt.Errorf("%s multiply: %w", b.Name(), err)
		}
		last = m
		total += elapsed
		if i == 0 || elapsed < t.min {
			t.min = elapsed
		}
		if elapsed > t.max {
			t.max = elapsed
		}
	}
	t.avg = total / time.Duration(runs)
	return t, last, nil
}

func printTiming(out io.Writer, size, backend string, t timing) {
	fmt.Fprintf(out, "Time to run %s multiplication on %s: %dms", size, backend, t.avg.Milliseconds())
	if t.min != t.max {
		fmt.Fprintf(out, " (min %dms, max %dms)", t.min.Milliseconds(), t.max.Milliseconds())
	}
	fmt.Fprintln(out)
}
