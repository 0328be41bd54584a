package main

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/born-ml/matmath/internal/backend/cpu"
	"github.com/born-ml/matmath/internal/gpu"
	"github.com/born-ml/matmath/internal/matrix"
	"github.com/born-ml/matmath/internal/scenario"
)

func newSelftestCmd(cfg *config) *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Check CPU and device results on fixed and random inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dev, logger, err := session(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeDevice(dev, logger)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Device: %s (driver %s)\n", dev.Name(), dev.Driver().Name())

			host := cpu.New()
			results := append(scenario.Check(host), scenario.Check(dev)...)
			results = append(results, crossCheck(host, dev, rand.New(rand.NewPCG(seed, seed+1)))...)

			failed := report(out, results)
			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(results))
			}
			fmt.Fprintln(out, "All tests succeeded")
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 1, "seed for the random inputs")
	return cmd
}

// report prints one line per result and returns the number of failures.
func report(out io.Writer, results []scenario.Result) int {
	failed := 0
	for _, r := range results {
		status := "ok  "
		if !r.OK(gpu.Tolerance) {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(out, "%s %s\n", status, r)
	}
	return failed
}

// crossCheck runs every operation on random inputs and compares the device
// result against the host result.
func crossCheck(host, dev matrix.Backend, rng *rand.Rand) []scenario.Result {
	shapes := []matrix.Shape{{Rows: 1, Cols: 1}, {Rows: 7, Cols: 5}, {Rows: 33, Cols: 64}}
	var results []scenario.Result
	for _, s := range shapes {
		a := random(rng, s.Rows, s.Cols)
		b := random(rng, s.Cols, s.Rows+1)
		row := random(rng, 1, s.Cols)
		col := random(rng, s.Rows, 1)

		ops := []struct {
			name string
			run  func(matrix.Backend) (*matrix.Matrix, error)
		}{
			{"Multiply", func(x matrix.Backend) (*matrix.Matrix, error) { return x.Multiply(a, b) }},
			{"AddRowToRows", func(x matrix.Backend) (*matrix.Matrix, error) { return x.AddRowToRows(a, row) }},
			{"AddColToCols", func(x matrix.Backend) (*matrix.Matrix, error) { return x.AddColToCols(a, col) }},
			{"ReLU", func(x matrix.Backend) (*matrix.Matrix, error) { return x.ReLU(a) }},
			{"HorizontalSoftmax", func(x matrix.Backend) (*matrix.Matrix, error) { return x.HorizontalSoftmax(a) }},
			{"VerticalSoftmax", func(x matrix.Backend) (*matrix.Matrix, error) { return x.VerticalSoftmax(a) }},
		}
		for _, op := range ops {
			r := scenario.Result{Case: op.name + " " + s.String(), Backend: dev.Name() + " vs " + host.Name()}
			want, err := op.run(host)
			var got *matrix.Matrix
			if err == nil {
				got, err = op.run(dev)
			}
			if err == nil {
				r.MaxDiff, err = matrix.MaxAbsDiff(want, got)
			}
			r.Err = err
			results = append(results, r)
		}
	}
	return results
}

// random fills a rows×cols matrix with values in [-1, 1). Callers pass
// positive dimensions.
func random(rng *rand.Rand, rows, cols int) *matrix.Matrix {
	data := make([]float32, rows*cols)
	for i := range data {
		data[i] = rng.Float32()*2 - 1
	}
	m, _ := matrix.FromData(rows, cols, data)
	return m
}
