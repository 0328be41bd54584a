// Package scenario holds the fixed matrix cases every backend must reproduce,
// and a runner that checks a backend against them.
package scenario

import (
	"fmt"

	"github.com/born-ml/matmath/internal/matrix"
)

// Case is one operation on fixed inputs with its expected result.
type Case struct {
	Name string
	Run  func(b matrix.Backend) (*matrix.Matrix, error)
	Want *matrix.Matrix
}

// Result is the outcome of one Case on one backend.
type Result struct {
	Case    string
	Backend string
	MaxDiff float64
	Err     error
}

// OK reports whether the case ran and matched within tolerance.
func (r Result) OK(tol float64) bool {
	return r.Err == nil && r.MaxDiff <= tol
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s/%s: %v", r.Backend, r.Case, r.Err)
	}
	return fmt.Sprintf("%s/%s: max diff %.3g", r.Backend, r.Case, r.MaxDiff)
}

var softmaxIn = []float32{1.1, 2.2, 0.2, -1.7}

var softmaxOut = []float32{0.223636, 0.671841, 0.090923, 0.013599}

// All returns the fixed cases.
func All() []Case {
	return []Case{
		{
			Name: "Multiply",
			Run: func(b matrix.Backend) (*matrix.Matrix, error) {
				return b.Multiply(must(2, 3, 1, 2, 3, 0, 1, 0), must(3, 2, 1, 0, 1, 3, 2, 1))
			},
			Want: must(2, 2, 9, 9, 1, 3),
		},
		{
			Name: "AddRowToRows",
			Run: func(b matrix.Backend) (*matrix.Matrix, error) {
				return b.AddRowToRows(must(2, 3, 1, 2, 3, 0, 0, 0), must(1, 3, 3, 2, 1))
			},
			Want: must(2, 3, 4, 4, 4, 3, 2, 1),
		},
		{
			Name: "AddColToCols",
			Run: func(b matrix.Backend) (*matrix.Matrix, error) {
				return b.AddColToCols(must(3, 2, 1, 0, 2, 0, 3, 0), must(3, 1, 3, 2, 1))
			},
			Want: must(3, 2, 4, 3, 4, 2, 4, 1),
		},
		{
			Name: "ReLU",
			Run: func(b matrix.Backend) (*matrix.Matrix, error) {
				return b.ReLU(must(1, 4, -1, 2, -3, 0))
			},
			Want: must(1, 4, 0, 2, 0, 0),
		},
		{
			Name: "HorizontalSoftmax",
			Run: func(b matrix.Backend) (*matrix.Matrix, error) {
				return b.HorizontalSoftmax(must(1, 4, softmaxIn...))
			},
			Want: must(1, 4, softmaxOut...),
		},
		{
			Name: "VerticalSoftmax",
			Run: func(b matrix.Backend) (*matrix.Matrix, error) {
				return b.VerticalSoftmax(must(4, 1, softmaxIn...))
			},
			Want: must(4, 1, softmaxOut...),
		},
	}
}

// Check runs every case on b. A case that fails to run or whose result has
// the wrong shape carries the error; the others carry the largest
// element-wise difference from the expected result.
func Check(b matrix.Backend) []Result {
	cases := All()
	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		r := Result{Case: c.Name, Backend: b.Name()}
		got, err := c.Run(b)
		if err == nil {
			r.MaxDiff, err = matrix.MaxAbsDiff(c.Want, got)
		}
		r.Err = err
		results = append(results, r)
	}
	return results
}

// Failures returns the results that are not OK within tol.
func Failures(results []Result, tol float64) []Result {
	var failed []Result
	for _, r := range results {
		if !r.OK(tol) {
			failed = append(failed, r)
		}
	}
	return failed
}

// must builds a fixed matrix; the literals above always have valid shapes.
func must(rows, cols int, data ...float32) *matrix.Matrix {
	m, err := matrix.FromData(rows, cols, data)
	if err != nil {
		panic(err)
	}
	return m
}
