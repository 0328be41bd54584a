package cpu

import (
	"github.com/born-ml/matmath/internal/matrix"
	"github.com/born-ml/matmath/internal/parallel"
)

// rowWorkers splits the rows of a product across CPUs.
var rowWorkers = parallel.DefaultConfig()

// Multiply performs matrix multiplication: (m×k)·(k×n) → (m×n).
// Uses the naive O(m·n·k) loop with row blocks spread over CPUs; every
// element is summed in the same order regardless of the split.
func Multiply(a, b *matrix.Matrix) (*matrix.Matrix, error) {
	if err := matrix.CheckMultiply(a, b); err != nil {
		return nil, err
	}

	m, k, n := a.Rows(), a.Cols(), b.Cols()
	result := matrix.Zeros(matrix.Shape{Rows: m, Cols: n})
	c, ad, bd := result.Data(), a.Data(), b.Data()
	parallel.For(m, rowWorkers, func(start, end int) {
		matmulFloat32(c, ad, bd, start, end, k, n)
	})
	return result, nil
}

// matmulFloat32 computes C[i,j] = sum_k A[i,k] * B[k,j] for rows [start, end)
// with a float32 accumulator.
func matmulFloat32(c, a, b []float32, start, end, k, n int) {
	for i := start; i < end; i++ {
		for j := 0; j < n; j++ {
			sum := float32(0)
			for kIdx := 0; kIdx < k; kIdx++ {
				sum += a[i*k+kIdx] * b[kIdx*n+j]
			}
			c[i*n+j] = sum
		}
	}
}
