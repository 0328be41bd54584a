package cpu

import (
	"math"

	"github.com/born-ml/matmath/internal/matrix"
)

// ReLU computes max(x, 0) element-wise. NaN inputs stay NaN.
func ReLU(a *matrix.Matrix) *matrix.Matrix {
	result := matrix.Zeros(a.Shape())
	dst := result.Data()
	for i, v := range a.Data() {
		dst[i] = max(v, 0)
	}
	return result
}

// ReLUDerivative returns 1 where x > 0 and 0 elsewhere, including at x == 0.
func ReLUDerivative(a *matrix.Matrix) *matrix.Matrix {
	result := matrix.Zeros(a.Shape())
	dst := result.Data()
	for i, v := range a.Data() {
		if v > 0 {
			dst[i] = 1
		}
	}
	return result
}

// HorizontalSoftmax computes softmax along each row.
// softmax(x_i) = exp(x_i - max) / sum_j exp(x_j - max).
func HorizontalSoftmax(a *matrix.Matrix) *matrix.Matrix {
	rows, cols := a.Rows(), a.Cols()
	result := matrix.Zeros(a.Shape())
	for r := 0; r < rows; r++ {
		softmaxStrided(result.Data(), a.Data(), r*cols, 1, cols)
	}
	return result
}

// VerticalSoftmax computes softmax along each column.
func VerticalSoftmax(a *matrix.Matrix) *matrix.Matrix {
	rows, cols := a.Rows(), a.Cols()
	result := matrix.Zeros(a.Shape())
	for c := 0; c < cols; c++ {
		softmaxStrided(result.Data(), a.Data(), c, cols, rows)
	}
	return result
}

// softmaxStrided normalizes the n elements src[base], src[base+stride], ...
// The exponentials are taken in float64 and the sum is accumulated in float32,
// which the device kernels reproduce.
func softmaxStrided(dst, src []float32, base, stride, n int) {
	// Find max for numerical stability
	maxVal := float32(-math.MaxFloat32)
	for i := 0; i < n; i++ {
		if v := src[base+i*stride]; v > maxVal {
			maxVal = v
		}
	}

	var sum float32
	for i := 0; i < n; i++ {
		sum += float32(math.Exp(float64(src[base+i*stride] - maxVal)))
	}

	for i := 0; i < n; i++ {
		idx := base + i*stride
		dst[idx] = float32(math.Exp(float64(src[idx]-maxVal)) / float64(sum))
	}
}
