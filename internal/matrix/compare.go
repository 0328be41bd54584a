package matrix

import "math"

// MaxAbsDiff returns the largest absolute element-wise difference between a
// and b, which must have the same shape.
func MaxAbsDiff(a, b *Matrix) (float64, error) {
	if !a.Shape().Equal(b.Shape()) {
		return 0, mismatch("compare", a, b)
	}
	var maxDiff float64
	for i, v := range a.data {
		d := math.Abs(float64(v) - float64(b.data[i]))
		if d > maxDiff || math.IsNaN(d) {
			maxDiff = d
		}
	}
	return maxDiff, nil
}
