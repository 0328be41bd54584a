package emulator

import "math"

// emulation is the host rendition of one entry point. item runs a single
// work-item (x, y) with buffers and scalars in argument order.
type emulation struct {
	buffers int
	scalars int
	item    func(bufs [][]float32, s []uint32, x, y int)
}

var emulations = map[string]emulation{
	"matrixMultiply": {buffers: 3, scalars: 2, item: matrixMultiply},
	"addRowToRows":   {buffers: 3, scalars: 1, item: addRowToRows},
	"addColToCols":   {buffers: 3, scalars: 1, item: addColToCols},
	"relu":           {buffers: 2, scalars: 1, item: relu},
	"horizontalSoftmax": {buffers: 2, scalars: 1, item: func(b [][]float32, s []uint32, x, _ int) {
		cols := int(s[0])
		softmax(b[0], b[1], x*cols, 1, cols)
	}},
	"verticalSoftmax": {buffers: 2, scalars: 2, item: func(b [][]float32, s []uint32, x, _ int) {
		cols, rows := int(s[0]), int(s[1])
		softmax(b[0], b[1], x, cols, rows)
	}},
}

// matrixMultiply: out, A, B, colsA, colsB over (rows, colsB).
func matrixMultiply(b [][]float32, s []uint32, row, col int) {
	out, a, m := b[0], b[1], b[2]
	colsA, colsB := int(s[0]), int(s[1])

	var sum float32
	for k := 0; k < colsA; k++ {
		sum += a[row*colsA+k] * m[k*colsB+col]
	}
	out[row*colsB+col] = sum
}

func addRowToRows(b [][]float32, s []uint32, r, _ int) {
	out, a, row := b[0], b[1], b[2]
	cols := int(s[0])
	offset := r * cols
	for c := 0; c < cols; c++ {
		out[offset+c] = a[offset+c] + row[c]
	}
}

func addColToCols(b [][]float32, s []uint32, r, _ int) {
	out, a, col := b[0], b[1], b[2]
	cols := int(s[0])
	offset := r * cols
	bias := col[r]
	for c := 0; c < cols; c++ {
		out[offset+c] = a[offset+c] + bias
	}
}

func relu(b [][]float32, s []uint32, r, _ int) {
	out, in := b[0], b[1]
	cols := int(s[0])
	offset := r * cols
	for c := 0; c < cols; c++ {
		out[offset+c] = max(in[offset+c], 0)
	}
}

// softmax normalizes n elements starting at base with the given stride.
func softmax(out, in []float32, base, stride, n int) {
	maxVal := float32(-math.MaxFloat32)
	for i := 0; i < n; i++ {
		maxVal = max(maxVal, in[base+i*stride])
	}

	var sum float32
	for i := 0; i < n; i++ {
		sum += float32(math.Exp(float64(in[base+i*stride] - maxVal)))
	}

	for i := 0; i < n; i++ {
		idx := base + i*stride
		out[idx] = float32(math.Exp(float64(in[idx]-maxVal)) / float64(sum))
	}
}
