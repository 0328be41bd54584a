// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend for matrix operations.
//
// # Overview
//
// This package implements:
//   - Matrix product with the O(m·n·k) loop
//   - Row and column broadcast addition
//   - ReLU and its derivative
//   - Row-wise and column-wise softmax, max-subtracted for stability
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/matmath/backend/cpu"
//	    "github.com/born-ml/matmath/matrix"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x, _ := matrix.FromData(1, 4, []float32{1.1, 2.2, 0.2, -1.7})
//	    p, _ := backend.HorizontalSoftmax(x) // each row sums to 1
//	}
//
// For GPU acceleration, see the backend/gpu package.
package cpu
