// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package matrix provides the dense float32 matrix used by every matmath backend.
//
// # Overview
//
// A Matrix has a fixed shape and a row-major buffer it owns exclusively.
// Operations never modify their inputs and always return a new Matrix.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/matmath/backend/cpu"
//	    "github.com/born-ml/matmath/matrix"
//	)
//
//	func main() {
//	    a, _ := matrix.FromData(2, 3, []float32{1, 2, 3, 0, 1, 0})
//	    b, _ := matrix.FromData(3, 2, []float32{1, 0, 1, 3, 2, 1})
//
//	    c, err := cpu.New().Multiply(a, b) // [[9 9] [1 3]]
//	}
//
// # Construction
//
// FromData is permissive: when the data length does not match rows*cols the
// data is ignored and the matrix is zero-filled. Non-positive dimensions are
// rejected with ErrInvalidShape.
//
// # Errors
//
// Shape violations are reported as *DimensionError, which matches
// ErrDimensionMismatch with errors.Is:
//
//	_, err := backend.Multiply(a, a)
//	if errors.Is(err, matrix.ErrDimensionMismatch) {
//	    // (2x3) (2x3)
//	}
package matrix
