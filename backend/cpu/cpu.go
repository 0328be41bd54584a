// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/matmath/internal/backend/cpu"
	"github.com/born-ml/matmath/matrix"
)

// Backend represents the CPU backend implementation.
//
// The CPU backend is the reference for every other backend: device results
// are checked against it.
type Backend = internalcpu.Backend

// Compile-time check that Backend implements matrix.Backend.
var _ matrix.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/born-ml/matmath/backend/cpu"
//	    "github.com/born-ml/matmath/matrix"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x, _ := matrix.FromData(1, 4, []float32{-1, 2, -3, 0})
//	    y, _ := backend.ReLU(x) // [[0 2 0 0]]
//	}
func New() *Backend {
	return internalcpu.New()
}

// ReLUDerivative returns 1 where x > 0 and 0 elsewhere. It has no device
// counterpart.
func ReLUDerivative(a *matrix.Matrix) *matrix.Matrix {
	return internalcpu.ReLUDerivative(a)
}
