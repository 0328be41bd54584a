package gpu

import (
	"github.com/born-ml/matmath/internal/matrix"
)

var _ matrix.Backend = (*Context)(nil)

// Multiply computes a·b on the device.
func (c *Context) Multiply(a, b *matrix.Matrix) (*matrix.Matrix, error) {
	if err := matrix.CheckMultiply(a, b); err != nil {
		return nil, err
	}
	return c.run(launch{
		kernel:  KernelMultiply,
		inputs:  []*matrix.Matrix{a, b},
		scalars: []int{a.Cols(), b.Cols()},
		global:  []int{a.Rows(), b.Cols()},
		out:     matrix.Shape{Rows: a.Rows(), Cols: b.Cols()},
	})
}

// AddRowToRows adds the 1×cols matrix row to every row of a.
func (c *Context) AddRowToRows(a, row *matrix.Matrix) (*matrix.Matrix, error) {
	if err := matrix.CheckRowBroadcast(a, row); err != nil {
		return nil, err
	}
	return c.run(launch{
		kernel:  KernelAddRowToRows,
		inputs:  []*matrix.Matrix{a, row},
		scalars: []int{a.Cols()},
		global:  []int{a.Rows()},
		out:     a.Shape(),
	})
}

// AddColToCols adds the rows×1 matrix col to every column of a.
func (c *Context) AddColToCols(a, col *matrix.Matrix) (*matrix.Matrix, error) {
	if err := matrix.CheckColBroadcast(a, col); err != nil {
		return nil, err
	}
	return c.run(launch{
		kernel:  KernelAddColToCols,
		inputs:  []*matrix.Matrix{a, col},
		scalars: []int{a.Cols()},
		global:  []int{a.Rows()},
		out:     a.Shape(),
	})
}

// ReLU computes max(x, 0) element-wise on the device.
func (c *Context) ReLU(a *matrix.Matrix) (*matrix.Matrix, error) {
	return c.run(launch{
		kernel:  KernelReLU,
		inputs:  []*matrix.Matrix{a},
		scalars: []int{a.Cols()},
		global:  []int{a.Rows()},
		out:     a.Shape(),
	})
}

// HorizontalSoftmax computes softmax along each row on the device.
func (c *Context) HorizontalSoftmax(a *matrix.Matrix) (*matrix.Matrix, error) {
	return c.run(launch{
		kernel:  KernelHorizontalSoftmax,
		inputs:  []*matrix.Matrix{a},
		scalars: []int{a.Cols()},
		global:  []int{a.Rows()},
		out:     a.Shape(),
	})
}

// VerticalSoftmax computes softmax along each column on the device.
func (c *Context) VerticalSoftmax(a *matrix.Matrix) (*matrix.Matrix, error) {
	return c.run(launch{
		kernel:  KernelVerticalSoftmax,
		inputs:  []*matrix.Matrix{a},
		scalars: []int{a.Cols(), a.Rows()},
		global:  []int{a.Cols()},
		out:     a.Shape(),
	})
}
