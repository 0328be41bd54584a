package matrix

// Backend defines the operations that every execution path implements.
// Results are always freshly allocated and inputs are never modified.
//
// Implementations:
//   - backend/cpu: in-process reference loops
//   - gpu.Context: kernels dispatched through a device driver
type Backend interface {
	// Name identifies the execution path.
	Name() string

	// Matrix product: (m×k)·(k×n) → (m×n).
	Multiply(a, b *Matrix) (*Matrix, error)

	// Broadcast additions.
	AddRowToRows(a, row *Matrix) (*Matrix, error) // row is 1×a.Cols().
	AddColToCols(a, col *Matrix) (*Matrix, error) // col is a.Rows()×1.

	// Activations.
	ReLU(a *Matrix) (*Matrix, error)
	HorizontalSoftmax(a *Matrix) (*Matrix, error) // Each row sums to 1.
	VerticalSoftmax(a *Matrix) (*Matrix, error)   // Each column sums to 1.
}
