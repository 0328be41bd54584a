package cpu

import "github.com/born-ml/matmath/internal/matrix"

// AddRowToRows adds the 1×cols matrix row to every row of a.
func AddRowToRows(a, row *matrix.Matrix) (*matrix.Matrix, error) {
	if err := matrix.CheckRowBroadcast(a, row); err != nil {
		return nil, err
	}

	rows, cols := a.Rows(), a.Cols()
	src, bias := a.Data(), row.Data()
	result := matrix.Zeros(a.Shape())
	dst := result.Data()

	for r := 0; r < rows; r++ {
		offset := r * cols
		for c := 0; c < cols; c++ {
			dst[offset+c] = src[offset+c] + bias[c]
		}
	}
	return result, nil
}

// AddColToCols adds the rows×1 matrix col to every column of a.
func AddColToCols(a, col *matrix.Matrix) (*matrix.Matrix, error) {
	if err := matrix.CheckColBroadcast(a, col); err != nil {
		return nil, err
	}

	rows, cols := a.Rows(), a.Cols()
	src, bias := a.Data(), col.Data()
	result := matrix.Zeros(a.Shape())
	dst := result.Data()

	for r := 0; r < rows; r++ {
		offset := r * cols
		for c := 0; c < cols; c++ {
			dst[offset+c] = src[offset+c] + bias[r]
		}
	}
	return result, nil
}
