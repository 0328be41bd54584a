package matrix

// Shape checks shared by the CPU and device kernel sets. Every check runs
// before any allocation, so a rejected call has no side effects.

// CheckMultiply requires a.Cols == b.Rows.
func CheckMultiply(a, b *Matrix) error {
	if a.cols != b.rows {
		return mismatch("multiply", a, b)
	}
	return nil
}

// CheckRowBroadcast requires row to be a single row as wide as a.
func CheckRowBroadcast(a, row *Matrix) error {
	if a.cols != row.cols || row.rows != 1 {
		return mismatch("addRowToRows", a, row)
	}
	return nil
}

// CheckColBroadcast requires col to be a single column as tall as a.
func CheckColBroadcast(a, col *Matrix) error {
	if a.rows != col.rows || col.cols != 1 {
		return mismatch("addColToCols", a, col)
	}
	return nil
}

func mismatch(op string, a, b *Matrix) error {
	return &DimensionError{Op: op, A: a.Shape(), B: b.Shape()}
}
