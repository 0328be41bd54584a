// Package webgpu implements driver.Driver on WebGPU using go-webgpu
// (github.com/go-webgpu/webgpu), which needs no cgo.
//
// Programs are WGSL. Each kernel is a compute pipeline created with an
// automatic layout for one entry point. Buffer arguments bind at the binding
// equal to their argument index. Scalar arguments are packed, in argument
// order, into a 16-byte uniform bound at binding 3.
//
// Like the rest of born's WebGPU code the binding is built on windows only;
// elsewhere opening the driver fails with driver.ErrUnavailable.
package webgpu

// DriverName is the name the driver registers under.
const DriverName = "webgpu"

const (
	paramsBinding = 3
	paramsSize    = 16 // 4 x u32, uniform alignment

	workgroupSize1D = 64
	workgroupSize2D = 8
)

// workgroups returns the workgroup counts that cover a global size, using
// the workgroup sizes declared by the shipped WGSL entry points.
func workgroups(global []int) (x, y uint32) {
	if len(global) == 1 {
		return ceilDiv(global[0], workgroupSize1D), 1
	}
	return ceilDiv(global[0], workgroupSize2D), ceilDiv(global[1], workgroupSize2D)
}

func ceilDiv(n, d int) uint32 {
	//nolint:gosec // G115: global sizes are validated non-negative and fit in uint32
	return uint32((n + d - 1) / d)
}
