// Package opencl implements driver.Driver on the OpenCL 1.2 C API through cgo.
//
// The binding is compiled only with the opencl build tag and needs the OpenCL
// headers and an ICD loader (libOpenCL) at build time:
//
//	go build -tags opencl ./...
//
// Without the tag the package still registers the "opencl" driver, but
// opening it fails with driver.ErrUnavailable.
package opencl

// DriverName is the name the driver registers under.
const DriverName = "opencl"
