//go:build opencl

package opencl

/*
#cgo linux LDFLAGS: -lOpenCL
#cgo windows LDFLAGS: -lOpenCL
#cgo darwin LDFLAGS: -framework OpenCL

#define CL_TARGET_OPENCL_VERSION 120
#define CL_USE_DEPRECATED_OPENCL_1_2_APIS

#ifdef __APPLE__
#include <OpenCL/opencl.h>
#else
#include <CL/cl.h>
#endif

#include <stdlib.h>

static const char* matmath_cl_error_string(cl_int err) {
    switch (err) {
        case CL_DEVICE_NOT_FOUND: return "CL_DEVICE_NOT_FOUND";
        case CL_DEVICE_NOT_AVAILABLE: return "CL_DEVICE_NOT_AVAILABLE";
        case CL_COMPILER_NOT_AVAILABLE: return "CL_COMPILER_NOT_AVAILABLE";
        case CL_MEM_OBJECT_ALLOCATION_FAILURE: return "CL_MEM_OBJECT_ALLOCATION_FAILURE";
        case CL_OUT_OF_RESOURCES: return "CL_OUT_OF_RESOURCES";
        case CL_OUT_OF_HOST_MEMORY: return "CL_OUT_OF_HOST_MEMORY";
        case CL_BUILD_PROGRAM_FAILURE: return "CL_BUILD_PROGRAM_FAILURE";
        case CL_INVALID_VALUE: return "CL_INVALID_VALUE";
        case CL_INVALID_DEVICE_TYPE: return "CL_INVALID_DEVICE_TYPE";
        case CL_INVALID_PLATFORM: return "CL_INVALID_PLATFORM";
        case CL_INVALID_DEVICE: return "CL_INVALID_DEVICE";
        case CL_INVALID_CONTEXT: return "CL_INVALID_CONTEXT";
        case CL_INVALID_COMMAND_QUEUE: return "CL_INVALID_COMMAND_QUEUE";
        case CL_INVALID_HOST_PTR: return "CL_INVALID_HOST_PTR";
        case CL_INVALID_MEM_OBJECT: return "CL_INVALID_MEM_OBJECT";
        case CL_INVALID_BUFFER_SIZE: return "CL_INVALID_BUFFER_SIZE";
        case CL_INVALID_PROGRAM: return "CL_INVALID_PROGRAM";
        case CL_INVALID_PROGRAM_EXECUTABLE: return "CL_INVALID_PROGRAM_EXECUTABLE";
        case CL_INVALID_KERNEL_NAME: return "CL_INVALID_KERNEL_NAME";
        case CL_INVALID_KERNEL: return "CL_INVALID_KERNEL";
        case CL_INVALID_ARG_INDEX: return "CL_INVALID_ARG_INDEX";
        case CL_INVALID_ARG_VALUE: return "CL_INVALID_ARG_VALUE";
        case CL_INVALID_ARG_SIZE: return "CL_INVALID_ARG_SIZE";
        case CL_INVALID_KERNEL_ARGS: return "CL_INVALID_KERNEL_ARGS";
        case CL_INVALID_WORK_DIMENSION: return "CL_INVALID_WORK_DIMENSION";
        case CL_INVALID_WORK_GROUP_SIZE: return "CL_INVALID_WORK_GROUP_SIZE";
        case CL_INVALID_GLOBAL_WORK_SIZE: return "CL_INVALID_GLOBAL_WORK_SIZE";
        case -1001: return "CL_PLATFORM_NOT_FOUND_KHR";
        default: return "";
    }
}
*/
import "C"

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/born-ml/matmath/internal/gpu/driver"
)

// clPlatformNotFound is returned by the ICD loader when no vendor driver is installed.
const clPlatformNotFound = -1001

func init() {
	driver.Register(DriverName, func() (driver.Driver, error) {
		return &Driver{}, nil
	})
}

// check converts an OpenCL status code into an error.
func check(call string, code C.cl_int) error {
	if code == C.CL_SUCCESS {
		return nil
	}
	return &driver.Status{
		Call: call,
		Code: int(code),
		Name: C.GoString(C.matmath_cl_error_string(code)),
	}
}

// Driver is the OpenCL driver.
type Driver struct{}

// Name implements driver.Driver.
func (d *Driver) Name() string { return DriverName }

// Language implements driver.Driver.
func (d *Driver) Language() driver.Language { return driver.LanguageOpenCL }

type platform struct {
	id   C.cl_platform_id
	name string
}

func (p *platform) Name() string { return p.name }

type device struct {
	id    C.cl_device_id
	name  string
	class driver.DeviceClass
}

func (d *device) Name() string              { return d.name }
func (d *device) Class() driver.DeviceClass { return d.class }

// Platforms implements driver.Driver.
func (d *Driver) Platforms() ([]driver.Platform, error) {
	var n C.cl_uint
	code := C.clGetPlatformIDs(0, nil, &n)
	if code == clPlatformNotFound || n == 0 {
		return nil, nil
	}
	if err := check("clGetPlatformIDs", code); err != nil {
		return nil, err
	}

	ids := make([]C.cl_platform_id, n)
	if err := check("clGetPlatformIDs", C.clGetPlatformIDs(n, &ids[0], nil)); err != nil {
		return nil, err
	}

	out := make([]driver.Platform, len(ids))
	for i, id := range ids {
		out[i] = &platform{id: id, name: platformString(id, C.CL_PLATFORM_NAME)}
	}
	return out, nil
}

// Devices implements driver.Driver.
func (d *Driver) Devices(p driver.Platform, class driver.DeviceClass) ([]driver.Device, error) {
	cp, ok := p.(*platform)
	if !ok {
		return nil, driver.ErrInvalidArg
	}

	var typ C.cl_device_type
	switch class {
	case driver.DeviceGPU:
		typ = C.CL_DEVICE_TYPE_GPU
	case driver.DeviceCPU:
		typ = C.CL_DEVICE_TYPE_CPU
	default:
		typ = C.CL_DEVICE_TYPE_ALL
	}

	var n C.cl_uint
	code := C.clGetDeviceIDs(cp.id, typ, 0, nil, &n)
	if code == C.CL_DEVICE_NOT_FOUND || n == 0 {
		return nil, nil
	}
	if err := check("clGetDeviceIDs", code); err != nil {
		return nil, err
	}

	ids := make([]C.cl_device_id, n)
	if err := check("clGetDeviceIDs", C.clGetDeviceIDs(cp.id, typ, n, &ids[0], nil)); err != nil {
		return nil, err
	}

	out := make([]driver.Device, len(ids))
	for i, id := range ids {
		out[i] = &device{id: id, name: deviceString(id, C.CL_DEVICE_NAME), class: deviceClass(id)}
	}
	return out, nil
}

// CreateContext implements driver.Driver.
func (d *Driver) CreateContext(p driver.Platform, dev driver.Device) (driver.Context, error) {
	cd, ok := dev.(*device)
	if !ok {
		return nil, driver.ErrInvalidArg
	}

	var code C.cl_int
	ctx := C.clCreateContext(nil, 1, &cd.id, nil, nil, &code)
	if err := check("clCreateContext", code); err != nil {
		return nil, err
	}
	return &context{id: ctx, dev: cd}, nil
}

func platformString(id C.cl_platform_id, param C.cl_platform_info) string {
	var size C.size_t
	if C.clGetPlatformInfo(id, param, 0, nil, &size) != C.CL_SUCCESS || size == 0 {
		return ""
	}
	buf := make([]byte, size)
	if C.clGetPlatformInfo(id, param, size, unsafe.Pointer(&buf[0]), nil) != C.CL_SUCCESS {
		return ""
	}
	return strings.TrimRight(string(buf), "\x00")
}

func deviceString(id C.cl_device_id, param C.cl_device_info) string {
	var size C.size_t
	if C.clGetDeviceInfo(id, param, 0, nil, &size) != C.CL_SUCCESS || size == 0 {
		return ""
	}
	buf := make([]byte, size)
	if C.clGetDeviceInfo(id, param, size, unsafe.Pointer(&buf[0]), nil) != C.CL_SUCCESS {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(string(buf), "\x00"))
}

func deviceClass(id C.cl_device_id) driver.DeviceClass {
	var typ C.cl_device_type
	if C.clGetDeviceInfo(id, C.CL_DEVICE_TYPE, C.size_t(unsafe.Sizeof(typ)), unsafe.Pointer(&typ), nil) != C.CL_SUCCESS {
		return driver.DeviceAll
	}
	switch {
	case typ&C.CL_DEVICE_TYPE_GPU != 0:
		return driver.DeviceGPU
	case typ&C.CL_DEVICE_TYPE_CPU != 0:
		return driver.DeviceCPU
	default:
		return driver.DeviceAll
	}
}

type context struct {
	id  C.cl_context
	dev *device
}

func (c *context) CreateQueue() (driver.Queue, error) {
	var code C.cl_int
	q := C.clCreateCommandQueue(c.id, c.dev.id, 0, &code)
	if err := check("clCreateCommandQueue", code); err != nil {
		return nil, err
	}
	return &queue{id: q}, nil
}

func (c *context) BuildProgram(source string) (driver.Program, error) {
	src := C.CString(source)
	defer C.free(unsafe.Pointer(src))
	length := C.size_t(len(source))

	var code C.cl_int
	prog := C.clCreateProgramWithSource(c.id, 1, &src, &length, &code)
	if err := check("clCreateProgramWithSource", code); err != nil {
		return nil, err
	}

	code = C.clBuildProgram(prog, 1, &c.dev.id, nil, nil, nil)
	if code != C.CL_SUCCESS {
		log := buildLog(prog, c.dev.id)
		C.clReleaseProgram(prog)
		if code == C.CL_BUILD_PROGRAM_FAILURE {
			return nil, &driver.BuildError{Log: log}
		}
		return nil, fmt.Errorf("%w: %s", check("clBuildProgram", code), log)
	}
	return &program{id: prog}, nil
}

func buildLog(prog C.cl_program, dev C.cl_device_id) string {
	var size C.size_t
	if C.clGetProgramBuildInfo(prog, dev, C.CL_PROGRAM_BUILD_LOG, 0, nil, &size) != C.CL_SUCCESS || size == 0 {
		return ""
	}
	buf := make([]byte, size)
	if C.clGetProgramBuildInfo(prog, dev, C.CL_PROGRAM_BUILD_LOG, size, unsafe.Pointer(&buf[0]), nil) != C.CL_SUCCESS {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(string(buf), "\x00"))
}

func memFlags(flags driver.MemFlags) C.cl_mem_flags {
	var f C.cl_mem_flags
	switch {
	case flags&driver.MemReadOnly != 0:
		f |= C.CL_MEM_READ_ONLY
	case flags&driver.MemWriteOnly != 0:
		f |= C.CL_MEM_WRITE_ONLY
	default:
		f |= C.CL_MEM_READ_WRITE
	}
	if flags&driver.MemCopyHost != 0 {
		f |= C.CL_MEM_COPY_HOST_PTR
	}
	return f
}

func (c *context) CreateBuffer(flags driver.MemFlags, n int, host []float32) (driver.Buffer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: buffer size %d", driver.ErrInvalidArg, n)
	}
	var ptr unsafe.Pointer
	if flags&driver.MemCopyHost != 0 {
		if len(host) != n {
			return nil, fmt.Errorf("%w: host data has %d elements, buffer %d", driver.ErrInvalidArg, len(host), n)
		}
		ptr = unsafe.Pointer(&host[0])
	}

	var code C.cl_int
	mem := C.clCreateBuffer(c.id, memFlags(flags), C.size_t(n*4), ptr, &code)
	if err := check("clCreateBuffer", code); err != nil {
		return nil, err
	}
	return &buffer{id: mem, n: n}, nil
}

func (c *context) Release() error {
	if c.id == nil {
		return driver.ErrReleased
	}
	err := check("clReleaseContext", C.clReleaseContext(c.id))
	c.id = nil
	return err
}

type program struct {
	id C.cl_program
}

func (p *program) CreateKernel(name string) (driver.Kernel, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var code C.cl_int
	k := C.clCreateKernel(p.id, cname, &code)
	if code == C.CL_INVALID_KERNEL_NAME {
		return nil, fmt.Errorf("%w: %q", driver.ErrNoEntryPoint, name)
	}
	if err := check("clCreateKernel", code); err != nil {
		return nil, err
	}
	return &kernel{id: k, name: name}, nil
}

func (p *program) Release() error {
	if p.id == nil {
		return driver.ErrReleased
	}
	err := check("clReleaseProgram", C.clReleaseProgram(p.id))
	p.id = nil
	return err
}

type kernel struct {
	id   C.cl_kernel
	name string
}

func (k *kernel) Name() string { return k.name }

func (k *kernel) SetArgBuffer(index int, b driver.Buffer) error {
	cb, ok := b.(*buffer)
	if !ok || cb.id == nil {
		return fmt.Errorf("%w: argument %d of %s is not a live buffer", driver.ErrInvalidArg, index, k.name)
	}
	mem := cb.id
	return check("clSetKernelArg", C.clSetKernelArg(k.id, C.cl_uint(index), C.size_t(unsafe.Sizeof(mem)), unsafe.Pointer(&mem)))
}

func (k *kernel) SetArgUint32(index int, v uint32) error {
	val := C.cl_uint(v)
	return check("clSetKernelArg", C.clSetKernelArg(k.id, C.cl_uint(index), C.size_t(unsafe.Sizeof(val)), unsafe.Pointer(&val)))
}

func (k *kernel) Release() error {
	if k.id == nil {
		return driver.ErrReleased
	}
	err := check("clReleaseKernel", C.clReleaseKernel(k.id))
	k.id = nil
	return err
}

type buffer struct {
	id C.cl_mem
	n  int
}

func (b *buffer) Len() int { return b.n }

func (b *buffer) Release() error {
	if b.id == nil {
		return driver.ErrReleased
	}
	err := check("clReleaseMemObject", C.clReleaseMemObject(b.id))
	b.id = nil
	return err
}

type queue struct {
	id C.cl_command_queue
}

func (q *queue) Dispatch(k driver.Kernel, global ...int) error {
	ck, ok := k.(*kernel)
	if !ok {
		return driver.ErrInvalidArg
	}
	if len(global) == 0 || len(global) > 3 {
		return fmt.Errorf("%w: %d-D dispatch", driver.ErrInvalidArg, len(global))
	}
	sizes := make([]C.size_t, len(global))
	for i, g := range global {
		sizes[i] = C.size_t(g)
	}
	code := C.clEnqueueNDRangeKernel(q.id, ck.id, C.cl_uint(len(sizes)), nil, &sizes[0], nil, 0, nil, nil)
	return check("clEnqueueNDRangeKernel", code)
}

func (q *queue) WriteBuffer(b driver.Buffer, src []float32) error {
	cb, err := liveBuffer(b, len(src))
	if err != nil || len(src) == 0 {
		return err
	}
	code := C.clEnqueueWriteBuffer(q.id, cb.id, C.CL_TRUE, 0, C.size_t(len(src)*4), unsafe.Pointer(&src[0]), 0, nil, nil)
	return check("clEnqueueWriteBuffer", code)
}

func (q *queue) ReadBuffer(b driver.Buffer, dst []float32) error {
	cb, err := liveBuffer(b, len(dst))
	if err != nil || len(dst) == 0 {
		return err
	}
	code := C.clEnqueueReadBuffer(q.id, cb.id, C.CL_TRUE, 0, C.size_t(len(dst)*4), unsafe.Pointer(&dst[0]), 0, nil, nil)
	return check("clEnqueueReadBuffer", code)
}

func liveBuffer(b driver.Buffer, n int) (*buffer, error) {
	cb, ok := b.(*buffer)
	if !ok {
		return nil, driver.ErrInvalidArg
	}
	if cb.id == nil {
		return nil, driver.ErrReleased
	}
	if n > cb.n {
		return nil, fmt.Errorf("%w: transfer of %d elements, buffer holds %d", driver.ErrInvalidArg, n, cb.n)
	}
	return cb, nil
}

func (q *queue) Finish() error {
	return check("clFinish", C.clFinish(q.id))
}

func (q *queue) Release() error {
	if q.id == nil {
		return driver.ErrReleased
	}
	err := check("clReleaseCommandQueue", C.clReleaseCommandQueue(q.id))
	q.id = nil
	return err
}
