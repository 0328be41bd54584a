//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/matmath/internal/gpu/driver"
)

func init() {
	driver.Register(DriverName, func() (driver.Driver, error) {
		return &Driver{}, nil
	})
}

// Driver is the WebGPU driver. It exposes one platform holding the
// high-performance adapter.
type Driver struct {
	once     sync.Once
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	info     wgpu.AdapterInfo
	err      error
}

// Name implements driver.Driver.
func (d *Driver) Name() string { return DriverName }

// Language implements driver.Driver.
func (d *Driver) Language() driver.Language { return driver.LanguageWGSL }

// open creates the instance and requests the adapter once.
func (d *Driver) open() error {
	d.once.Do(func() {
		// Recover from panic if wgpu_native library is not found.
		defer func() {
			if r := recover(); r != nil {
				d.err = fmt.Errorf("%w: webgpu native library: %v", driver.ErrUnavailable, r)
			}
		}()

		instance := wgpu.CreateInstance(nil)
		adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
			PowerPreference: wgpu.PowerPreferenceHighPerformance,
		})
		if err != nil {
			instance.Release()
			d.err = fmt.Errorf("%w: webgpu: request adapter: %w", driver.ErrUnavailable, err)
			return
		}
		d.instance, d.adapter, d.info = instance, adapter, adapter.GetInfo()
	})
	return d.err
}

type platform struct{}

func (platform) Name() string { return "WebGPU" }

type device struct {
	name string
}

func (d *device) Name() string              { return d.name }
func (d *device) Class() driver.DeviceClass { return driver.DeviceGPU }

// Platforms implements driver.Driver. A missing native library or adapter is
// reported as an error wrapping driver.ErrUnavailable.
func (d *Driver) Platforms() ([]driver.Platform, error) {
	if err := d.open(); err != nil {
		return nil, err
	}
	return []driver.Platform{platform{}}, nil
}

// Devices implements driver.Driver.
func (d *Driver) Devices(p driver.Platform, class driver.DeviceClass) ([]driver.Device, error) {
	if err := d.open(); err != nil {
		return nil, err
	}
	if class == driver.DeviceCPU {
		return nil, nil
	}
	name := d.info.Device
	if d.info.Vendor != "" {
		name = fmt.Sprintf("%s (%s)", d.info.Device, d.info.Vendor)
	}
	if name == "" {
		name = "WebGPU adapter"
	}
	return []driver.Device{&device{name: name}}, nil
}

// CreateContext implements driver.Driver.
func (d *Driver) CreateContext(p driver.Platform, dev driver.Device) (driver.Context, error) {
	if err := d.open(); err != nil {
		return nil, err
	}
	gpu, err := d.adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("webgpu: request device: %w", err)
	}
	return &context{device: gpu}, nil
}

type context struct {
	device *wgpu.Device
}

func (c *context) CreateQueue() (driver.Queue, error) {
	if c.device == nil {
		return nil, driver.ErrReleased
	}
	q := c.device.GetQueue()
	if q == nil {
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}
	return &queue{device: c.device, queue: q}, nil
}

func (c *context) BuildProgram(source string) (prog driver.Program, err error) {
	if c.device == nil {
		return nil, driver.ErrReleased
	}
	entries := driver.EntryPoints(source, driver.LanguageWGSL)

	defer func() {
		if r := recover(); r != nil {
			prog, err = nil, &driver.BuildError{Log: fmt.Sprint(r)}
		}
	}()
	shader := c.device.CreateShaderModuleWGSL(source)
	if shader == nil {
		return nil, &driver.BuildError{Log: "WGSL shader module creation failed"}
	}
	return &program{device: c.device, shader: shader, entries: entries}, nil
}

func (c *context) CreateBuffer(flags driver.MemFlags, n int, host []float32) (driver.Buffer, error) {
	if c.device == nil {
		return nil, driver.ErrReleased
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: buffer size %d", driver.ErrInvalidArg, n)
	}
	size := uint64(n) * 4
	usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

	if flags&driver.MemCopyHost == 0 {
		buf := c.device.CreateBuffer(&wgpu.BufferDescriptor{Usage: usage, Size: size})
		return &buffer{buf: buf, n: n}, nil
	}
	if len(host) != n {
		return nil, fmt.Errorf("%w: host data has %d elements, buffer %d", driver.ErrInvalidArg, len(host), n)
	}
	return &buffer{buf: createMapped(c.device, float32Bytes(host), usage), n: n}, nil
}

func (c *context) Release() error {
	if c.device == nil {
		return driver.ErrReleased
	}
	c.device.Release()
	c.device = nil
	return nil
}

// createMapped creates a buffer initialized with data through MappedAtCreation.
func createMapped(device *wgpu.Device, data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buf := device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buf.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(unsafe.Slice((*byte)(mappedPtr), size), data)
	buf.Unmap()
	return buf
}

func float32Bytes(data []float32) []byte {
	if len(data) == 0 {
		return nil
	}
	//nolint:gosec // reinterpret float32 slice as bytes, little-endian on every WebGPU target
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}

type program struct {
	device  *wgpu.Device
	shader  *wgpu.ShaderModule
	entries []string
}

func (p *program) CreateKernel(name string) (driver.Kernel, error) {
	if p.shader == nil {
		return nil, driver.ErrReleased
	}
	found := false
	for _, e := range p.entries {
		if e == name {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", driver.ErrNoEntryPoint, name)
	}

	// Create compute pipeline with auto layout (nil layout)
	pipeline := p.device.CreateComputePipelineSimple(nil, p.shader, name)
	if pipeline == nil {
		return nil, fmt.Errorf("webgpu: create pipeline for %q failed", name)
	}
	return &kernel{
		name:     name,
		pipeline: pipeline,
		buffers:  make(map[int]*buffer),
		scalars:  make(map[int]uint32),
	}, nil
}

func (p *program) Release() error {
	if p.shader == nil {
		return driver.ErrReleased
	}
	p.shader.Release()
	p.shader = nil
	return nil
}

type kernel struct {
	name     string
	pipeline *wgpu.ComputePipeline
	buffers  map[int]*buffer
	scalars  map[int]uint32
}

func (k *kernel) Name() string { return k.name }

func (k *kernel) SetArgBuffer(index int, b driver.Buffer) error {
	wb, ok := b.(*buffer)
	if !ok || wb.buf == nil {
		return fmt.Errorf("%w: argument %d of %s is not a live buffer", driver.ErrInvalidArg, index, k.name)
	}
	if index < 0 || index >= paramsBinding {
		return fmt.Errorf("%w: buffer argument %d of %s (bindings 0-%d)", driver.ErrInvalidArg, index, k.name, paramsBinding-1)
	}
	delete(k.scalars, index)
	k.buffers[index] = wb
	return nil
}

func (k *kernel) SetArgUint32(index int, v uint32) error {
	if index < 0 {
		return fmt.Errorf("%w: argument index %d", driver.ErrInvalidArg, index)
	}
	delete(k.buffers, index)
	k.scalars[index] = v
	return nil
}

// params packs the scalar arguments, in argument order, into the uniform block.
func (k *kernel) params() ([]byte, error) {
	indices := make([]int, 0, len(k.scalars))
	for i := range k.scalars {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	if len(indices) > paramsSize/4 {
		return nil, fmt.Errorf("%w: %s has %d scalar arguments, at most %d fit", driver.ErrInvalidArg, k.name, len(indices), paramsSize/4)
	}

	data := make([]byte, paramsSize)
	for slot, i := range indices {
		binary.LittleEndian.PutUint32(data[slot*4:], k.scalars[i])
	}
	return data, nil
}

func (k *kernel) Release() error {
	if k.pipeline == nil {
		return driver.ErrReleased
	}
	k.pipeline.Release()
	k.pipeline = nil
	k.buffers, k.scalars = nil, nil
	return nil
}

type buffer struct {
	buf *wgpu.Buffer
	n   int
}

func (b *buffer) Len() int { return b.n }

func (b *buffer) Release() error {
	if b.buf == nil {
		return driver.ErrReleased
	}
	b.buf.Release()
	b.buf = nil
	return nil
}

type queue struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	// Per-dispatch resources, released once the queue has drained.
	pendingBindGroups []*wgpu.BindGroup
	pendingBuffers    []*wgpu.Buffer
}

func (q *queue) Dispatch(k driver.Kernel, global ...int) error {
	wk, ok := k.(*kernel)
	if !ok || wk.pipeline == nil {
		return driver.ErrInvalidArg
	}
	if len(global) == 0 || len(global) > 2 {
		return fmt.Errorf("%w: %d-D dispatch", driver.ErrInvalidArg, len(global))
	}

	params, err := wk.params()
	if err != nil {
		return err
	}
	paramsBuf := createMapped(q.device, params, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)

	entries := make([]wgpu.BindGroupEntry, 0, len(wk.buffers)+1)
	for i, b := range wk.buffers {
		//nolint:gosec // G115: binding indices are below paramsBinding
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), b.buf, 0, uint64(b.n)*4))
	}
	entries = append(entries, wgpu.BufferBindingEntry(paramsBinding, paramsBuf, 0, paramsSize))

	// Get bind group layout and create bind group
	layout := wk.pipeline.GetBindGroupLayout(0)
	bindGroup := q.device.CreateBindGroupSimple(layout, entries)

	encoder := q.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(wk.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	x, y := workgroups(global)
	pass.DispatchWorkgroups(x, y, 1)
	pass.End()
	q.queue.Submit(encoder.Finish(nil))

	q.pendingBindGroups = append(q.pendingBindGroups, bindGroup)
	q.pendingBuffers = append(q.pendingBuffers, paramsBuf)
	return nil
}

func (q *queue) WriteBuffer(b driver.Buffer, src []float32) error {
	wb, err := liveBuffer(b, len(src))
	if err != nil || len(src) == 0 {
		return err
	}
	size := uint64(len(src)) * 4
	staging := createMapped(q.device, float32Bytes(src), wgpu.BufferUsageCopySrc)

	encoder := q.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(staging, 0, wb.buf, 0, size)
	q.queue.Submit(encoder.Finish(nil))

	q.pendingBuffers = append(q.pendingBuffers, staging)
	return nil
}

// ReadBuffer copies b to the host through a staging buffer, since storage
// buffers can't be mapped directly. Mapping waits for all submitted work.
func (q *queue) ReadBuffer(b driver.Buffer, dst []float32) error {
	wb, err := liveBuffer(b, len(dst))
	if err != nil || len(dst) == 0 {
		return err
	}
	size := uint64(len(dst)) * 4

	staging := q.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := q.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(wb.buf, 0, staging, 0, size)
	q.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(q.device, wgpu.MapModeRead, 0, size); err != nil {
		return fmt.Errorf("webgpu: map staging buffer: %w", err)
	}
	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(float32Bytes(dst), unsafe.Slice((*byte)(mappedPtr), size))
	staging.Unmap()

	q.releasePending()
	return nil
}

func liveBuffer(b driver.Buffer, n int) (*buffer, error) {
	wb, ok := b.(*buffer)
	if !ok {
		return nil, driver.ErrInvalidArg
	}
	if wb.buf == nil {
		return nil, driver.ErrReleased
	}
	if n > wb.n {
		return nil, fmt.Errorf("%w: transfer of %d elements, buffer holds %d", driver.ErrInvalidArg, n, wb.n)
	}
	return wb, nil
}

// Finish drops the per-dispatch resources. Reads already block until the
// queue is idle, so there is nothing to wait for.
func (q *queue) Finish() error {
	q.releasePending()
	return nil
}

func (q *queue) releasePending() {
	for _, bg := range q.pendingBindGroups {
		bg.Release()
	}
	for _, b := range q.pendingBuffers {
		b.Release()
	}
	q.pendingBindGroups = q.pendingBindGroups[:0]
	q.pendingBuffers = q.pendingBuffers[:0]
}

func (q *queue) Release() error {
	if q.queue == nil {
		return driver.ErrReleased
	}
	q.releasePending()
	q.queue.Release()
	q.queue = nil
	return nil
}
