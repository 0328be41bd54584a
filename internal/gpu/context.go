// Package gpu runs matrix operations on a compute device.
//
// A Context owns one platform, device, compute context and command queue of a
// driver.Driver, plus the programs built on it and a registry of kernels keyed
// by scoped name ("Matrices::relu"). Device ops look kernels up by KernelID,
// allocate buffers per call, dispatch, read the result back and release.
//
// Typical use:
//
//	drv, _ := driver.Open("opencl")
//	c := gpu.New(drv)
//	defer c.Close()
//	if err := c.Initialize(true); err != nil { ... }
//	src, _ := kernels.SourceFor(kernels.Embedded(), drv.Language())
//	if _, err := gpu.LoadMatrixKernels(ctx, c, src); err != nil { ... }
//	out, err := c.Multiply(a, b)
//
// A Context is not safe for concurrent use.
package gpu

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/born-ml/matmath/internal/gpu/driver"
)

// Context is a device compute context with its program and kernel registry.
type Context struct {
	drv     driver.Driver
	logger  zerolog.Logger
	chooser Chooser
	class   driver.DeviceClass

	platform driver.Platform
	device   driver.Device
	dctx     driver.Context
	queue    driver.Queue

	programs    []driver.Program
	kernels     map[string]driver.Kernel
	order       []string // registration order, released in reverse
	initialized bool

	stats memoryStats
	pool  *bufferPool
}

// New creates an uninitialized context on drv.
func New(drv driver.Driver, opts ...Option) *Context {
	c := &Context{
		drv:     drv,
		logger:  zerolog.Nop(),
		class:   driver.DeviceGPU,
		kernels: make(map[string]driver.Kernel),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize selects a platform and a device, then creates the compute
// context and command queue. With autoSelect the first platform and first
// device are taken; otherwise the configured Chooser decides.
//
// Calling Initialize again replaces the handles without releasing the old
// ones; call Close first.
func (c *Context) Initialize(autoSelect bool) error {
	if c.initialized {
		c.logger.Warn().
			Str("platform", c.platform.Name()).
			Str("device", c.device.Name()).
			Msg("gpu: re-initializing; previous context and queue are not released")
	}

	platforms, err := c.drv.Platforms()
	if err != nil {
		return fmt.Errorf("gpu: list platforms: %w", err)
	}
	if len(platforms) == 0 {
		return fmt.Errorf("%w (driver %s)", ErrNoPlatform, c.drv.Name())
	}
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = p.Name()
	}
	pi, err := c.choose(KindPlatform, names, autoSelect)
	if err != nil {
		return err
	}
	platform := platforms[pi]

	devices, err := c.drv.Devices(platform, c.class)
	if err != nil {
		return fmt.Errorf("gpu: list devices of %q: %w", platform.Name(), err)
	}
	if len(devices) == 0 {
		return fmt.Errorf("%w: platform %q has no %s devices", ErrNoDevice, platform.Name(), c.class)
	}
	names = make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.Name()
	}
	di, err := c.choose(KindDevice, names, autoSelect)
	if err != nil {
		return err
	}
	device := devices[di]

	dctx, err := c.drv.CreateContext(platform, device)
	if err != nil {
		return fmt.Errorf("gpu: create context on %q: %w", device.Name(), err)
	}
	queue, err := dctx.CreateQueue()
	if err != nil {
		if rerr := dctx.Release(); rerr != nil {
			c.logger.Warn().Err(rerr).Msg("gpu: release context after queue failure")
		}
		return fmt.Errorf("gpu: create queue on %q: %w", device.Name(), err)
	}

	c.platform, c.device, c.dctx, c.queue = platform, device, dctx, queue
	c.initialized = true

	event := c.logger.Info()
	if autoSelect {
		event = event.Bool("auto", true)
	}
	event.Str("driver", c.drv.Name()).
		Str("platform", platform.Name()).
		Str("device", device.Name()).
		Msg("gpu: selected device")
	return nil
}

// choose picks an index in names, either the first one or through the Chooser.
func (c *Context) choose(kind string, names []string, autoSelect bool) (int, error) {
	if autoSelect {
		return Choose(names, First)
	}
	if c.chooser == nil {
		return -1, ErrNoChooser
	}
	i, err := c.chooser.Choose(kind, names)
	if err != nil {
		return -1, fmt.Errorf("gpu: choose %s: %w", kind, err)
	}
	if i < 0 || i >= len(names) {
		return -1, fmt.Errorf("%w: %s %d of %d", ErrInvalidSelection, kind, i, len(names))
	}
	return i, nil
}

// IsInitialized reports whether Initialize succeeded and Close has not been called since.
func (c *Context) IsInitialized() bool {
	return c.initialized
}

// Name returns "platform / device", or the driver name before Initialize.
func (c *Context) Name() string {
	if !c.initialized {
		return c.drv.Name()
	}
	return c.platform.Name() + " / " + c.device.Name()
}

// Driver returns the driver the context was created on.
func (c *Context) Driver() driver.Driver {
	return c.drv
}

// LoadProgram compiles source and returns its program id.
func (c *Context) LoadProgram(source string) (int, error) {
	if !c.initialized {
		return -1, ErrNotInitialized
	}
	prog, err := c.dctx.BuildProgram(source)
	if err != nil {
		var be *driver.BuildError
		if errors.As(err, &be) {
			return -1, &CompileError{Diagnostic: be.Log, Err: err}
		}
		return -1, fmt.Errorf("gpu: build program: %w", err)
	}
	c.programs = append(c.programs, prog)
	id := len(c.programs) - 1
	c.logger.Debug().Int("program", id).Int("bytes", len(source)).Msg("gpu: program built")
	return id, nil
}

// LoadKernel resolves entry point name in program programID and registers it
// as "scope::name". It returns false without error if programID does not
// exist.
func (c *Context) LoadKernel(programID int, scope, name string) (bool, error) {
	if !c.initialized {
		return false, ErrNotInitialized
	}
	if programID < 0 || programID >= len(c.programs) {
		return false, nil
	}
	scoped := ScopedName(scope, name)
	if _, dup := c.kernels[scoped]; dup {
		return false, &DuplicateKernelError{Name: scoped}
	}
	k, err := c.programs[programID].CreateKernel(name)
	if err != nil {
		return false, fmt.Errorf("gpu: create kernel %s: %w", scoped, err)
	}
	c.kernels[scoped] = k
	c.order = append(c.order, scoped)
	c.logger.Debug().Int("program", programID).Str("kernel", scoped).Msg("gpu: kernel registered")
	return true, nil
}

// Kernel looks up a registered kernel by scoped name.
func (c *Context) Kernel(scopedName string) (driver.Kernel, bool) {
	k, ok := c.kernels[scopedName]
	return k, ok
}

// IsCompatible reports whether the context is initialized and every matrix
// kernel is registered.
func (c *Context) IsCompatible() bool {
	if !c.initialized {
		return false
	}
	for _, id := range Kernels() {
		if _, ok := c.kernels[id.ScopedName()]; !ok {
			return false
		}
	}
	return true
}

// IsCompatible reports whether c can run every device op. A nil context is not compatible.
func IsCompatible(c *Context) bool {
	return c != nil && c.IsCompatible()
}

// Close waits for the queue to drain, then releases pooled buffers, kernels,
// programs, the queue and the compute context, in that order, and returns the
// context to its uninitialized state. Failures do not stop the teardown; they
// are joined into the returned error. Close is
// safe to call more than once and on a partially initialized context.
func (c *Context) Close() error {
	var errs []error

	if c.queue != nil {
		if err := c.queue.Finish(); err != nil {
			errs = append(errs, fmt.Errorf("gpu: finish queue: %w", err))
		}
	}
	if c.pool != nil {
		errs = append(errs, c.pool.clear(&c.stats)...)
	}

	for i := len(c.order) - 1; i >= 0; i-- {
		name := c.order[i]
		if k := c.kernels[name]; k != nil {
			if err := k.Release(); err != nil {
				errs = append(errs, fmt.Errorf("gpu: release kernel %s: %w", name, err))
			}
		}
	}
	for i := len(c.programs) - 1; i >= 0; i-- {
		if err := c.programs[i].Release(); err != nil {
			errs = append(errs, fmt.Errorf("gpu: release program %d: %w", i, err))
		}
	}
	if c.queue != nil {
		if err := c.queue.Release(); err != nil {
			errs = append(errs, fmt.Errorf("gpu: release queue: %w", err))
		}
	}
	if c.dctx != nil {
		if err := c.dctx.Release(); err != nil {
			errs = append(errs, fmt.Errorf("gpu: release context: %w", err))
		}
	}

	released := len(c.order)
	c.kernels = make(map[string]driver.Kernel)
	c.order = nil
	c.programs = nil
	c.queue = nil
	c.dctx = nil
	c.platform = nil
	c.device = nil
	c.initialized = false

	if released > 0 || len(errs) > 0 {
		c.logger.Debug().Int("kernels", released).Int("errors", len(errs)).Msg("gpu: context closed")
	}
	return errors.Join(errs...)
}
