// Package emulator implements driver.Driver in pure Go.
//
// The emulator accepts the same program text as the real drivers (OpenCL C or
// WGSL, chosen with WithLanguage), resolves entry points by name, and runs the
// known matrix kernels one work-item at a time on host memory. It counts every
// object it creates and releases, and can be told to fail any call, which makes
// it the reference device for tests of the gpu package.
package emulator

import (
	"sync"

	"github.com/born-ml/matmath/internal/gpu/driver"
)

// DriverName is the name the emulator registers under.
const DriverName = "emulator"

func init() {
	driver.Register(DriverName, func() (driver.Driver, error) {
		return New(), nil
	})
}

// Op names a driver call for fault injection.
type Op string

// Injectable calls.
const (
	OpPlatforms     Op = "Platforms"
	OpDevices       Op = "Devices"
	OpCreateContext Op = "CreateContext"
	OpCreateQueue   Op = "CreateQueue"
	OpBuildProgram  Op = "BuildProgram"
	OpCreateKernel  Op = "CreateKernel"
	OpCreateBuffer  Op = "CreateBuffer"
	OpSetArg        Op = "SetArg"
	OpDispatch      Op = "Dispatch"
	OpWriteBuffer   Op = "WriteBuffer"
	OpReadBuffer    Op = "ReadBuffer"
	OpFinish        Op = "Finish"
	OpRelease       Op = "Release"
)

// DeviceSpec describes an emulated device.
type DeviceSpec struct {
	Name  string
	Class driver.DeviceClass
}

// PlatformSpec describes an emulated platform and its devices.
type PlatformSpec struct {
	Name    string
	Devices []DeviceSpec
}

// DefaultPlatforms is the topology used when WithPlatforms is not given.
var DefaultPlatforms = []PlatformSpec{
	{
		Name: "Emulator Platform",
		Devices: []DeviceSpec{
			{Name: "Emulated GPU", Class: driver.DeviceGPU},
			{Name: "Emulated CPU", Class: driver.DeviceCPU},
		},
	},
}

// Counters reports how many objects of each kind were created and released.
type Counters struct {
	Contexts, ContextsReleased int
	Queues, QueuesReleased     int
	Programs, ProgramsReleased int
	Kernels, KernelsReleased   int
	Buffers, BuffersReleased   int
	Dispatches                 int
	Writes, Reads              int
	Finishes                   int
}

// LiveBuffers returns the number of buffers created and not yet released.
func (c Counters) LiveBuffers() int {
	return c.Buffers - c.BuffersReleased
}

// Leaked reports whether any object was created and never released.
func (c Counters) Leaked() bool {
	return c.Contexts != c.ContextsReleased ||
		c.Queues != c.QueuesReleased ||
		c.Programs != c.ProgramsReleased ||
		c.Kernels != c.KernelsReleased ||
		c.Buffers != c.BuffersReleased
}

// Option configures a Driver.
type Option func(*Driver)

// WithPlatforms replaces the emulated topology.
func WithPlatforms(platforms ...PlatformSpec) Option {
	return func(d *Driver) {
		d.platforms = platforms
	}
}

// WithLanguage sets the program dialect the emulator parses. Default is OpenCL C.
func WithLanguage(lang driver.Language) Option {
	return func(d *Driver) {
		d.lang = lang
	}
}

// Driver is the emulated device API.
type Driver struct {
	platforms []PlatformSpec
	lang      driver.Language

	mu       sync.Mutex
	counters Counters
	faults   map[Op]error
}

// New creates an emulator driver.
func New(opts ...Option) *Driver {
	d := &Driver{
		platforms: DefaultPlatforms,
		lang:      driver.LanguageOpenCL,
		faults:    make(map[Op]error),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements driver.Driver.
func (d *Driver) Name() string { return DriverName }

// Language implements driver.Driver.
func (d *Driver) Language() driver.Language { return d.lang }

// FailOn makes every subsequent call of op return err until ClearFaults.
func (d *Driver) FailOn(op Op, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faults[op] = err
}

// ClearFaults removes all injected faults.
func (d *Driver) ClearFaults() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.faults)
}

// Counters returns a snapshot of the object counters.
func (d *Driver) Counters() Counters {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counters
}

// fault returns the error injected for op, if any.
func (d *Driver) fault(op Op) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.faults[op]
}

// count applies fn to the counters under the lock.
func (d *Driver) count(fn func(c *Counters)) {
	d.mu.Lock()
	fn(&d.counters)
	d.mu.Unlock()
}

type platform struct {
	info PlatformSpec
}

func (p *platform) Name() string { return p.info.Name }

type device struct {
	info DeviceSpec
}

func (d *device) Name() string              { return d.info.Name }
func (d *device) Class() driver.DeviceClass { return d.info.Class }

// Platforms implements driver.Driver.
func (d *Driver) Platforms() ([]driver.Platform, error) {
	if err := d.fault(OpPlatforms); err != nil {
		return nil, err
	}
	out := make([]driver.Platform, len(d.platforms))
	for i, info := range d.platforms {
		out[i] = &platform{info: info}
	}
	return out, nil
}

// Devices implements driver.Driver.
func (d *Driver) Devices(p driver.Platform, class driver.DeviceClass) ([]driver.Device, error) {
	if err := d.fault(OpDevices); err != nil {
		return nil, err
	}
	ep, ok := p.(*platform)
	if !ok {
		return nil, driver.ErrInvalidArg
	}
	var out []driver.Device
	for _, info := range ep.info.Devices {
		if class == driver.DeviceAll || info.Class == class {
			out = append(out, &device{info: info})
		}
	}
	return out, nil
}

// CreateContext implements driver.Driver.
func (d *Driver) CreateContext(p driver.Platform, dev driver.Device) (driver.Context, error) {
	if err := d.fault(OpCreateContext); err != nil {
		return nil, err
	}
	if _, ok := p.(*platform); !ok {
		return nil, driver.ErrInvalidArg
	}
	if _, ok := dev.(*device); !ok {
		return nil, driver.ErrInvalidArg
	}
	d.count(func(s *Counters) { s.Contexts++ })
	return &deviceContext{drv: d}, nil
}
