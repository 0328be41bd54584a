package gpu

import (
	"github.com/rs/zerolog"

	"github.com/born-ml/matmath/internal/gpu/driver"
)

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// WithChooser sets the selector used by Initialize(false).
func WithChooser(ch Chooser) Option {
	return func(c *Context) {
		c.chooser = ch
	}
}

// WithDeviceClass restricts device selection to class. The default is driver.DeviceGPU.
func WithDeviceClass(class driver.DeviceClass) Option {
	return func(c *Context) {
		c.class = class
	}
}

// WithBufferPool makes device ops reuse buffers of identical size and flags
// instead of releasing them after each call. Pooled buffers are released by Close.
func WithBufferPool() Option {
	return func(c *Context) {
		c.pool = newBufferPool()
	}
}
