package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/born-ml/matmath/internal/gpu"
	"github.com/born-ml/matmath/internal/gpu/driver"
	"github.com/born-ml/matmath/internal/kernels"

	_ "github.com/born-ml/matmath/internal/gpu/driver/emulator"
	_ "github.com/born-ml/matmath/internal/gpu/driver/opencl"
	_ "github.com/born-ml/matmath/internal/gpu/driver/webgpu"
)

// driverAuto tries autoOrder and keeps the first driver with a usable device.
const driverAuto = "auto"

var autoOrder = []string{"opencl", "webgpu", "emulator"}

// config holds the settings shared by all commands. Every flag falls back to
// a MATMATH_* environment variable.
type config struct {
	driver      string
	platform    string
	device      string
	class       string
	kernels     string
	logLevel    string
	interactive bool
	pool        bool
}

func (c *config) bindFlags(f *pflag.FlagSet) {
	f.StringVar(&c.driver, "driver", envOr("MATMATH_DRIVER", driverAuto),
		"device driver: auto, opencl, webgpu or emulator [MATMATH_DRIVER]")
	f.StringVar(&c.platform, "platform", envOr("MATMATH_PLATFORM", ""),
		"select the first platform whose name contains this [MATMATH_PLATFORM]")
	f.StringVar(&c.device, "device", envOr("MATMATH_DEVICE", ""),
		"select the first device whose name contains this [MATMATH_DEVICE]")
	f.StringVar(&c.class, "class", envOr("MATMATH_DEVICE_CLASS", "gpu"),
		"device class: gpu, cpu or all [MATMATH_DEVICE_CLASS]")
	f.StringVar(&c.kernels, "kernels", envOr("MATMATH_KERNELS", ""),
		"load kernel sources from this directory instead of the built-in ones [MATMATH_KERNELS]")
	f.StringVar(&c.logLevel, "log-level", envOr("MATMATH_LOG_LEVEL", "info"),
		"log level: debug, info, warn, error or disabled [MATMATH_LOG_LEVEL]")
	f.BoolVarP(&c.interactive, "interactive", "i", envBool("MATMATH_INTERACTIVE", false),
		"choose the platform and device from a numbered prompt [MATMATH_INTERACTIVE]")
	f.BoolVar(&c.pool, "pool", envBool("MATMATH_POOL", false),
		"reuse device buffers between operations [MATMATH_POOL]")
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// logger builds a console logger writing to w.
func (c *config) logger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(c.logLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", c.logLevel, err)
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// drivers returns the driver names to try in order.
func (c *config) drivers() []string {
	if c.driver == driverAuto {
		return autoOrder
	}
	return []string{c.driver}
}

// chooser returns the selector for Initialize and whether auto-selection applies.
func (c *config) chooser(in io.Reader, out io.Writer) (gpu.Chooser, bool) {
	if c.interactive {
		return newPromptChooser(in, out), false
	}
	if c.platform == "" && c.device == "" {
		return nil, true
	}
	var ch gpu.CriterionChooser
	if c.platform != "" {
		ch.Platform = gpu.NameContains(c.platform)
	}
	if c.device != "" {
		ch.Device = gpu.NameContains(c.device)
	}
	return ch, false
}

func (c *config) source(lang driver.Language) (string, error) {
	r := kernels.Embedded()
	if c.kernels != "" {
		r = kernels.Dir(c.kernels)
	}
	return kernels.SourceFor(r, lang)
}

// skippable reports whether auto mode should move on to the next driver.
func skippable(err error) bool {
	return errors.Is(err, driver.ErrUnavailable) ||
		errors.Is(err, gpu.ErrNoPlatform) ||
		errors.Is(err, gpu.ErrNoDevice)
}

// openDevice initializes a device context and loads the matrix kernels.
func openDevice(ctx context.Context, cfg *config, logger zerolog.Logger, in io.Reader, out io.Writer) (*gpu.Context, error) {
	class, err := driver.ParseDeviceClass(cfg.class)
	if err != nil {
		return nil, err
	}
	chooser, auto := cfg.chooser(in, out)

	var errs []error
	for _, name := range cfg.drivers() {
		c, err := openOn(ctx, cfg, name, class, chooser, auto, logger)
		if err == nil {
			return c, nil
		}
		if cfg.driver != driverAuto || !skippable(err) {
			return nil, err
		}
		logger.Debug().Err(err).Str("driver", name).Msg("driver skipped")
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("no usable device: %w", errors.Join(errs...))
}

func openOn(ctx context.Context, cfg *config, name string, class driver.DeviceClass,
	chooser gpu.Chooser, auto bool, logger zerolog.Logger) (*gpu.Context, error) {
	drv, err := driver.Open(name)
	if err != nil {
		return nil, err
	}
	src, err := cfg.source(drv.Language())
	if err != nil {
		return nil, err
	}

	opts := []gpu.Option{gpu.WithLogger(logger), gpu.WithDeviceClass(class)}
	if chooser != nil {
		opts = append(opts, gpu.WithChooser(chooser))
	}
	if cfg.pool {
		opts = append(opts, gpu.WithBufferPool())
	}
	c := gpu.New(drv, opts...)
	if err := c.Initialize(auto); err != nil {
		return nil, errors.Join(err, c.Close())
	}
	if _, err := gpu.LoadMatrixKernels(ctx, c, src); err != nil {
		return nil, errors.Join(err, c.Close())
	}
	return c, nil
}

// newPromptChooser reads numbered choices from in.
func newPromptChooser(in io.Reader, out io.Writer) *promptChooser {
	return &promptChooser{in: bufio.NewScanner(in), out: out}
}
