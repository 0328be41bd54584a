package gpu

import (
	"fmt"
	"math"

	"github.com/born-ml/matmath/internal/gpu/driver"
	"github.com/born-ml/matmath/internal/matrix"
)

const (
	inputFlags  = driver.MemReadOnly | driver.MemCopyHost
	outputFlags = driver.MemReadWrite
)

// launch describes one kernel dispatch: inputs are bound after the output
// buffer, scalars after the inputs.
type launch struct {
	kernel  KernelID
	inputs  []*matrix.Matrix
	scalars []int
	global  []int
	out     matrix.Shape
}

type allocation struct {
	buffer driver.Buffer
	n      int
	flags  driver.MemFlags
}

// run executes l and returns the result read back from the device. Every
// buffer it allocates is released before it returns. A release failure is
// reported only when the op itself succeeded.
func (c *Context) run(l launch) (result *matrix.Matrix, err error) {
	name := l.kernel.ScopedName()
	k, ok := c.Kernel(name)
	if !ok {
		return nil, &KernelNotLoadedError{Name: name}
	}

	scalars, err := uint32Args(l.scalars)
	if err != nil {
		return nil, fmt.Errorf("gpu: %s: %w", name, err)
	}

	var allocs []allocation
	defer func() {
		for _, a := range allocs {
			if rerr := c.releaseBuffer(a); rerr != nil {
				c.logger.Warn().Err(rerr).Str("kernel", name).Msg("gpu: buffer release failed")
				if err == nil {
					result, err = nil, fmt.Errorf("gpu: %s: release buffer: %w", name, rerr)
				}
			}
		}
	}()

	for _, in := range l.inputs {
		a, err := c.allocBuffer(inputFlags, in.Len(), in.Data())
		if err != nil {
			return nil, fmt.Errorf("gpu: %s: allocate input: %w", name, err)
		}
		allocs = append(allocs, a)
	}
	out, err := c.allocBuffer(outputFlags, l.out.NumElements(), nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: %s: allocate output: %w", name, err)
	}
	allocs = append(allocs, out)

	if err := k.SetArgBuffer(0, out.buffer); err != nil {
		return nil, fmt.Errorf("gpu: %s: bind output: %w", name, err)
	}
	for i, a := range allocs[:len(l.inputs)] {
		if err := k.SetArgBuffer(i+1, a.buffer); err != nil {
			return nil, fmt.Errorf("gpu: %s: bind input %d: %w", name, i, err)
		}
	}
	base := len(l.inputs) + 1
	for i, v := range scalars {
		if err := k.SetArgUint32(base+i, v); err != nil {
			return nil, fmt.Errorf("gpu: %s: bind argument %d: %w", name, base+i, err)
		}
	}

	if err := c.queue.Dispatch(k, l.global...); err != nil {
		return nil, fmt.Errorf("gpu: %s: dispatch %v: %w", name, l.global, err)
	}

	result = matrix.Zeros(l.out)
	if err := c.queue.ReadBuffer(out.buffer, result.Data()); err != nil {
		return nil, fmt.Errorf("gpu: %s: read result: %w", name, err)
	}
	return result, nil
}

// uint32Args converts kernel scalar arguments, which the kernels declare as
// 32-bit unsigned.
func uint32Args(vals []int) ([]uint32, error) {
	out := make([]uint32, len(vals))
	for i, v := range vals {
		if v < 0 || uint64(v) > math.MaxUint32 {
			return nil, fmt.Errorf("dimension %d does not fit in uint32", v)
		}
		out[i] = uint32(v)
	}
	return out, nil
}

// allocBuffer returns a buffer of n elements, from the pool when possible.
// With MemCopyHost the buffer holds host on return.
func (c *Context) allocBuffer(flags driver.MemFlags, n int, host []float32) (allocation, error) {
	if c.pool != nil {
		if b := c.pool.acquire(n, flags); b != nil {
			a := allocation{buffer: b, n: n, flags: flags}
			if flags&driver.MemCopyHost != 0 {
				if err := c.queue.WriteBuffer(b, host); err != nil {
					_ = c.destroyBuffer(a)
					return allocation{}, err
				}
			}
			return a, nil
		}
	}

	b, err := c.dctx.CreateBuffer(flags, n, host)
	if err != nil {
		return allocation{}, err
	}
	c.stats.trackAllocation(uint64(n) * 4)
	return allocation{buffer: b, n: n, flags: flags}, nil
}

// releaseBuffer returns a to the pool, or releases it on the device.
func (c *Context) releaseBuffer(a allocation) error {
	if c.pool != nil && c.pool.put(a.buffer, a.n, a.flags) {
		return nil
	}
	return c.destroyBuffer(a)
}

func (c *Context) destroyBuffer(a allocation) error {
	if err := a.buffer.Release(); err != nil {
		return err
	}
	c.stats.trackRelease(uint64(a.n) * 4)
	return nil
}
