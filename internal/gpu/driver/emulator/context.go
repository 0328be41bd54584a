package emulator

import (
	"fmt"

	"github.com/born-ml/matmath/internal/gpu/driver"
)

type deviceContext struct {
	drv      *Driver
	released bool
}

func (c *deviceContext) CreateQueue() (driver.Queue, error) {
	if c.released {
		return nil, driver.ErrReleased
	}
	if err := c.drv.fault(OpCreateQueue); err != nil {
		return nil, err
	}
	c.drv.count(func(s *Counters) { s.Queues++ })
	return &queue{drv: c.drv}, nil
}

func (c *deviceContext) BuildProgram(source string) (driver.Program, error) {
	if c.released {
		return nil, driver.ErrReleased
	}
	if err := c.drv.fault(OpBuildProgram); err != nil {
		return nil, err
	}
	entries, err := parseProgram(source, c.drv.lang)
	if err != nil {
		return nil, err
	}
	c.drv.count(func(s *Counters) { s.Programs++ })
	return &program{drv: c.drv, entries: entries}, nil
}

func (c *deviceContext) CreateBuffer(flags driver.MemFlags, n int, host []float32) (driver.Buffer, error) {
	if c.released {
		return nil, driver.ErrReleased
	}
	if err := c.drv.fault(OpCreateBuffer); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: buffer size %d", driver.ErrInvalidArg, n)
	}
	data := make([]float32, n)
	if flags&driver.MemCopyHost != 0 {
		if len(host) != n {
			return nil, fmt.Errorf("%w: host data has %d elements, buffer %d", driver.ErrInvalidArg, len(host), n)
		}
		copy(data, host)
	}
	c.drv.count(func(s *Counters) { s.Buffers++ })
	return &buffer{drv: c.drv, flags: flags, data: data}, nil
}

func (c *deviceContext) Release() error {
	if c.released {
		return driver.ErrReleased
	}
	if err := c.drv.fault(OpRelease); err != nil {
		return err
	}
	c.released = true
	c.drv.count(func(s *Counters) { s.ContextsReleased++ })
	return nil
}

type buffer struct {
	drv      *Driver
	flags    driver.MemFlags
	data     []float32
	released bool
}

func (b *buffer) Len() int { return len(b.data) }

func (b *buffer) Release() error {
	if b.released {
		return driver.ErrReleased
	}
	if err := b.drv.fault(OpRelease); err != nil {
		return err
	}
	b.released = true
	b.drv.count(func(s *Counters) { s.BuffersReleased++ })
	return nil
}

type queue struct {
	drv      *Driver
	released bool
}

func (q *queue) Dispatch(k driver.Kernel, global ...int) error {
	if q.released {
		return driver.ErrReleased
	}
	if err := q.drv.fault(OpDispatch); err != nil {
		return err
	}
	ek, ok := k.(*kernel)
	if !ok {
		return driver.ErrInvalidArg
	}
	if err := ek.run(global); err != nil {
		return err
	}
	q.drv.count(func(s *Counters) { s.Dispatches++ })
	return nil
}

func (q *queue) WriteBuffer(b driver.Buffer, src []float32) error {
	eb, err := q.buffer(b)
	if err != nil {
		return err
	}
	if err := q.drv.fault(OpWriteBuffer); err != nil {
		return err
	}
	if len(src) > len(eb.data) {
		return fmt.Errorf("%w: write of %d elements into buffer of %d", driver.ErrInvalidArg, len(src), len(eb.data))
	}
	copy(eb.data, src)
	q.drv.count(func(s *Counters) { s.Writes++ })
	return nil
}

func (q *queue) ReadBuffer(b driver.Buffer, dst []float32) error {
	eb, err := q.buffer(b)
	if err != nil {
		return err
	}
	if err := q.drv.fault(OpReadBuffer); err != nil {
		return err
	}
	if len(dst) > len(eb.data) {
		return fmt.Errorf("%w: read of %d elements from buffer of %d", driver.ErrInvalidArg, len(dst), len(eb.data))
	}
	copy(dst, eb.data)
	q.drv.count(func(s *Counters) { s.Reads++ })
	return nil
}

// buffer checks that the queue is live and b is a live emulator buffer.
func (q *queue) buffer(b driver.Buffer) (*buffer, error) {
	if q.released {
		return nil, driver.ErrReleased
	}
	eb, ok := b.(*buffer)
	if !ok {
		return nil, driver.ErrInvalidArg
	}
	if eb.released {
		return nil, driver.ErrReleased
	}
	return eb, nil
}

// Finish only counts: commands execute when enqueued.
func (q *queue) Finish() error {
	if q.released {
		return driver.ErrReleased
	}
	if err := q.drv.fault(OpFinish); err != nil {
		return err
	}
	q.drv.count(func(s *Counters) { s.Finishes++ })
	return nil
}

func (q *queue) Release() error {
	if q.released {
		return driver.ErrReleased
	}
	if err := q.drv.fault(OpRelease); err != nil {
		return err
	}
	q.released = true
	q.drv.count(func(s *Counters) { s.QueuesReleased++ })
	return nil
}
