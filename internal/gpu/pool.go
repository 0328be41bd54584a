package gpu

import (
	"fmt"

	"github.com/born-ml/matmath/internal/gpu/driver"
)

// bufferClass is the size category of a pooled buffer.
type bufferClass int

const (
	smallBuffer  bufferClass = iota // < 4KB
	mediumBuffer                    // 4KB - 1MB
	largeBuffer                     // >= 1MB
	numBufferClasses
)

const (
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
	maxPoolSize     = 100         // Max buffers per category
)

type pooledBuffer struct {
	buffer driver.Buffer
	n      int // float32 elements
	flags  driver.MemFlags
}

// bufferPool keeps released device buffers for reuse by later ops.
// Only buffers of exactly the requested length and flags are reused.
type bufferPool struct {
	pools [numBufferClasses][]*pooledBuffer

	hits   uint64
	misses uint64
}

func newBufferPool() *bufferPool {
	p := &bufferPool{}
	for i := range p.pools {
		p.pools[i] = make([]*pooledBuffer, 0, maxPoolSize)
	}
	return p
}

// categorize determines the size category for a buffer of n elements.
func categorize(n int) bufferClass {
	size := n * 4
	if size < smallThreshold {
		return smallBuffer
	}
	if size < mediumThreshold {
		return mediumBuffer
	}
	return largeBuffer
}

// acquire removes and returns a pooled buffer matching n and flags, or nil.
func (p *bufferPool) acquire(n int, flags driver.MemFlags) driver.Buffer {
	class := categorize(n)
	pool := p.pools[class]
	for i, pb := range pool {
		if pb.n == n && pb.flags == flags {
			p.pools[class] = append(pool[:i], pool[i+1:]...)
			p.hits++
			return pb.buffer
		}
	}
	p.misses++
	return nil
}

// put returns b to the pool. It reports false if the category is full, in
// which case the caller releases b.
func (p *bufferPool) put(b driver.Buffer, n int, flags driver.MemFlags) bool {
	class := categorize(n)
	if len(p.pools[class]) >= maxPoolSize {
		return false
	}
	p.pools[class] = append(p.pools[class], &pooledBuffer{buffer: b, n: n, flags: flags})
	return true
}

// clear releases every pooled buffer.
func (p *bufferPool) clear(stats *memoryStats) []error {
	var errs []error
	for class := range p.pools {
		for _, pb := range p.pools[class] {
			if err := pb.buffer.Release(); err != nil {
				errs = append(errs, fmt.Errorf("gpu: release pooled buffer: %w", err))
				continue
			}
			stats.trackRelease(uint64(pb.n) * 4)
		}
		p.pools[class] = p.pools[class][:0]
	}
	return errs
}

func (p *bufferPool) statistics() (hits, misses uint64, pooled int) {
	for _, pool := range p.pools {
		pooled += len(pool)
	}
	return p.hits, p.misses, pooled
}
