package gpu

// MemoryStats describes device buffer usage of a Context.
type MemoryStats struct {
	// Bytes currently held in device buffers, pooled ones included
	TotalAllocatedBytes uint64
	// Highest value TotalAllocatedBytes has reached
	PeakMemoryBytes uint64
	// Number of live device buffers
	ActiveBuffers int64
	// Buffers created and released on the device
	Allocations uint64
	Releases    uint64
	// Buffer pool statistics (zero without WithBufferPool)
	PoolHits      uint64
	PoolMisses    uint64
	PooledBuffers int
}

type memoryStats struct {
	totalAllocatedBytes uint64
	peakMemoryBytes     uint64
	activeBuffers       int64
	allocations         uint64
	releases            uint64
}

// trackAllocation records a device buffer allocation of size bytes.
func (s *memoryStats) trackAllocation(size uint64) {
	s.totalAllocatedBytes += size
	s.activeBuffers++
	s.allocations++

	if s.totalAllocatedBytes > s.peakMemoryBytes {
		s.peakMemoryBytes = s.totalAllocatedBytes
	}
}

// trackRelease records a device buffer release of size bytes.
func (s *memoryStats) trackRelease(size uint64) {
	if s.totalAllocatedBytes >= size {
		s.totalAllocatedBytes -= size
	}
	s.activeBuffers--
	s.releases++
}

// Stats returns current device memory statistics.
func (c *Context) Stats() MemoryStats {
	st := MemoryStats{
		TotalAllocatedBytes: c.stats.totalAllocatedBytes,
		PeakMemoryBytes:     c.stats.peakMemoryBytes,
		ActiveBuffers:       c.stats.activeBuffers,
		Allocations:         c.stats.allocations,
		Releases:            c.stats.releases,
	}
	if c.pool != nil {
		st.PoolHits, st.PoolMisses, st.PooledBuffers = c.pool.statistics()
	}
	return st
}
