package parallel

import (
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect runs For and returns the ranges it produced, sorted by start.
func collect(n int, cfg Config) [][2]int {
	var (
		mu     sync.Mutex
		ranges [][2]int
	)
	For(n, cfg, func(start, end int) {
		mu.Lock()
		ranges = append(ranges, [2]int{start, end})
		mu.Unlock()
	})
	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })
	return ranges
}

func TestForCoversRange(t *testing.T) {
	cfg := Config{Workers: 4, MinChunk: 8}
	var counter int64
	hits := make([]int32, 1000)
	For(len(hits), cfg, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
		atomic.AddInt64(&counter, 1)
	})
	for i, h := range hits {
		require.EqualValues(t, 1, h, "index %d", i)
	}
	assert.EqualValues(t, 4, counter)
}

func TestForChunks(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 250}, {250, 500}, {500, 750}, {750, 1000}},
		collect(1000, Config{Workers: 4, MinChunk: 8}))

	// MinChunk bounds the chunk size from below.
	assert.Equal(t, [][2]int{{0, 20}, {20, 40}, {40, 50}},
		collect(50, Config{Workers: 8, MinChunk: 20}))
}

func TestForInline(t *testing.T) {
	tests := []struct {
		name string
		n    int
		cfg  Config
	}{
		{"single worker", 1000, Config{Workers: 1, MinChunk: 1}},
		{"small range", 31, Config{Workers: 8, MinChunk: 16}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, [][2]int{{0, tt.n}}, collect(tt.n, tt.cfg))
		})
	}
}

func TestForEmpty(t *testing.T) {
	assert.Empty(t, collect(0, DefaultConfig()))
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	data := make([]float32, 1<<16)
	for b.Loop() {
		For(len(data), cfg, func(start, end int) {
			for i := start; i < end; i++ {
				data[i] = data[i]*0.5 + 1
			}
		})
	}
}
