// Package parallel splits index ranges across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how For splits its range.
type Config struct {
	Workers  int // Goroutines to use; 1 or less runs inline.
	MinChunk int // Smallest range handed to one goroutine.
}

// DefaultConfig uses one worker per CPU.
func DefaultConfig() Config {
	return Config{
		Workers:  runtime.NumCPU(),
		MinChunk: 16,
	}
}

// For calls f on disjoint half-open ranges covering [0, n) and returns when
// all calls are done. Ranges shorter than 2*MinChunk are run inline.
func For(n int, cfg Config, f func(start, end int)) {
	if n <= 0 {
		return
	}
	if cfg.Workers <= 1 || n < 2*cfg.MinChunk {
		f(0, n)
		return
	}

	chunk := max((n+cfg.Workers-1)/cfg.Workers, cfg.MinChunk)
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			f(start, end)
		}()
	}
	wg.Wait()
}
