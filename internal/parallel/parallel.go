// Package parallel provides deterministic data-parallel loops for the
// CPU kernels. Work is partitioned by output index, so every result
// element is written by exactly one goroutine and the outcome is
// bitwise identical to the sequential loop.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls intra-kernel parallelism.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum iterations per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// For executes f(i) for i in [0, n), partitioned across workers when
// enabled and n is large enough, sequentially otherwise.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForBatch iterates the batch x rows product, the common partitioning
// for batched matrix kernels.
func ForBatch(batch, rows int, f func(b, i int), cfg Config) {
	n := batch * rows
	For(n, func(k int) {
		f(k/rows, k%rows)
	}, cfg)
}
