// Package parallel provides index-parallel execution for independent per-item work.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per chunk to avoid scheduling overhead.
}

// DefaultConfig returns defaults based on CPU count.
//
// Per-item work in this module is a handful of integer operations, so the
// chunk size is large: short inputs always run sequentially.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 256,
	}
}

// Sequential returns a Config that disables parallelism.
func Sequential() Config {
	return Config{}
}

// Chunk is a half-open index range [Start, End).
type Chunk struct {
	Start, End int
}

// Chunks splits [0, n) into contiguous ranges of at least MinChunkSize items,
// at most one per worker. Disabled configs yield a single chunk.
func Chunks(n int, cfg Config) []Chunk {
	if n <= 0 {
		return nil
	}
	workers := cfg.NumWorkers
	if !cfg.Enabled || workers < 2 || n < 2*max(cfg.MinChunkSize, 1) {
		return []Chunk{{Start: 0, End: n}}
	}

	size := max((n+workers-1)/workers, cfg.MinChunkSize, 1)
	chunks := make([]Chunk, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		chunks = append(chunks, Chunk{Start: start, End: min(start+size, n)})
	}
	return chunks
}

// For executes f(i) for i in [0, n), possibly on several goroutines.
//
// f must only write state owned by index i. Falls back to sequential
// execution when parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	chunks := Chunks(n, cfg)
	if len(chunks) <= 1 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var (
		wg   sync.WaitGroup
		next atomic.Int64
	)
	workers := min(cfg.NumWorkers, len(chunks))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				c := int(next.Add(1)) - 1
				if c >= len(chunks) {
					return
				}
				for i := chunks[c].Start; i < chunks[c].End; i++ {
					f(i)
				}
			}
		}()
	}
	wg.Wait()
}
