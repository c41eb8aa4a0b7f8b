// Package pool runs independent index-addressed tasks on a bounded number of goroutines.
//
// Tasks must write only to outputs owned by their own index; the pool gives no
// ordering guarantee between tasks, so callers merge results afterwards in index order.
package pool

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool bounds the number of goroutines used by Run and RunRanges.
// A nil *Pool runs every task on the calling goroutine.
type Pool struct {
	workers int
}

// New creates a pool with the given number of workers; workers <= 0 uses runtime.NumCPU().
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{workers: workers}
}

// Workers returns the concurrency limit, 1 for a nil pool.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workers
}

// Run calls task(i) for every i in [0, n) and returns once all calls finished.
func (p *Pool) Run(n int, task func(i int)) {
	if p.Workers() == 1 || n <= 1 {
		for i := 0; i < n; i++ {
			task(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			task(i)
			return nil
		})
	}
	_ = g.Wait()
}

// RunRanges splits [0, n) into at most Workers() contiguous chunks and calls
// task(start, end) for each of them.
func (p *Pool) RunRanges(n int, task func(start, end int)) {
	if n <= 0 {
		return
	}
	workers := p.Workers()
	if workers > n {
		workers = n
	}
	if workers == 1 {
		task(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers
	chunks := (n + chunkSize - 1) / chunkSize
	p.Run(chunks, func(c int) {
		start := c * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		task(start, end)
	})
}
