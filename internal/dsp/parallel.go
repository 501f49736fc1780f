package dsp

import (
	"runtime"
	"sync"
)

// blockSize is the number of output samples handed to a worker at a time.
// It is a constant, not a function of the worker count, so partitioning is
// identical however many goroutines end up running.
const blockSize = 1 << 15

// parallelBlocks runs fn over [0, n) in fixed-size blocks using up to
// GOMAXPROCS workers. fn must only write indices inside its own block.
func parallelBlocks(n int, fn func(lo, hi int)) {
	if n <= blockSize {
		fn(0, n)
		return
	}

	workers := runtime.GOMAXPROCS(0)
	blocks := make(chan int)
	var wg sync.WaitGroup

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for lo := range blocks {
				hi := lo + blockSize
				if hi > n {
					hi = n
				}
				fn(lo, hi)
			}
		}()
	}

	for lo := 0; lo < n; lo += blockSize {
		blocks <- lo
	}
	close(blocks)
	wg.Wait()
}
