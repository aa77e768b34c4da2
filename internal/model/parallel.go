package model

import (
	"runtime"
	"sync"
)

// fanOut runs fn for every index in [0, n) on a bounded worker pool and
// returns the per-index errors. Each invocation writes only to its own
// slot, so no synchronization beyond the final join is needed.
func fanOut(n int, fn func(i int) error) []error {
	errs := make([]error, n)

	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			errs[i] = fn(i)
		}
		return errs
	}

	idx := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range idx {
				errs[i] = fn(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		idx <- i
	}
	close(idx)
	wg.Wait()

	return errs
}
