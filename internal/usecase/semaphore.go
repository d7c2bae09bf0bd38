package usecase

import (
	"context"
	"runtime"
	"sync"
)

// semaphore is a counting semaphore bounding concurrent clip work.
type semaphore struct {
	ch chan struct{}
}

func newSemaphore(capacity int) *semaphore {
	if capacity <= 0 {
		capacity = runtime.NumCPU()
	}
	return &semaphore{ch: make(chan struct{}, capacity)}
}

func (s *semaphore) acquire(ctx context.Context) error {
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *semaphore) release() {
	<-s.ch
}

// forEach runs fn for indices [0, n) with at most workers in flight and
// waits for all started calls. Indices not started before ctx ends are skipped.
func forEach(ctx context.Context, n, workers int, fn func(i int)) {
	sem := newSemaphore(workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		if err := sem.acquire(ctx); err != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.release()
			fn(i)
		}(i)
	}
	wg.Wait()
}
