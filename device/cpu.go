package device

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// workerPool is a fixed pool of goroutines executing work closures.
// A persistent pool keeps per-cycle dispatch free of goroutine spawns,
// which matters under a realtime decode budget.
type workerPool struct {
	workCh   chan func()
	stopCh   chan struct{}
	wg       sync.WaitGroup
	closed   atomic.Bool
	submitMu sync.RWMutex
}

func newWorkerPool(numWorkers int) *workerPool {
	wp := &workerPool{
		workCh: make(chan func(), numWorkers*2),
		stopCh: make(chan struct{}),
	}
	wp.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go wp.worker()
	}
	return wp
}

func (wp *workerPool) worker() {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.stopCh:
			// Drain remaining work before exiting.
			for {
				select {
				case work, ok := <-wp.workCh:
					if !ok {
						return
					}
					work()
				default:
					return
				}
			}
		case work, ok := <-wp.workCh:
			if !ok {
				return
			}
			work()
		}
	}
}

func (wp *workerPool) submit(ctx context.Context, task func()) error {
	wp.submitMu.RLock()
	defer wp.submitMu.RUnlock()

	if wp.closed.Load() {
		return ErrClosed
	}
	select {
	case wp.workCh <- task:
		return nil
	case <-wp.stopCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (wp *workerPool) close() {
	if !wp.closed.CompareAndSwap(false, true) {
		return
	}
	wp.submitMu.Lock()
	close(wp.stopCh)
	close(wp.workCh)
	wp.submitMu.Unlock()
	wp.wg.Wait()
}

type cpuDevice struct {
	pool    *workerPool
	workers int
}

// CPU returns a Device backed by a fixed pool of worker goroutines.
// If workers <= 0, GOMAXPROCS is used.
func CPU(workers int) Device {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &cpuDevice{
		pool:    newWorkerPool(workers),
		workers: workers,
	}
}

func (d *cpuDevice) Info() Info {
	return Info{Name: "cpu", Kind: "cpu", Workers: d.workers}
}

func (d *cpuDevice) RunBatch(ctx context.Context, n int, task func(i int) error) error {
	if n <= 0 {
		return nil
	}

	var (
		wg       sync.WaitGroup
		firstErr atomic.Pointer[error]
	)
	record := func(err error) {
		if err == nil {
			return
		}
		firstErr.CompareAndSwap(nil, &err)
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			record(err)
			break
		}
		i := i
		wg.Add(1)
		err := d.pool.submit(ctx, func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			record(task(i))
		})
		if err != nil {
			wg.Done()
			record(err)
			break
		}
	}
	wg.Wait()

	if errp := firstErr.Load(); errp != nil {
		return *errp
	}
	return ctx.Err()
}

func (d *cpuDevice) Close() error {
	d.pool.close()
	return nil
}

func (d *cpuDevice) String() string {
	return fmt.Sprintf("cpu(workers=%d)", d.workers)
}
