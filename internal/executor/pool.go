// Package executor runs effects on a fixed pool of workers and reports each
// result back as a message.
package executor

import (
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/thiagokokada/gitdeck/internal/queue"
)

const maxDefaultWorkers = 8

// DefaultWorkers returns GOMAXPROCS clamped to [1, 8].
func DefaultWorkers() int {
	return min(max(runtime.GOMAXPROCS(0), 1), maxDefaultWorkers)
}

// Pool runs submitted jobs on a fixed number of goroutines. Jobs wait in an
// unbounded queue, so Submit never blocks.
type Pool struct {
	jobs *queue.Unbounded[func()]
	wg   sync.WaitGroup
	size int
}

// NewPool starts size workers, or DefaultWorkers if size is not positive.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultWorkers()
	}
	p := &Pool{jobs: queue.New[func()](), size: size}
	for i := range size {
		p.wg.Go(func() { p.work(i) })
	}
	return p
}

func (p *Pool) Size() int { return p.size }

// Submit queues job. It reports false once the pool is closed.
func (p *Pool) Submit(job func()) bool {
	return p.jobs.Push(job)
}

// Close waits for the queued jobs to finish and stops the workers.
func (p *Pool) Close() {
	p.jobs.Close()
	p.wg.Wait()
}

func (p *Pool) work(id int) {
	for {
		job, ok := p.jobs.Pop()
		if !ok {
			return
		}
		runJob(id, job)
	}
}

func runJob(worker int, job func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("job panicked",
				slog.Int("worker", worker),
				slog.Any("error", fmt.Errorf("%v", r)),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	job()
}
