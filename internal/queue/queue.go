// Package queue provides an unbounded FIFO shared between goroutines.
package queue

import (
	"sync"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// Unbounded is a FIFO that never blocks producers. Consumers block in Pop
// until an item arrives or the queue is closed.
type Unbounded[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  *linkedlistqueue.Queue
	closed bool
}

func New[T any]() *Unbounded[T] {
	q := &Unbounded[T]{items: linkedlistqueue.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends v. It reports false if the queue is closed.
func (q *Unbounded[T]) Push(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items.Enqueue(v)
	q.cond.Signal()
	return true
}

// Pop removes the oldest item, waiting for one if the queue is empty. Items
// pushed before Close are still returned; after that ok is false.
func (q *Unbounded[T]) Pop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Empty() && !q.closed {
		q.cond.Wait()
	}
	item, ok := q.items.Dequeue()
	if !ok {
		return v, false
	}
	return item.(T), true
}

func (q *Unbounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Size()
}

// Close rejects further pushes and wakes every waiting consumer.
func (q *Unbounded[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
