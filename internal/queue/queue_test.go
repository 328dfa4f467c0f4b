package queue

import (
	"sync"
	"testing"
	"time"
)

func TestUnboundedFIFO(t *testing.T) {
	t.Parallel()

	q := New[int]()
	for i := range 1000 {
		if !q.Push(i) {
			t.Fatalf("push %d rejected", i)
		}
	}
	if got := q.Len(); got != 1000 {
		t.Fatalf("got len %d, want 1000", got)
	}
	for i := range 1000 {
		v, ok := q.Pop()
		if !ok || v != i {
			t.Fatalf("got %d,%v, want %d,true", v, ok, i)
		}
	}
}

func TestUnboundedCloseDrains(t *testing.T) {
	t.Parallel()

	q := New[string]()
	q.Push("a")
	q.Push("b")
	q.Close()
	if q.Push("c") {
		t.Fatal("push after close accepted")
	}
	for _, want := range []string{"a", "b"} {
		if got, ok := q.Pop(); !ok || got != want {
			t.Fatalf("got %q,%v, want %q,true", got, ok, want)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("pop after drain returned an item")
	}
}

func TestUnboundedCloseWakesConsumers(t *testing.T) {
	t.Parallel()

	q := New[int]()
	var wg sync.WaitGroup
	for range 4 {
		wg.Go(func() {
			if _, ok := q.Pop(); ok {
				t.Error("pop on closed empty queue returned an item")
			}
		})
	}
	time.Sleep(10 * time.Millisecond)
	q.Close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumers still blocked after close")
	}
}

func TestUnboundedConcurrentProducers(t *testing.T) {
	t.Parallel()

	q := New[int]()
	var wg sync.WaitGroup
	for p := range 8 {
		wg.Go(func() {
			for i := range 100 {
				q.Push(p*100 + i)
			}
		})
	}
	wg.Wait()
	q.Close()

	seen := map[int]bool{}
	for {
		v, ok := q.Pop()
		if !ok {
			break
		}
		seen[v] = true
	}
	if len(seen) != 800 {
		t.Fatalf("got %d distinct items, want 800", len(seen))
	}
}
