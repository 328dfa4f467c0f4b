// Package store owns the application state. Messages are applied one at a
// time on a dedicated goroutine and the resulting effects run on the
// executor's workers.
package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/thiagokokada/gitdeck/internal/executor"
	"github.com/thiagokokada/gitdeck/internal/git/backend"
	"github.com/thiagokokada/gitdeck/internal/msg"
	"github.com/thiagokokada/gitdeck/internal/queue"
	"github.com/thiagokokada/gitdeck/internal/reducer"
	"github.com/thiagokokada/gitdeck/internal/session"
	"github.com/thiagokokada/gitdeck/internal/state"
)

// ErrClosed is returned by Wait when the store closes first.
var ErrClosed = errors.New("store closed")

type Options struct {
	// Open opens repositories. Defaults to the git CLI backend.
	Open      backend.Factory
	Persister session.Persister
	Workers   int
	Reducer   reducer.Options
}

type Store struct {
	mu    sync.RWMutex
	state state.AppState

	// applied counts reduced messages; guarded by mu.
	applied    uint64
	dispatched atomic.Uint64

	inbox   *queue.Unbounded[msg.Msg]
	reducer *reducer.Reducer
	exec    *executor.Executor
	done    chan struct{}

	subsMu sync.Mutex
	subs   []chan struct{}

	closeOnce sync.Once
}

func New(opts Options) *Store {
	registry := reducer.NewRegistry()
	s := &Store{
		inbox:   queue.New[msg.Msg](),
		reducer: reducer.New(registry, &reducer.IDAllocator{}, opts.Reducer),
		done:    make(chan struct{}),
	}
	s.exec = executor.New(registry, s.Dispatch, executor.Options{
		Workers:   opts.Workers,
		Open:      opts.Open,
		Persister: opts.Persister,
	})
	go s.loop()
	return s
}

// Dispatch queues m. It never waits for the reducer.
func (s *Store) Dispatch(m msg.Msg) {
	s.dispatched.Add(1)
	if !s.inbox.Push(m) {
		slog.Debug("store closed, dropping message", slog.Any("msg", m))
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() state.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe returns a channel that receives a value after state changes.
// Notifications are coalesced: a slow reader sees at most one pending
// value. The channel is closed by Close.
func (s *Store) Subscribe() <-chan struct{} {
	ch, _ := s.subscribe()
	return ch
}

func (s *Store) subscribe() (chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	select {
	case <-s.done:
		close(ch)
		return ch, func() {}
	default:
		s.subs = append(s.subs, ch)
	}
	return ch, func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(c chan struct{}) bool { return c == ch })
	}
}

// Wait blocks until cond holds or ctx is done. cond only sees snapshots in
// which every message dispatched before the call has been applied. Wait
// returns the last snapshot it looked at.
func (s *Store) Wait(ctx context.Context, cond func(state.AppState) bool) (state.AppState, error) {
	target := s.dispatched.Load()
	changed, unsubscribe := s.subscribe()
	defer unsubscribe()
	for {
		snap, caughtUp := s.snapshotAfter(target)
		if caughtUp && cond(snap) {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case _, ok := <-changed:
			if !ok {
				return s.Snapshot(), ErrClosed
			}
		}
	}
}

func (s *Store) snapshotAfter(n uint64) (state.AppState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone(), s.applied >= n
}

// Close stops accepting messages, applies the ones already queued and waits
// for running jobs. Results of those jobs are dropped.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.inbox.Close()
		<-s.done
		s.exec.Close()
		s.subsMu.Lock()
		for _, ch := range s.subs {
			close(ch)
		}
		s.subs = nil
		s.subsMu.Unlock()
	})
}

func (s *Store) loop() {
	defer close(s.done)
	for {
		m, ok := s.inbox.Pop()
		if !ok {
			return
		}
		s.apply(m)
	}
}

func (s *Store) apply(m msg.Msg) {
	s.mu.Lock()
	effects := s.reducer.Reduce(&s.state, m)
	s.applied++
	s.mu.Unlock()
	s.exec.Schedule(effects)
	s.notify()
}

func (s *Store) notify() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
