// Package debounce coalesces bursts of events into a single call.
package debounce

import (
	"sync"
	"time"
)

var afterFunc = time.AfterFunc

// Debouncer runs fn once delay has passed without another Trigger.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	gen   uint64
	fn    func()
}

func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = afterFunc(d.delay, func() { d.fire(gen) })
}

// fire ignores callbacks from timers that were replaced or stopped after
// they had already started running.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Keyed debounces each key independently.
type Keyed[K comparable] struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func(K)
	byKey map[K]*Debouncer
}

func NewKeyed[K comparable](delay time.Duration, fn func(K)) *Keyed[K] {
	return &Keyed[K]{delay: delay, fn: fn, byKey: map[K]*Debouncer{}}
}

func (k *Keyed[K]) Trigger(key K) {
	k.mu.Lock()
	d, ok := k.byKey[key]
	if !ok {
		d = New(k.delay, func() { k.fn(key) })
		k.byKey[key] = d
	}
	k.mu.Unlock()
	d.Trigger()
}

// Forget stops and drops the debouncer for key.
func (k *Keyed[K]) Forget(key K) {
	k.mu.Lock()
	d, ok := k.byKey[key]
	delete(k.byKey, key)
	k.mu.Unlock()
	if ok {
		d.Stop()
	}
}

// Stop cancels every pending call.
func (k *Keyed[K]) Stop() {
	k.mu.Lock()
	pending := k.byKey
	k.byKey = map[K]*Debouncer{}
	k.mu.Unlock()
	for _, d := range pending {
		d.Stop()
	}
}
