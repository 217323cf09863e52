// Package signal provides single-writer observable values.
//
// A Value is written by exactly one goroutine and read by any number of others.
// Reads never block: they return the latest stored value. Subscribers are called
// synchronously on the writer's goroutine after each change and must not block.
package signal

import (
	"sync"
	"sync/atomic"
)

// Change describes one transition of a Value.
type Change[T any] struct {
	Old T
	New T
}

// Value holds the latest value of type T.
type Value[T comparable] struct {
	v atomic.Pointer[T]

	mu     sync.Mutex
	nextID int
	subs   map[int]func(Change[T])
}

// NewValue creates a Value holding initial.
func NewValue[T comparable](initial T) *Value[T] {
	v := &Value[T]{subs: make(map[int]func(Change[T]))}
	v.v.Store(&initial)
	return v
}

// Load returns the current value.
func (v *Value[T]) Load() T {
	return *v.v.Load()
}

// Store replaces the value. Subscribers are notified only if it differs from the
// previous one.
func (v *Value[T]) Store(next T) {
	prev := v.v.Swap(&next)
	if *prev != next {
		v.notify(Change[T]{Old: *prev, New: next})
	}
}

// Update applies fn to the current value and stores the result.
// It returns the stored value.
func (v *Value[T]) Update(fn func(T) T) T {
	for {
		cur := v.v.Load()
		next := fn(*cur)
		if v.v.CompareAndSwap(cur, &next) {
			if *cur != next {
				v.notify(Change[T]{Old: *cur, New: next})
			}
			return next
		}
	}
}

// Subscribe registers fn for future changes. The returned function removes it.
func (v *Value[T]) Subscribe(fn func(Change[T])) (cancel func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	v.subs[id] = fn

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
}

func (v *Value[T]) notify(c Change[T]) {
	v.mu.Lock()
	fns := make([]func(Change[T]), 0, len(v.subs))
	for _, fn := range v.subs {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
