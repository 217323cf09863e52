package signal

import "sync"

// Feed broadcasts discrete events to subscribers. Unlike Value it keeps no state:
// an event published with no subscribers is lost.
type Feed[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(T)
}

// NewFeed creates an empty Feed.
func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{subs: make(map[int]func(T))}
}

// Publish calls every subscriber with ev on the caller's goroutine.
func (f *Feed[T]) Publish(ev T) {
	f.mu.Lock()
	fns := make([]func(T), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Subscribe registers fn. The returned function removes it.
func (f *Feed[T]) Subscribe(fn func(T)) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	f.subs[id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// Len returns the number of subscribers.
func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
