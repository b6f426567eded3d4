package store

import "sync"

// Subscriber is called with the current value on subscription and with the
// new value on every subsequent Set or Update.
type Subscriber func(value any)

// Readable is the minimal store protocol the harness understands: an
// observer can be registered and later removed via the returned function.
type Readable interface {
	// Subscribe registers fn, invokes it synchronously with the current
	// value, and returns an idempotent unsubscribe function.
	Subscribe(fn Subscriber) (unsubscribe func())
}

// Writable extends Readable with mutation. Setting a value notifies all
// current subscribers synchronously, in subscription order.
type Writable interface {
	Readable
	Set(value any)
	Update(fn func(current any) any)
}

// Get reads the current value of any Readable by subscribing and
// immediately unsubscribing. This mirrors how the render path reads the
// initial value of a bound store.
func Get(r Readable) any {
	var v any
	unsubscribe := r.Subscribe(func(value any) { v = value })
	unsubscribe()
	return v
}

type subscription struct {
	fn      Subscriber
	removed bool
}

type writable struct {
	mu    sync.Mutex
	value any
	subs  []*subscription
}

// New creates a Writable holding initial.
func New(initial any) Writable {
	return &writable{value: initial}
}

func (w *writable) Subscribe(fn Subscriber) func() {
	w.mu.Lock()
	sub := &subscription{fn: fn}
	w.subs = append(w.subs, sub)
	v := w.value
	w.mu.Unlock()

	fn(v)

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if sub.removed {
			return
		}
		sub.removed = true
		for i, s := range w.subs {
			if s == sub {
				w.subs = append(w.subs[:i], w.subs[i+1:]...)
				break
			}
		}
	}
}

func (w *writable) Set(value any) {
	w.mu.Lock()
	w.value = value
	// Snapshot so a subscriber unsubscribing mid-notification cannot
	// corrupt the iteration. Order stays subscription order.
	snapshot := make([]*subscription, len(w.subs))
	copy(snapshot, w.subs)
	w.mu.Unlock()

	for _, sub := range snapshot {
		w.mu.Lock()
		removed := sub.removed
		w.mu.Unlock()
		if !removed {
			sub.fn(value)
		}
	}
}

func (w *writable) Update(fn func(current any) any) {
	w.mu.Lock()
	next := fn(w.value)
	w.mu.Unlock()
	w.Set(next)
}

type fixed struct {
	value any
}

// Fixed creates a read-only store that always reports value. Subscribers
// are notified exactly once, at subscription time; there is no derivation
// logic behind it. Used for ambient flags such as the "updated" store.
func Fixed(value any) Readable {
	return &fixed{value: value}
}

func (f *fixed) Subscribe(fn Subscriber) func() {
	fn(f.value)
	return func() {}
}
