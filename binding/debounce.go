// Package binding connects the search history to a view: debounced input,
// dismissal on outside interaction, a live copy of the history that follows
// store changes, and the dropdown filtering rules. Nothing here renders;
// the web page and the terminal UI both drive these types.
package binding

import (
	"sync"
	"time"
)

// DefaultDebounce is the input settle delay when none is given.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer holds the last value that stayed unchanged for the full delay.
// Every Set cancels the pending update and starts the delay again
// (trailing edge). Stop cancels any pending update for good.
type Debouncer[T any] struct {
	mu       sync.Mutex
	delay    time.Duration
	value    T
	latest   T
	timer    *time.Timer
	gen      uint64 // invalidates timers that fired while being cancelled
	stopped  bool
	onSettle func(T)
}

// NewDebouncer starts settled on initial. onSettle, when non-nil, runs on
// the timer goroutine each time a new value settles.
func NewDebouncer[T any](initial T, delay time.Duration, onSettle func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer[T]{
		delay:    delay,
		value:    initial,
		latest:   initial,
		onSettle: onSettle,
	}
}

// Set records a new input value and restarts the delay.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.latest = v
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.value = d.latest
	d.timer = nil
	v := d.value
	cb := d.onSettle
	d.mu.Unlock()

	if cb != nil {
		cb(v)
	}
}

// Value returns the settled value.
func (d *Debouncer[T]) Value() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// Pending reports whether an update is waiting for the delay to pass.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels the pending update; later Sets are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
