// Package storage provides the key-value stores that back the search history.
// A Store plays the role browser local storage plays for a single-page app:
// small string values under well-known keys, a capacity limit, and a change
// feed other clients can listen on.
package storage

import (
	"errors"
	"sync"
)

// DefaultQuota mirrors the usual per-origin local storage allowance.
const DefaultQuota = 5 * 1024 * 1024

var (
	// ErrQuotaExceeded is returned by Set when the value would not fit.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrClosed is returned by any operation on a closed store.
	ErrClosed = errors.New("storage closed")
)

// ChangeKind tells listeners what happened to a key.
type ChangeKind string

const (
	ChangeSet    ChangeKind = "set"
	ChangeRemove ChangeKind = "remove"
)

// Change is delivered to subscribers whenever a key is written or removed.
type Change struct {
	Key  string     `json:"key"`
	Kind ChangeKind `json:"kind"`
}

// Store is the explicit handle every history operation is threaded through.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) ([]byte, bool, error)
	// Set writes value under key. It returns ErrQuotaExceeded when the
	// value is larger than the store allows.
	Set(key string, value []byte) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
	// Subscribe registers fn for change notifications. The returned
	// function unregisters it and is safe to call more than once.
	Subscribe(fn func(Change)) (cancel func())
	Close() error
}

// checkQuota reports ErrQuotaExceeded for values above quota.
// A quota of zero or less disables the check.
func checkQuota(quota int, key string, value []byte) error {
	if quota <= 0 {
		return nil
	}
	if len(key)+len(value) > quota {
		return ErrQuotaExceeded
	}
	return nil
}

// ============================================================================
// Notification fan-out
//
// Every backend embeds a notifier. Listeners are called synchronously on the
// writer's goroutine, after the write completed, outside of any store lock.
// ============================================================================

type notifier struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]func(Change)
}

func (n *notifier) subscribe(fn func(Change)) func() {
	n.mu.Lock()
	if n.listeners == nil {
		n.listeners = make(map[int]func(Change))
	}
	n.nextID++
	id := n.nextID
	n.listeners[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

func (n *notifier) publish(c Change) {
	n.mu.RLock()
	fns := make([]func(Change), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

func (n *notifier) reset() {
	n.mu.Lock()
	n.listeners = nil
	n.mu.Unlock()
}
