package binding

import "sync"

// listenerSet is a small registry of callbacks. emit copies the set before
// calling out so listeners may add or remove listeners themselves.
type listenerSet[T any] struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(T)
}

func (l *listenerSet[T]) add(fn func(T)) func() {
	l.mu.Lock()
	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	l.nextID++
	id := l.nextID
	l.fns[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	}
}

func (l *listenerSet[T]) emit(v T) {
	l.mu.Lock()
	fns := make([]func(T), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
