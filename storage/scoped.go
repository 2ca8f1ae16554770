package storage

import "strings"

// ScopeSeparator joins a namespace and a key in the underlying store.
const ScopeSeparator = "/"

// Scoped narrows a shared store to one namespace, the way a browser keeps
// each origin's local storage apart. Keys are prefixed on the way in and
// notifications for other namespaces are dropped on the way out.
type Scoped struct {
	base   Store
	prefix string
}

// NewScoped returns a view of base restricted to namespace.
func NewScoped(base Store, namespace string) *Scoped {
	return &Scoped{base: base, prefix: namespace + ScopeSeparator}
}

func (s *Scoped) Get(key string) ([]byte, bool, error) {
	return s.base.Get(s.prefix + key)
}

func (s *Scoped) Set(key string, value []byte) error {
	return s.base.Set(s.prefix+key, value)
}

func (s *Scoped) Remove(key string) error {
	return s.base.Remove(s.prefix + key)
}

func (s *Scoped) Subscribe(fn func(Change)) func() {
	return s.base.Subscribe(func(c Change) {
		if !strings.HasPrefix(c.Key, s.prefix) {
			return
		}
		fn(Change{Key: strings.TrimPrefix(c.Key, s.prefix), Kind: c.Kind})
	})
}

// Close is a no-op: the underlying store is owned by whoever opened it.
func (s *Scoped) Close() error {
	return nil
}
