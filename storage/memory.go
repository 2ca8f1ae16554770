package storage

import "sync"

// Memory is an in-process store. Several bindings sharing one Memory store
// behave like several tabs of the same origin.
type Memory struct {
	notifier
	mu     sync.RWMutex
	data   map[string][]byte
	quota  int
	closed bool
}

// NewMemory creates an empty in-memory store with the given quota in bytes.
func NewMemory(quota int) *Memory {
	return &Memory{
		data:  make(map[string][]byte),
		quota: quota,
	}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Set(key string, value []byte) error {
	if err := checkQuota(m.quota, key, value); err != nil {
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	m.mu.Unlock()

	m.publish(Change{Key: key, Kind: ChangeSet})
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	_, existed := m.data[key]
	delete(m.data, key)
	m.mu.Unlock()

	if existed {
		m.publish(Change{Key: key, Kind: ChangeRemove})
	}
	return nil
}

func (m *Memory) Subscribe(fn func(Change)) func() {
	return m.subscribe(fn)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.data = nil
	m.mu.Unlock()
	m.reset()
	return nil
}
