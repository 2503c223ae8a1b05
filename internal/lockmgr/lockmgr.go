// Package lockmgr hands out named read/write locks so that every holder of a
// name shares one lock.
package lockmgr

import "sync"

// Manager maps lock names to shared locks.
type Manager struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// New returns an empty manager.
func New() *Manager {
	return &Manager{locks: make(map[string]*sync.RWMutex)}
}

// Lock returns the lock named name, creating it on first use.
func (m *Manager) Lock(name string) *sync.RWMutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[name]
	if !ok {
		l = &sync.RWMutex{}
		m.locks[name] = l
	}
	return l
}

// Names returns the names handed out so far.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.locks))
	for n := range m.locks {
		out = append(out, n)
	}
	return out
}

var (
	defaultOnce sync.Once
	defaultMgr  *Manager
)

// Default returns the process-wide manager.
func Default() *Manager {
	defaultOnce.Do(func() { defaultMgr = New() })
	return defaultMgr
}
