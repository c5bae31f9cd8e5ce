package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Memory is an in-process object store for tests and single-machine CLI
// runs. URLs use the mem:// scheme and resolve only inside the process.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Upload(_ context.Context, name string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[name] = cp
	return "mem://" + url.PathEscape(name), nil
}

func (m *Memory) Delete(_ context.Context, objectURL string) error {
	name, err := url.PathUnescape(strings.TrimPrefix(objectURL, "mem://"))
	if err != nil {
		return fmt.Errorf("unescape object name: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[name]; !ok {
		return fmt.Errorf("object %s not found", name)
	}
	delete(m.objects, name)
	return nil
}

// Get returns a stored object, for tests.
func (m *Memory) Get(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[name]
	return data, ok
}
