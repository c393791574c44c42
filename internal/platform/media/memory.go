package media

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// Memory keeps objects in process. It serves deployments without a cloud
// provider and tests.
type Memory struct {
	mu      sync.RWMutex
	base    string
	objects map[string][]byte
}

func NewMemory(base string) *Memory {
	return &Memory{base: base, objects: make(map[string][]byte)}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Put(_ context.Context, obj Object) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj.Body); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.objects[obj.Key()] = buf.Bytes()
	m.mu.Unlock()
	return m.base + "/" + obj.Key(), nil
}

// Get returns a stored object.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[key]
	return b, ok
}
