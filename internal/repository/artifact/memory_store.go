package artifact

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is the default when no S3 endpoint is configured. Exports
// are held per process and streamed back directly.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(ctx context.Context, sessionID, name, contentType string, content []byte) error {
	if err := validateKey(sessionID, name); err != nil {
		return err
	}
	cp := make([]byte, len(content))
	copy(cp, content)
	m.mu.Lock()
	m.objects[objectKey(sessionID, name)] = cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, sessionID, name string) ([]byte, error) {
	if err := validateKey(sessionID, name); err != nil {
		return nil, err
	}
	m.mu.RLock()
	content, ok := m.objects[objectKey(sessionID, name)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(content))
	copy(cp, content)
	return cp, nil
}

func (m *MemoryStore) List(ctx context.Context, sessionID string) ([]string, error) {
	prefix := strings.TrimSuffix(sessionID, "/") + "/"
	m.mu.RLock()
	var names []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			names = append(names, strings.TrimPrefix(key, prefix))
		}
	}
	m.mu.RUnlock()
	sort.Strings(names)
	return names, nil
}

// URL returns "" so callers stream the bytes themselves.
func (m *MemoryStore) URL(ctx context.Context, sessionID, name string) (string, error) {
	return "", nil
}
