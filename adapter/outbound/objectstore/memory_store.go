package objectstore

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/ajkula/GoAutoSync/domain/model"
)

// MemoryStore keeps uploaded objects in process memory. Used when
// storage.engine is "memory".
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
	}
}

func (m *MemoryStore) Upload(ctx context.Context, task model.UploadTask) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := os.ReadFile(task.SourcePath)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", task.SourcePath, err)
	}

	m.mu.Lock()
	m.objects[task.DestinationKey] = data
	m.mu.Unlock()

	return int64(len(data)), nil
}

// Object returns a copy of the stored bytes for key
func (m *MemoryStore) Object(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
