package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLocatorPrefix marks locators that only resolve inside this process.
const MemoryLocatorPrefix = "blob:"

type MemoryStorage struct {
	blobs map[string]*Blob
	mu    sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		blobs: make(map[string]*Blob),
	}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs = make(map[string]*Blob)
	return nil
}

func (m *MemoryStorage) Put(contentType string, data []byte) (*Blob, error) {
	if contentType == "" {
		return nil, ErrInvalidData
	}

	id := uuid.New().String()
	blob := &Blob{
		ID:          id,
		ContentType: contentType,
		Data:        append([]byte(nil), data...),
		Locator:     MemoryLocatorPrefix + id,
		CreatedAt:   time.Now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[id] = blob
	return blob, nil
}

func (m *MemoryStorage) Get(id string) (*Blob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blob, exists := m.blobs[id]
	if !exists {
		return nil, ErrBlobNotFound
	}

	return blob, nil
}

func (m *MemoryStorage) Release(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.blobs[id]; !exists {
		return ErrBlobNotFound
	}

	delete(m.blobs, id)
	return nil
}

func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.blobs)
}
