package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"mapchat/pkg/logger"

	"github.com/google/uuid"
)

const blobExt = ".html"

// DiskStorage keeps each blob as <dataDir>/<id>.html so it can be opened
// directly in a browser. Only the content type is kept in memory.
type DiskStorage struct {
	dataDir string
	mu      sync.RWMutex
	index   map[string]*Blob
}

func NewDiskStorage(dataDir string) *DiskStorage {
	return &DiskStorage{
		dataDir: dataDir,
		index:   make(map[string]*Blob),
	}
}

// Init creates the data directory and removes blobs left by an earlier run.
func (d *DiskStorage) Init() error {
	if err := os.MkdirAll(d.dataDir, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	removed, err := d.purgeStale()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}
	if removed > 0 {
		logger.Infof("Removed %d stale map blobs from %s", removed, d.dataDir)
	}

	logger.Debugf("Disk blob storage initialized at %s", d.dataDir)
	return nil
}

func (d *DiskStorage) purgeStale() (int, error) {
	entries, err := os.ReadDir(d.dataDir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, blobExt) {
			continue
		}
		if _, err := uuid.Parse(strings.TrimSuffix(name, blobExt)); err != nil {
			continue
		}
		if err := os.Remove(filepath.Join(d.dataDir, name)); err != nil {
			return removed, err
		}
		removed++
	}

	return removed, nil
}

func (d *DiskStorage) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	for id := range d.index {
		if err := os.Remove(d.blobPath(id)); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = fmt.Errorf("%w: %v", ErrFileOperation, err)
		}
		delete(d.index, id)
	}

	return firstErr
}

func (d *DiskStorage) Put(contentType string, data []byte) (*Blob, error) {
	if contentType == "" {
		return nil, ErrInvalidData
	}

	id := uuid.New().String()
	path := d.blobPath(id)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	blob := &Blob{
		ID:          id,
		ContentType: contentType,
		Locator:     path,
		CreatedAt:   time.Now(),
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.index[id] = blob
	return blob, nil
}

func (d *DiskStorage) Get(id string) (*Blob, error) {
	d.mu.RLock()
	meta, exists := d.index[id]
	d.mu.RUnlock()

	if !exists {
		return nil, ErrBlobNotFound
	}

	data, err := os.ReadFile(d.blobPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	blob := *meta
	blob.Data = data
	return &blob, nil
}

func (d *DiskStorage) Release(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.index[id]; !exists {
		return ErrBlobNotFound
	}
	delete(d.index, id)

	if err := os.Remove(d.blobPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	return nil
}

func (d *DiskStorage) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.index)
}

func (d *DiskStorage) blobPath(id string) string {
	return filepath.Join(d.dataDir, id+blobExt)
}
