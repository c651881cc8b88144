package storage

import "fmt"

// New builds the blob store named by storageType and initializes it.
func New(storageType, dataDir string) (BlobStore, error) {
	var store BlobStore

	switch storageType {
	case "", "memory":
		store = NewMemoryStorage()
	case "disk":
		store = NewDiskStorage(dataDir)
	default:
		return nil, fmt.Errorf("%w: unknown storage type %q", ErrStorageInit, storageType)
	}

	if err := store.Init(); err != nil {
		return nil, err
	}

	return store, nil
}
