package storage

import "time"

// Blob is a transient in-memory or on-disk document. It lives until it is
// released; nothing survives a restart.
type Blob struct {
	ID          string
	ContentType string
	Data        []byte
	Locator     string
	CreatedAt   time.Time
}

// BlobStore holds the backing resources of map surfaces. Every Put must be
// paired with a Release, otherwise the resource leaks for the lifetime of
// the store.
type BlobStore interface {
	Put(contentType string, data []byte) (*Blob, error)
	Get(id string) (*Blob, error)
	Release(id string) error
	Len() int

	Init() error
	Close() error
}
