// Package store persists whole entity collections as JSON documents and
// serializes writers per collection.
package store

import (
	"context"
	"errors"
	"sync"
)

// ErrNotExist is returned by Backend.Read for a collection that was never written.
var ErrNotExist = errors.New("collection does not exist")

// Backend reads and writes the serialized form of one named collection.
type Backend interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
}

// Locker is implemented by backends that can hold an exclusive lock on a
// collection shared with other processes.
type Locker interface {
	Lock(ctx context.Context, name string) (unlock func(), err error)
}

// MemoryBackend keeps collections in process memory. Nothing survives a restart.
type MemoryBackend struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

func (b *MemoryBackend) Read(ctx context.Context, name string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.docs[name]
	if !ok {
		return nil, ErrNotExist
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (b *MemoryBackend) Write(ctx context.Context, name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	b.docs[name] = stored
	return nil
}
