package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/foso7/wings-cafe-inventory/internal/apperr"
)

// SchemaVersion is the envelope version this build writes and understands.
const SchemaVersion = 1

var (
	// ErrCorrupt means a stored document could not be parsed.
	ErrCorrupt = errors.New("collection document is corrupt")
	// ErrUnsupportedVersion means a document was written by a newer schema.
	ErrUnsupportedVersion = errors.New("unsupported schema version")
)

type envelope[T any] struct {
	SchemaVersion int `json:"schemaVersion"`
	Records       []T `json:"records"`
}

// storedEnvelope tells absent fields apart from zero ones.
type storedEnvelope[T any] struct {
	SchemaVersion *int `json:"schemaVersion"`
	Records       *[]T `json:"records"`
}

// Collection is the full set of records of one entity type. All writers go
// through one gate so load, mutate and save never interleave.
type Collection[T any] struct {
	name    string
	backend Backend
	mu      sync.Mutex
}

func NewCollection[T any](backend Backend, name string) *Collection[T] {
	return &Collection[T]{name: name, backend: backend}
}

func (c *Collection[T]) Name() string { return c.name }

// Load returns every record. A collection that was never written is empty.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	return c.load(ctx)
}

// Save overwrites the collection with records.
func (c *Collection[T]) Save(ctx context.Context, records []T) error {
	unlock, err := c.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return c.save(ctx, records)
}

// Mutate loads the collection, passes it to fn and saves what fn returns, all
// while holding the collection gate. When fn fails nothing is written and its
// error is returned as is.
func (c *Collection[T]) Mutate(ctx context.Context, fn func(records []T) ([]T, error)) error {
	unlock, err := c.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	records, err := c.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(records)
	if err != nil {
		return err
	}
	return c.save(ctx, next)
}

func (c *Collection[T]) lock(ctx context.Context) (func(), error) {
	c.mu.Lock()
	locker, ok := c.backend.(Locker)
	if !ok {
		return c.mu.Unlock, nil
	}
	release, err := locker.Lock(ctx, c.name)
	if err != nil {
		c.mu.Unlock()
		return nil, apperr.Storage("lock "+c.name, err)
	}
	return func() {
		release()
		c.mu.Unlock()
	}, nil
}

func (c *Collection[T]) load(ctx context.Context) ([]T, error) {
	data, err := c.backend.Read(ctx, c.name)
	if errors.Is(err, ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, apperr.Storage("read "+c.name, err)
	}
	records, err := Decode[T](data)
	if err != nil {
		return nil, apperr.Storage("decode "+c.name, err)
	}
	return records, nil
}

func (c *Collection[T]) save(ctx context.Context, records []T) error {
	data, err := Encode(records)
	if err != nil {
		return apperr.Storage("encode "+c.name, err)
	}
	if err := c.backend.Write(ctx, c.name, data); err != nil {
		return apperr.Storage("write "+c.name, err)
	}
	return nil
}

// Encode renders records in the current envelope, indented by two spaces.
func Encode[T any](records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(envelope[T]{SchemaVersion: SchemaVersion, Records: records}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode parses either the envelope or the legacy bare-array layout. Blank
// content, a bare null and an object without both envelope fields are corrupt.
func Decode[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrCorrupt)
	}
	if data[0] == '[' {
		var records []T
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if records == nil {
			records = []T{}
		}
		return records, nil
	}
	if data[0] != '{' {
		return nil, fmt.Errorf("%w: document is neither an array nor an envelope", ErrCorrupt)
	}

	var env storedEnvelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	switch {
	case env.SchemaVersion == nil:
		return nil, fmt.Errorf("%w: schemaVersion is missing", ErrCorrupt)
	case *env.SchemaVersion < 1:
		return nil, fmt.Errorf("%w: schemaVersion %d", ErrCorrupt, *env.SchemaVersion)
	case *env.SchemaVersion > SchemaVersion:
		return nil, fmt.Errorf("%w: %d (this build reads up to %d)", ErrUnsupportedVersion, *env.SchemaVersion, SchemaVersion)
	case env.Records == nil:
		return nil, fmt.Errorf("%w: records is missing", ErrCorrupt)
	}
	records := *env.Records
	if records == nil {
		records = []T{}
	}
	return records, nil
}
