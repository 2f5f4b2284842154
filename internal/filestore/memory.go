package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory implements Store in memory. Records are copied in and out, so
// callers never share backing arrays with the store.
type Memory struct {
	name string

	mu      sync.Mutex
	records []json.RawMessage

	// FailReads and FailWrites force ErrStorage, for exercising error paths.
	FailReads  bool
	FailWrites bool
}

// NewMemory returns an empty in-memory store.
func NewMemory(name string) *Memory {
	return &Memory{name: name, records: []json.RawMessage{}}
}

// NewMemoryFrom returns an in-memory store seeded with a JSON array.
// It panics if seed is not a JSON array.
func NewMemoryFrom(name, seed string) *Memory {
	records, err := decode([]byte(seed))
	if err != nil {
		panic(fmt.Sprintf("filestore: invalid seed for %s: %v", name, err))
	}
	return &Memory{name: name, records: records}
}

// Name returns the store name.
func (m *Memory) Name() string { return m.name }

// Read returns a copy of every record.
func (m *Memory) Read(ctx context.Context) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read()
}

// Write replaces the records.
func (m *Memory) Write(ctx context.Context, records []json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(records)
}

// Modify runs fn under the store mutex.
func (m *Memory) Modify(ctx context.Context, fn func([]json.RawMessage) ([]json.RawMessage, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	records, err := m.read()
	if err != nil {
		return err
	}
	updated, err := fn(records)
	if err != nil {
		return err
	}
	return m.write(updated)
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *Memory) read() ([]json.RawMessage, error) {
	if m.FailReads {
		return nil, fmt.Errorf("reading %s: %w", m.name, ErrStorage)
	}
	out := make([]json.RawMessage, len(m.records))
	for i, r := range m.records {
		out[i] = append(json.RawMessage(nil), r...)
	}
	return out, nil
}

func (m *Memory) write(records []json.RawMessage) error {
	if m.FailWrites {
		return fmt.Errorf("writing %s: %w", m.name, ErrStorage)
	}
	// Round-trip through the encoder so invalid JSON is rejected the same
	// way the file store rejects it.
	data, err := encode(records)
	if err != nil {
		return fmt.Errorf("encoding %s: %w: %w", m.name, err, ErrStorage)
	}
	decoded, err := decode(data)
	if err != nil {
		return fmt.Errorf("encoding %s: %w: %w", m.name, err, ErrStorage)
	}
	m.records = decoded
	return nil
}

var _ Store = (*Memory)(nil)
