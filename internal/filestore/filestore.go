// Package filestore persists one entity type as a single JSON array in a
// flat file. Every call re-reads or rewrites the whole file; there is no
// cache between calls.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrStorage is returned when the backing file cannot be opened, read,
// parsed, or written.
var ErrStorage = errors.New("storage error")

// Store is the persistence primitive used by entity services.
type Store interface {
	// Name identifies the store in logs and errors (e.g. "users").
	Name() string

	// Read returns every record in the store.
	Read(ctx context.Context) ([]json.RawMessage, error)

	// Write replaces the store contents with records.
	Write(ctx context.Context, records []json.RawMessage) error

	// Modify reads the records, passes them to fn, and writes back the
	// slice fn returns. Concurrent Modify calls on the same store are
	// serialized. If fn returns an error nothing is written.
	Modify(ctx context.Context, fn func(records []json.RawMessage) ([]json.RawMessage, error)) error
}

// Entity file names, one per entity type.
const (
	UsersFile    = "users.json"
	IssuesFile   = "issues.json"
	CommentsFile = "comments.json"
	VotesFile    = "votes.json"
)

// Files lists every entity file the service expects in its data directory.
var Files = []string{UsersFile, IssuesFile, CommentsFile, VotesFile}

func encode(records []json.RawMessage) ([]byte, error) {
	if records == nil {
		records = []json.RawMessage{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func decode(data []byte) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}
