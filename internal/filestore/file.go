package filestore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
)

// locks holds one mutex per absolute file path so that every File opened
// on the same path within the process shares it.
var locks sync.Map

func lockFor(path string) *sync.Mutex {
	mu, _ := locks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// File implements Store on a JSON file on disk.
type File struct {
	path string
	mu   *sync.Mutex
}

// NewFile returns a store backed by the file at path. The file is not
// touched until the first call.
func NewFile(path string) *File {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &File{path: path, mu: lockFor(path)}
}

// Open returns the store for name inside dir.
func Open(dir, name string) *File {
	return NewFile(filepath.Join(dir, name))
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// Name returns the file name without the .json extension.
func (f *File) Name() string {
	return strings.TrimSuffix(filepath.Base(f.path), ".json")
}

// Init creates the parent directory and, if the file does not exist yet,
// an empty JSON array. Existing files are left alone.
func (f *File) Init(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w: %w", err, ErrStorage)
	}
	if _, err := os.Stat(f.path); err == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write([]json.RawMessage{})
}

// Read returns every record in the file.
func (f *File) Read(ctx context.Context) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

// Write truncates the file and writes records.
func (f *File) Write(ctx context.Context, records []json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(records)
}

// Modify runs a read-modify-write cycle while holding both the in-process
// mutex and an advisory flock on <file>.lock.
func (f *File) Modify(ctx context.Context, fn func([]json.RawMessage) ([]json.RawMessage, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	unlock, err := f.flock()
	if err != nil {
		return err
	}
	defer unlock()

	records, err := f.read()
	if err != nil {
		return err
	}
	updated, err := fn(records)
	if err != nil {
		return err
	}
	return f.write(updated)
}

func (f *File) read() ([]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("the file stream for %s was not able to be opened for reading, check if your file path is correct: %w",
			f.Name(), ErrStorage)
	}
	records, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("the file %s could not be read, check if your JSON file has valid syntax: %w",
			f.Name(), ErrStorage)
	}
	return records, nil
}

func (f *File) write(records []json.RawMessage) error {
	data, err := encode(records)
	if err != nil {
		return fmt.Errorf("encoding %s: %w: %w", f.Name(), err, ErrStorage)
	}
	if err := atomicWrite(f.path, data); err != nil {
		return fmt.Errorf("the file stream for %s was not able to be opened for writing: %w: %w",
			f.Name(), err, ErrStorage)
	}
	return nil
}

// flock acquires an exclusive advisory lock shared with other processes
// using the same data directory.
func (f *File) flock() (func(), error) {
	lf, err := os.OpenFile(f.path+".lock", os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening lock for %s: %w: %w", f.Name(), err, ErrStorage)
	}
	if err := syscall.Flock(int(lf.Fd()), syscall.LOCK_EX); err != nil {
		lf.Close()
		return nil, fmt.Errorf("acquiring lock for %s: %w: %w", f.Name(), err, ErrStorage)
	}
	return func() {
		syscall.Flock(int(lf.Fd()), syscall.LOCK_UN)
		lf.Close()
	}, nil
}

// atomicWrite writes data to a file atomically via a temporary file and rename.
func atomicWrite(path string, data []byte) error {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return fmt.Errorf("generating random suffix: %w", err)
	}
	tmp := path + ".tmp." + hex.EncodeToString(randBytes)

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // best effort cleanup
		return err
	}
	return nil
}

// Compile-time check that File implements Store.
var _ Store = (*File)(nil)
