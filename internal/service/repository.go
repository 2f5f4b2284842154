// Package service implements CRUD and filtering for each entity type on
// top of a filestore.Store, including id generation and resolution of
// cross-entity references.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"hotticket/internal/entity"
	"hotticket/internal/filestore"
	"hotticket/internal/idgen"
	"hotticket/internal/timeutil"

	"github.com/rs/zerolog"
)

// Service is the polymorphic CRUD protocol every entity exposes.
// Create and Update take the raw JSON request body.
type Service[T any] interface {
	List(ctx context.Context, filter Filter) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, body []byte) (T, error)
	Update(ctx context.Context, body []byte) (T, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Record constrains the pointer type of a persisted entity.
type Record[T any] interface {
	*T
	entity.Entity
	SetEntityID(id string)
}

// Records is a decoded view over the raw contents of a store, used by
// uniqueness checks that run inside a read-modify-write cycle.
type Records struct {
	fields []map[string]json.RawMessage
}

func newRecords(raw []json.RawMessage) (*Records, error) {
	fields := make([]map[string]json.RawMessage, len(raw))
	for i, r := range raw {
		if err := json.Unmarshal(r, &fields[i]); err != nil {
			return nil, fmt.Errorf("record %d is not an object: %w", i, filestore.ErrStorage)
		}
	}
	return &Records{fields: fields}, nil
}

// Find returns the indexes of records matching f, in store order.
func (rs *Records) Find(f Filter) []int {
	var out []int
	for i, m := range rs.fields {
		if f.Match(m) {
			out = append(out, i)
		}
	}
	return out
}

// IndexOf returns the index of the record with id, or -1.
func (rs *Records) IndexOf(id string) int {
	if id == "" {
		return -1
	}
	if idx := rs.Find(Where("id", id)); len(idx) > 0 {
		return idx[0]
	}
	return -1
}

// IDAt returns the id of record i.
func (rs *Records) IDAt(i int) string {
	return scalar(rs.fields[i]["id"])
}

// Options configures the shared behavior of every service.
type Options struct {
	Logger zerolog.Logger
	IDs    *idgen.Generator
	Now    func() timeutil.Timestamp
}

// Option mutates Options.
type Option func(*Options)

// WithLogger sets the logger used for warnings about dangling references.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithIDGenerator sets the id generator.
func WithIDGenerator(g *idgen.Generator) Option {
	return func(o *Options) { o.IDs = g }
}

// WithClock sets the source of creation and update timestamps.
func WithClock(now func() timeutil.Timestamp) Option {
	return func(o *Options) { o.Now = now }
}

func buildOptions(opts []Option) Options {
	o := Options{
		Logger: zerolog.Nop(),
		Now:    timeutil.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.IDs == nil {
		o.IDs = idgen.New()
	}
	return o
}

// Repository is the generic store access shared by all entity services:
// linear-scan filtering, lookup by id, and whole-store rewrites.
type Repository[T any, P Record[T]] struct {
	kind  string
	store filestore.Store
	ids   *idgen.Generator
}

// NewRepository returns a repository for records of the given kind
// (used in error messages, e.g. "User").
func NewRepository[T any, P Record[T]](kind string, store filestore.Store, ids *idgen.Generator) *Repository[T, P] {
	if ids == nil {
		ids = idgen.New()
	}
	return &Repository[T, P]{kind: kind, store: store, ids: ids}
}

// List returns every record matching filter, in store order.
func (r *Repository[T, P]) List(ctx context.Context, filter Filter) ([]T, error) {
	raw, err := r.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	rs, err := newRecords(raw)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, i := range rs.Find(filter) {
		v, err := r.decodeStored(raw[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Get returns the record with id.
func (r *Repository[T, P]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	raw, err := r.store.Read(ctx)
	if err != nil {
		return zero, err
	}
	rs, err := newRecords(raw)
	if err != nil {
		return zero, err
	}
	i := rs.IndexOf(id)
	if i < 0 {
		return zero, fmt.Errorf("a %s could not be found with the following id: %s: %w", r.kind, id, ErrNotFound)
	}
	return r.decodeStored(raw[i])
}

// Insert assigns a fresh id that does not collide with any stored record,
// lets build fill in the record, then appends it. build runs inside the
// store's read-modify-write cycle and may reject the record by returning
// an error, in which case nothing is written.
func (r *Repository[T, P]) Insert(ctx context.Context, build func(id string, existing *Records) (T, error)) (T, error) {
	var created T
	err := r.store.Modify(ctx, func(raw []json.RawMessage) ([]json.RawMessage, error) {
		rs, err := newRecords(raw)
		if err != nil {
			return nil, err
		}
		id, err := r.ids.Unique(func(id string) bool { return rs.IndexOf(id) >= 0 })
		if err != nil {
			return nil, err
		}
		v, err := build(id, rs)
		if err != nil {
			return nil, err
		}
		P(&v).SetEntityID(id)
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", r.kind, err)
		}
		created = v
		return append(raw, data), nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return created, nil
}

// Replace finds the record with id and overwrites it in place with the
// value returned by apply. apply receives the stored record and runs
// inside the read-modify-write cycle.
func (r *Repository[T, P]) Replace(ctx context.Context, id string, apply func(current T, existing *Records) (T, error)) (T, error) {
	var updated T
	err := r.store.Modify(ctx, func(raw []json.RawMessage) ([]json.RawMessage, error) {
		rs, err := newRecords(raw)
		if err != nil {
			return nil, err
		}
		i := rs.IndexOf(id)
		if i < 0 {
			return nil, fmt.Errorf("the %s could not be found with the following id: %s: %w", r.kind, id, ErrNotFound)
		}
		current, err := r.decodeStored(raw[i])
		if err != nil {
			return nil, err
		}
		v, err := apply(current, rs)
		if err != nil {
			return nil, err
		}
		P(&v).SetEntityID(id)
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", r.kind, err)
		}
		raw[i] = data
		updated = v
		return raw, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return updated, nil
}

// Delete removes the record with id.
func (r *Repository[T, P]) Delete(ctx context.Context, id string) (bool, error) {
	err := r.store.Modify(ctx, func(raw []json.RawMessage) ([]json.RawMessage, error) {
		rs, err := newRecords(raw)
		if err != nil {
			return nil, err
		}
		i := rs.IndexOf(id)
		if i < 0 {
			return nil, fmt.Errorf("the %s could not be found with the following id: %s: %w", r.kind, id, ErrNotFound)
		}
		return append(raw[:i], raw[i+1:]...), nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Decode parses a request body into a T. Any parse or type error is
// reported as ErrBadRequest.
func (r *Repository[T, P]) Decode(body []byte, drop ...string) (T, error) {
	return decodeBody[T](r.kind, body, drop...)
}

// Fields the server assigns itself. Whatever the client sends for them is
// dropped before decoding, so a malformed value cannot fail the request.
var (
	serverOwnedOnCreate = []string{"createdAt", "updatedAt", "updatedBy"}
	serverOwnedOnUpdate = []string{"updatedAt"}
)

// decodeBody parses body as a JSON object, removes the drop keys and
// decodes the rest into a V.
func decodeBody[V any](kind string, body []byte, drop ...string) (V, error) {
	var v V
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return v, fmt.Errorf("unable to use the following %s information: %s: %v: %w", kind, body, err, ErrBadRequest)
	}
	for _, k := range drop {
		delete(fields, k)
	}
	cleaned, err := json.Marshal(fields)
	if err != nil {
		return v, fmt.Errorf("unable to use the following %s information: %s: %v: %w", kind, body, err, ErrBadRequest)
	}
	if err := json.Unmarshal(cleaned, &v); err != nil {
		return v, fmt.Errorf("unable to use the following %s information: %s: %v: %w", kind, body, err, ErrBadRequest)
	}
	return v, nil
}

func (r *Repository[T, P]) decodeStored(raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decoding stored %s: %v: %w", r.kind, err, filestore.ErrStorage)
	}
	return v, nil
}
