// Package api binds the entity services to HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"hotticket/internal/service"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handler is the set of HTTP handlers mounted for one entity endpoint.
type Handler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

// Controller exposes a service.Service over HTTP. It locates ids in the
// request path relative to its endpoint name, so the same controller
// serves both /comments/{id} and /issues/{issueId}/comments/{id}.
type Controller[T any] struct {
	endpoint      string
	svc           service.Service[T]
	notFoundTitle string
}

// NewController returns a controller for endpoint (e.g. "users").
func NewController[T any](endpoint string, svc service.Service[T]) *Controller[T] {
	return &Controller[T]{endpoint: endpoint, svc: svc, notFoundTitle: titleNotFound}
}

// EntityIDFromPath returns the path segment following the first segment
// equal to endpoint, or "" when the path ends at the endpoint.
func EntityIDFromPath(path, endpoint string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segs {
		if s == endpoint {
			if i+1 < len(segs) {
				return segs[i+1]
			}
			return ""
		}
	}
	return ""
}

// issueScope returns the issue id of an issue-scoped path such as
// /issues/{issueId}/comments, or "".
func (c *Controller[T]) issueScope(r *http.Request) string {
	if c.endpoint == "issues" {
		return ""
	}
	return EntityIDFromPath(r.URL.Path, "issues")
}

func (c *Controller[T]) id(r *http.Request) string {
	return EntityIDFromPath(r.URL.Path, c.endpoint)
}

// checkScope fails with ErrNotFound when the request path is scoped to an
// issue and v belongs to a different one.
func (c *Controller[T]) checkScope(r *http.Request, id string, v T) error {
	issueID := c.issueScope(r)
	if issueID == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var rec struct {
		IssueID string `json:"issueId"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if rec.IssueID != issueID {
		return fmt.Errorf("no %s with id %s belongs to issue %s: %w", c.endpoint, id, issueID, service.ErrNotFound)
	}
	return nil
}

// ownedByScope loads the record with id and checks it against the issue
// scope of the path. Unscoped paths skip the lookup.
func (c *Controller[T]) ownedByScope(r *http.Request, id string) error {
	if c.issueScope(r) == "" || id == "" {
		return nil
	}
	v, err := c.svc.Get(r.Context(), id)
	if err != nil {
		return err
	}
	return c.checkScope(r, id, v)
}

// Get returns one entity when the path has an id and the filtered list
// otherwise.
func (c *Controller[T]) Get(w http.ResponseWriter, r *http.Request) {
	if id := c.id(r); id != "" {
		v, err := c.svc.Get(r.Context(), id)
		if err == nil {
			err = c.checkScope(r, id, v)
		}
		if err != nil {
			respondError(w, r, err, c.notFoundTitle)
			return
		}
		respondJSON(w, http.StatusOK, v)
		return
	}

	filter := service.FilterFromQuery(r.URL.Query())
	if issueID := c.issueScope(r); issueID != "" {
		filter = filter.With("issueId", issueID)
	}
	list, err := c.svc.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, err, c.notFoundTitle)
		return
	}
	if list == nil {
		list = []T{}
	}
	respondJSON(w, http.StatusOK, list)
}

// Create adds an entity from the request body.
func (c *Controller[T]) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := c.readBody(w, r)
	if !ok {
		return
	}
	if issueID := c.issueScope(r); issueID != "" {
		var err error
		if body, err = setField(body, "issueId", issueID, false); err != nil {
			respondError(w, r, err, c.notFoundTitle)
			return
		}
	}
	v, err := c.svc.Create(r.Context(), body)
	if err != nil {
		respondError(w, r, err, c.notFoundTitle)
		return
	}
	respondJSON(w, http.StatusCreated, v)
}

// Update replaces an entity. The id may come from the path, the body, or
// both as long as they agree.
func (c *Controller[T]) Update(w http.ResponseWriter, r *http.Request) {
	body, ok := c.readBody(w, r)
	if !ok {
		return
	}
	if id := c.id(r); id != "" {
		var err error
		if body, err = setField(body, "id", id, false); err != nil {
			respondError(w, r, err, c.notFoundTitle)
			return
		}
		if err := c.ownedByScope(r, id); err != nil {
			respondError(w, r, err, c.notFoundTitle)
			return
		}
	}
	v, err := c.svc.Update(r.Context(), body)
	if err != nil {
		respondError(w, r, err, c.notFoundTitle)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// Delete removes the entity named in the path.
func (c *Controller[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id := c.id(r)
	if id == "" {
		respondProblem(w, http.StatusBadRequest, titleBadRequest, "Invalid path provided. DELETE requests must contain an id")
		return
	}
	if err := c.ownedByScope(r, id); err != nil {
		respondError(w, r, err, c.notFoundTitle)
		return
	}
	if _, err := c.svc.Delete(r.Context(), id); err != nil {
		respondError(w, r, err, c.notFoundTitle)
		return
	}
	respondEmpty(w, http.StatusOK)
}

// readBody returns the request body, answering 400 itself when the body
// is missing or empty.
func (c *Controller[T]) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			respondProblem(w, http.StatusBadRequest, titleBadRequest, "unable to read request body: "+err.Error())
			return nil, false
		}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		respondProblem(w, http.StatusBadRequest, titleBadRequest, "The request body must not be empty")
		return nil, false
	}
	return body, true
}

// setField sets a string field of a JSON object body. An existing non-empty
// value is kept when overwrite is false, but must equal value.
func setField(body []byte, field, value string, overwrite bool) ([]byte, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("the request body must be a JSON object: %w", service.ErrBadRequest)
	}
	if raw, ok := obj[field]; ok && !overwrite {
		var current string
		if err := json.Unmarshal(raw, &current); err == nil && current != "" {
			if current != value {
				return nil, fmt.Errorf("%s %q in the body does not match %q in the path: %w", field, current, value, service.ErrBadRequest)
			}
			return body, nil
		}
	}
	encoded, _ := json.Marshal(value)
	obj[field] = encoded
	return json.Marshal(obj)
}
