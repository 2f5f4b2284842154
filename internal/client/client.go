// Package client talks to a running hotticket server over its REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hotticket/internal/entity"
)

// DefaultTimeout bounds each request made by a Client.
const DefaultTimeout = 10 * time.Second

// ServerError is a non-2xx response decoded from the server's error body.
type ServerError struct {
	Title      string
	Detail     string
	StatusCode int
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s (%d)", e.Title, e.StatusCode)
	}
	return fmt.Sprintf("%s (%d): %s", e.Title, e.StatusCode, e.Detail)
}

// Client is a typed wrapper over the HTTP API.
type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a client for the server at baseURL.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server url %q must include scheme and host", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{base: u, http: httpClient}, nil
}

// Alive reports nil when the server answers its liveness check.
func (c *Client) Alive(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/alive", nil, nil, nil)
}

// ListUsers returns the users matching query.
func (c *Client) ListUsers(ctx context.Context, query url.Values) ([]entity.User, error) {
	var out []entity.User
	return out, c.do(ctx, http.MethodGet, "/users", query, nil, &out)
}

// CreateUser creates a user with the given name and role.
func (c *Client) CreateUser(ctx context.Context, name, role string) (entity.User, error) {
	var out entity.User
	in := map[string]string{"name": name, "role": role}
	return out, c.do(ctx, http.MethodPost, "/users", nil, in, &out)
}

// Issue is the wire form of an issue: references are ids, comments and
// votes are id lists.
type Issue struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Status     string   `json:"status"`
	AssignedTo string   `json:"assignedTo"`
	Reporter   string   `json:"reporter"`
	CreatedAt  string   `json:"createdAt"`
	CreatedBy  string   `json:"createdBy"`
	UpdatedAt  string   `json:"updatedAt"`
	UpdatedBy  string   `json:"updatedBy"`
	Comments   []string `json:"comments"`
	Votes      []string `json:"votes"`
}

// NewIssue is the body of CreateIssue.
type NewIssue struct {
	Title       string `json:"title"`
	CreatedBy   string `json:"createdBy"`
	AssignedTo  string `json:"assignedTo,omitempty"`
	Description string `json:"description,omitempty"`
}

// GetIssue returns the issue with id.
func (c *Client) GetIssue(ctx context.Context, id string) (Issue, error) {
	var out Issue
	return out, c.do(ctx, http.MethodGet, "/issues/"+url.PathEscape(id), nil, nil, &out)
}

// ListIssues returns the issues matching query.
func (c *Client) ListIssues(ctx context.Context, query url.Values) ([]Issue, error) {
	var out []Issue
	return out, c.do(ctx, http.MethodGet, "/issues", query, nil, &out)
}

// CreateIssue creates an issue.
func (c *Client) CreateIssue(ctx context.Context, in NewIssue) (Issue, error) {
	var out Issue
	return out, c.do(ctx, http.MethodPost, "/issues", nil, in, &out)
}

// UpdateIssue replaces issue on the server, recording updatedBy.
func (c *Client) UpdateIssue(ctx context.Context, issue Issue, updatedBy string) (Issue, error) {
	issue.UpdatedBy = updatedBy
	var out Issue
	return out, c.do(ctx, http.MethodPut, "/issues/"+url.PathEscape(issue.ID), nil, issue, &out)
}

// Comment is the wire form of a comment.
type Comment struct {
	ID        string `json:"id"`
	IssueID   string `json:"issueId"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
	CreatedBy string `json:"createdBy"`
	UpdatedAt string `json:"updatedAt"`
	UpdatedBy string `json:"updatedBy"`
}

// ListComments returns the comments on an issue.
func (c *Client) ListComments(ctx context.Context, issueID string) ([]Comment, error) {
	var out []Comment
	return out, c.do(ctx, http.MethodGet, "/issues/"+url.PathEscape(issueID)+"/comments", nil, nil, &out)
}

// CreateComment adds a comment to an issue.
func (c *Client) CreateComment(ctx context.Context, issueID, userID, body string) (Comment, error) {
	var out Comment
	in := map[string]string{"createdBy": userID, "body": body}
	return out, c.do(ctx, http.MethodPost, "/issues/"+url.PathEscape(issueID)+"/comments", nil, in, &out)
}

// ToggleVote flips userID's vote on an issue. It reports whether a vote
// now exists.
func (c *Client) ToggleVote(ctx context.Context, issueID, userID string) (bool, error) {
	in := map[string]string{"issueId": issueID, "createdBy": userID}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/votes", nil, in, &out); err != nil {
		return false, err
	}
	return out.ID != "", nil
}

// do sends a request and decodes a JSON response into out when the
// response has a body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var body entity.ErrorResponse
	if err := json.Unmarshal(data, &body); err != nil || body.Error.Title == "" {
		return &ServerError{Title: http.StatusText(status), Detail: strings.TrimSpace(string(data)), StatusCode: status}
	}
	e := &ServerError{Title: body.Error.Title, Detail: body.Error.Detail, StatusCode: body.Error.StatusCode}
	if e.StatusCode == 0 {
		e.StatusCode = status
	}
	return e
}
