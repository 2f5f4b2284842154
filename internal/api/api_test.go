package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hotticket/internal/entity"
	"hotticket/internal/filestore"
	"hotticket/internal/idgen"
	"hotticket/internal/service"
	"hotticket/internal/timeutil"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler  http.Handler
	votes    *filestore.Memory
	comments *filestore.Memory
	users    *filestore.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		users: filestore.NewMemoryFrom("users", `[
			{"id":"2222","name":"Steven Trinh","role":"Developer"},
			{"id":"1234","name":"Ann Lee","role":"QA"}
		]`),
		comments: filestore.NewMemory("comments"),
		votes:    filestore.NewMemory("votes"),
	}
	opts := []service.Option{
		service.WithIDGenerator(idgen.NewSeeded(7, 11)),
		service.WithClock(func() timeutil.Timestamp { return timeutil.MustParse("Mon May 25 15:30:11 2000") }),
	}
	users := service.NewUserService(ts.users, opts...)
	comments := service.NewCommentService(ts.comments, users, opts...)
	votes := service.NewVoteService(ts.votes, users, opts...)
	issues := service.NewIssueService(filestore.NewMemory("issues"), users, comments, votes, opts...)
	ts.handler = NewRouter(Services{Users: users, Issues: issues, Comments: comments, Votes: votes}, zerolog.Nop())
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) entity.ServerError {
	t.Helper()
	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "body: %s", rec.Body.String())
	return resp.Error
}

func TestEntityIDFromPath(t *testing.T) {
	tests := []struct {
		path, endpoint, want string
	}{
		{"/issues/abc123/comments", "comments", ""},
		{"/issues/abc123/comments/xyz789", "comments", "xyz789"},
		{"/issues/abc123/comments/xyz789/", "comments", "xyz789"},
		{"/issues/abc123/comments", "issues", "abc123"},
		{"/users", "users", ""},
		{"/users/", "users", ""},
		{"/users/2222", "users", "2222"},
		{"/votes", "users", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EntityIDFromPath(tt.path, tt.endpoint), "%s in %s", tt.endpoint, tt.path)
	}
}

func TestAlive(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/alive", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "close", rec.Header().Get("Connection"))
	assert.Equal(t, "0", rec.Header().Get("Content-Length"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestUsers_GetByID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/users/2222", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"2222","name":"Steven Trinh","role":"Developer"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = ts.do(t, http.MethodGet, "/users/9999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, http.StatusNotFound, e.StatusCode)
	assert.Equal(t, "Invalid request", e.Title)
	assert.Contains(t, e.Detail, "9999")
}

func TestUsers_ListAlwaysArray(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/users?role=Manager", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/users?role=QA&role=Developer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var users []entity.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)
}

func TestUsers_CreateUpdateDelete(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/users", `{"name":"Bo","role":"QA"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var u entity.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Len(t, u.ID, idgen.Length)

	rec = ts.do(t, http.MethodPost, "/users", `{"name":"Bo"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid Request", decodeError(t, rec).Title)

	rec = ts.do(t, http.MethodPut, "/users/"+u.ID, `{"name":"Bo Diddley"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Bo Diddley")

	rec = ts.do(t, http.MethodPut, "/users/"+u.ID, `{"id":"other","name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/users/unknown", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/users/"+u.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/users/"+u.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreate_EmptyBody(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/users", "/issues", "/comments", "/votes"} {
		rec := ts.do(t, http.MethodPost, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
	rec := ts.do(t, http.MethodPut, "/users/2222", "  ")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete_WithoutID(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodDelete, "/users", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 2, ts.users.Len())
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/nothing/here", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, decodeError(t, rec).StatusCode)
}

func TestIssues_NestedComments(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/issues", `{"title":"Crash","createdBy":"2222","description":"Steps"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var issue struct {
		ID       string   `json:"id"`
		Status   string   `json:"status"`
		Reporter string   `json:"reporter"`
		Comments []string `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issue))
	assert.Equal(t, "New", issue.Status)
	assert.Equal(t, "2222", issue.Reporter)
	require.Len(t, issue.Comments, 1)

	rec = ts.do(t, http.MethodPost, "/issues/"+issue.ID+"/comments", `{"createdBy":"1234","body":"me too"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"issueId":"`+issue.ID+`"`)

	// A comment on another issue is not listed under this one.
	rec = ts.do(t, http.MethodPost, "/comments", `{"issueId":"elsewhere","createdBy":"1234","body":"x"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodGet, "/issues/"+issue.ID+"/comments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var comments []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comments))
	assert.Len(t, comments, 2)

	rec = ts.do(t, http.MethodGet, "/issues/"+issue.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issue))
	assert.Len(t, issue.Comments, 2)

	rec = ts.do(t, http.MethodGet, "/issues?status=New&status=Fixed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), issue.ID)
	rec = ts.do(t, http.MethodGet, "/issues?status=Closed", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestNestedPath_ByIDIsScopedToIssue(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/comments", `{"issueId":"i1","createdBy":"1234","body":"on i1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))

	rec = ts.do(t, http.MethodGet, "/issues/i1/comments/"+c.ID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/issues/i2/comments/"+c.ID, "")
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Equal(t, "Invalid request", decodeError(t, rec).Title)

	rec = ts.do(t, http.MethodPut, "/issues/i2/comments/"+c.ID, `{"body":"hijack","updatedBy":"2222"}`)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodDelete, "/issues/i2/comments/"+c.ID, "")
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Equal(t, 1, ts.comments.Len())

	rec = ts.do(t, http.MethodPut, "/issues/i1/comments/"+c.ID, `{"body":"edited","updatedBy":"2222"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"body":"edited"`)

	rec = ts.do(t, http.MethodPost, "/issues/i1/votes", `{"createdBy":"2222"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var v struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	rec = ts.do(t, http.MethodGet, "/issues/i2/votes/"+v.ID, "")
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Equal(t, "Not found", decodeError(t, rec).Title)
	rec = ts.do(t, http.MethodGet, "/issues/i1/votes/"+v.ID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestVotes_Toggle(t *testing.T) {
	ts := newTestServer(t)
	body := `{"issueId":"i1","createdBy":"2222"}`

	rec := ts.do(t, http.MethodPost, "/votes", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, ts.votes.Len())

	rec = ts.do(t, http.MethodPost, "/votes", body)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, 0, ts.votes.Len())
}

func TestVotes_ToggleNestedPath(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/issues/i9/votes", `{"createdBy":"1234"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"issueId":"i9"`)

	// Another user's vote on the same issue is independent.
	rec = ts.do(t, http.MethodPost, "/issues/i9/votes", `{"createdBy":"2222"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodGet, "/issues/i9/votes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var votes []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &votes))
	assert.Len(t, votes, 2)
}

func TestVotes_Rejections(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/votes/abc", `{"issueId":"i1","createdBy":"2222"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid path provided. POST requests must not contain a Vote id", decodeError(t, rec).Detail)

	rec = ts.do(t, http.MethodPost, "/votes", `{"issueId":"i1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/votes", `{"issueId":"i1","createdBy":"ghost"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", decodeError(t, rec).Title)

	assert.Equal(t, 0, ts.votes.Len())
}

func TestVotes_UpdateAndDeleteAreNoOps(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/votes", `{"issueId":"i1","createdBy":"2222"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var v entity.Vote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))

	rec = ts.do(t, http.MethodPut, "/votes/"+v.ID, `{"issueId":"i2"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/votes/"+v.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, 1, ts.votes.Len())
	rec = ts.do(t, http.MethodGet, "/votes/"+v.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStorageFailureIs500(t *testing.T) {
	ts := newTestServer(t)
	ts.comments.FailReads = true
	rec := ts.do(t, http.MethodGet, "/comments", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Something went wrong while processing your request", decodeError(t, rec).Title)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(service.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(service.ErrBadRequest))
	assert.Equal(t, http.StatusBadRequest, statusFor(service.ErrAlreadyExists))
	assert.Equal(t, http.StatusInternalServerError, statusFor(service.ErrNotImplemented))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ts := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, ts.handler, zerolog.Nop()) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/alive")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
