package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hotticket/internal/client"
	"hotticket/internal/config"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// newTestApp starts a server over a fresh data dir and returns an App
// pointed at it, plus the id of a seeded user.
func newTestApp(t *testing.T) (*App, *bytes.Buffer, string) {
	t.Helper()
	handler, err := buildHandler(context.Background(), t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("buildHandler: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	u, err := c.CreateUser(context.Background(), "Steven Trinh", "Developer")
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	var out bytes.Buffer
	cfg := config.Default()
	cfg.Client.URL = srv.URL
	app := &App{
		Config: cfg,
		Client: c,
		Out:    &out,
		Err:    &out,
		Getenv: func(string) string { return "" },
	}
	return app, &out, u.ID
}

func run(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func TestInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	var out bytes.Buffer
	provider := &AppProvider{DataDir: dir, Out: &out, Getenv: func(string) string { return "" }}

	if err := run(t, newInitCmd(provider)); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	for _, name := range []string{"users.json", "issues.json", "comments.json", "votes.json"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("%s not created: %v", name, err)
		}
		if strings.TrimSpace(string(data)) != "[]" {
			t.Errorf("%s = %q, want []", name, data)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, config.DefaultFileName)); err != nil {
		t.Errorf("config not created: %v", err)
	}

	// Existing data survives a second init.
	if err := os.WriteFile(filepath.Join(dir, "users.json"), []byte(`[{"id":"2222","name":"x","role":"QA"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := run(t, newInitCmd(provider)); err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "users.json"))
	if !strings.Contains(string(data), "2222") {
		t.Errorf("init overwrote users.json: %s", data)
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultFileName)
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\nclient:\n  url: http://file:1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	env := map[string]string{config.EnvPort: "9100", config.EnvServerURL: "http://env:2"}
	p := &AppProvider{DataDir: dir, ServerURL: "http://flag:3", Getenv: func(k string) string { return env[k] }}

	cfg, got, err := p.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want env value 9100", cfg.Server.Port)
	}
	if cfg.Client.URL != "http://flag:3" {
		t.Errorf("url = %q, want flag value", cfg.Client.URL)
	}
	if cfg.Storage.Dir != dir {
		t.Errorf("dir = %q, want %q", cfg.Storage.Dir, dir)
	}
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	p := &AppProvider{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")}
	if _, _, err := p.loadConfig(); err == nil {
		t.Error("expected error for missing --config file")
	}
}

func TestAlive(t *testing.T) {
	app, out, _ := newTestApp(t)
	if err := run(t, newAliveCmd(NewTestProvider(app))); err != nil {
		t.Fatalf("alive: %v", err)
	}
	if !strings.Contains(out.String(), "alive") {
		t.Errorf("output = %q", out.String())
	}
}

func TestUserCommands(t *testing.T) {
	app, out, _ := newTestApp(t)
	provider := NewTestProvider(app)

	if err := run(t, newUserCmd(provider), "create", "Ann Lee", "--role", "QA"); err != nil {
		t.Fatalf("user create: %v", err)
	}
	if !strings.Contains(out.String(), "Ann Lee") {
		t.Errorf("create output = %q", out.String())
	}

	out.Reset()
	if err := run(t, newUserCmd(provider), "list", "--role", "QA"); err != nil {
		t.Fatalf("user list: %v", err)
	}
	if !strings.Contains(out.String(), "Ann Lee") || strings.Contains(out.String(), "Steven") {
		t.Errorf("list output = %q", out.String())
	}

	if err := run(t, newUserCmd(provider), "create", strings.Repeat("x", 65)); err == nil {
		t.Error("expected error for a 65 character name")
	}
	if err := run(t, newUserCmd(provider), "create", "Ann Lee"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("duplicate create error = %v", err)
	}
}

func TestIssueWorkflow(t *testing.T) {
	app, out, userID := newTestApp(t)
	provider := NewTestProvider(app)
	app.JSON = true

	if err := run(t, newIssueCmd(provider), "create", "Crash on save", "--as", userID, "-m", "Steps to reproduce"); err != nil {
		t.Fatalf("issue create: %v", err)
	}
	var issue client.Issue
	if err := json.Unmarshal(out.Bytes(), &issue); err != nil {
		t.Fatalf("decoding create output %q: %v", out.String(), err)
	}
	if issue.Status != "New" || issue.Reporter != userID || len(issue.Comments) != 1 {
		t.Errorf("created issue = %+v", issue)
	}

	out.Reset()
	if err := run(t, newIssueCmd(provider), "assign", issue.ID, userID, "--as", userID); err != nil {
		t.Fatalf("issue assign: %v", err)
	}
	if err := json.Unmarshal(out.Bytes(), &issue); err != nil {
		t.Fatal(err)
	}
	if issue.AssignedTo != userID || issue.Status != "Assigned" {
		t.Errorf("assigned issue = %+v", issue)
	}

	out.Reset()
	if err := run(t, newIssueCmd(provider), "status", issue.ID, "Won't Fix", "--as", userID); err != nil {
		t.Fatalf("issue status: %v", err)
	}
	if err := run(t, newIssueCmd(provider), "status", issue.ID, "Done", "--as", userID); err == nil {
		t.Error("expected error for unknown status")
	}

	app.JSON = false
	out.Reset()
	if err := run(t, newIssueCmd(provider), "show", issue.ID); err != nil {
		t.Fatalf("issue show: %v", err)
	}
	for _, want := range []string{"Crash on save", "Won't Fix", "Steps to reproduce", userID} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("show output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := run(t, newIssueCmd(provider), "list", "--status", "Won't Fix", "--status", "New"); err != nil {
		t.Fatalf("issue list: %v", err)
	}
	if !strings.Contains(out.String(), issue.ID) {
		t.Errorf("list output = %q", out.String())
	}
	out.Reset()
	if err := run(t, newIssueCmd(provider), "list", "--status", "Closed"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No issues found.") {
		t.Errorf("filtered list output = %q", out.String())
	}
}

func TestCommentAndVote(t *testing.T) {
	app, out, userID := newTestApp(t)
	provider := NewTestProvider(app)

	issue, err := app.Client.CreateIssue(context.Background(), client.NewIssue{Title: "t", CreatedBy: userID})
	if err != nil {
		t.Fatal(err)
	}

	if err := run(t, newCommentCmd(provider), "add", issue.ID, "looks", "bad", "--as", userID); err != nil {
		t.Fatalf("comment add: %v", err)
	}
	out.Reset()
	if err := run(t, newCommentCmd(provider), "list", issue.ID); err != nil {
		t.Fatalf("comment list: %v", err)
	}
	if !strings.Contains(out.String(), "looks bad") {
		t.Errorf("comment list = %q", out.String())
	}

	out.Reset()
	if err := run(t, newVoteCmd(provider), issue.ID, "--as", userID); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if !strings.Contains(out.String(), "Voted") {
		t.Errorf("first vote output = %q", out.String())
	}
	out.Reset()
	if err := run(t, newVoteCmd(provider), issue.ID, "--as", userID); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if !strings.Contains(out.String(), "Vote removed") {
		t.Errorf("second vote output = %q", out.String())
	}
}

func TestResolveUser(t *testing.T) {
	app := &App{Getenv: func(k string) string {
		if k == config.EnvUser {
			return "abcdefghij"
		}
		return ""
	}}
	if id, err := resolveUser(app, ""); err != nil || id != "abcdefghij" {
		t.Errorf("resolveUser(env) = %q, %v", id, err)
	}
	if id, err := resolveUser(app, "0123456789"); err != nil || id != "0123456789" {
		t.Errorf("resolveUser(flag) = %q, %v", id, err)
	}
	if _, err := resolveUser(app, "Short"); err == nil {
		t.Error("expected error for malformed id")
	}

	app.Getenv = func(string) string { return "" }
	if _, err := resolveUser(app, ""); err == nil {
		t.Error("expected error without a user")
	}
}

func TestCheckID(t *testing.T) {
	if err := checkID("issue id", "abc123xyz0"); err != nil {
		t.Errorf("valid id rejected: %v", err)
	}
	for _, bad := range []string{"", "abc", "ABC123XYZ0", "abc-23xyz0"} {
		if err := checkID("issue id", bad); err == nil {
			t.Errorf("checkID(%q) accepted", bad)
		}
	}
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd(&AppProvider{})
	for _, name := range []string{"serve", "init", "alive", "user", "issue", "comment", "vote"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("missing command %q", name)
		}
	}
	serve, _, _ := root.Find([]string{"serve"})
	if f := serve.Flags().ShorthandLookup("p"); f == nil || f.DefValue != "8080" {
		t.Error("serve should have -p with default 8080")
	}
	if serve.Flags().ShorthandLookup("d") == nil {
		t.Error("serve should have -d")
	}
}

func TestRelTime(t *testing.T) {
	if got := relTime(""); got != "-" {
		t.Errorf("relTime(\"\") = %q", got)
	}
	if got := relTime("Mon May 25 15:30:11 2000"); !strings.Contains(got, "ago") {
		t.Errorf("relTime(past) = %q", got)
	}
}
