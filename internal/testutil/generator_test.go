package testutil

import (
	"context"
	"sync"
	"testing"

	"hotticket/internal/filestore"
	"hotticket/internal/service"
)

func setupServices(t *testing.T) Services {
	t.Helper()
	dir := t.TempDir()
	open := func(name string) *filestore.File {
		f := filestore.Open(dir, name)
		if err := f.Init(context.Background()); err != nil {
			t.Fatalf("failed to init %s: %v", name, err)
		}
		return f
	}
	users := service.NewUserService(open(filestore.UsersFile))
	comments := service.NewCommentService(open(filestore.CommentsFile), users)
	votes := service.NewVoteService(open(filestore.VotesFile), users)
	issues := service.NewIssueService(open(filestore.IssuesFile), users, comments, votes)
	return Services{Users: users, Issues: issues, Comments: comments, Votes: votes}
}

func TestGenerator(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)
	gen := NewGenerator(svc, 1)

	if err := gen.GenerateIssues(ctx, 1, 0); err == nil {
		t.Error("expected error generating issues without users")
	}
	if err := gen.GenerateUsers(ctx, 4); err != nil {
		t.Fatalf("GenerateUsers: %v", err)
	}
	if err := gen.GenerateIssues(ctx, 5, 3); err != nil {
		t.Fatalf("GenerateIssues: %v", err)
	}
	if len(gen.Users) != 4 || len(gen.Issues) != 5 {
		t.Fatalf("generated %d users, %d issues", len(gen.Users), len(gen.Issues))
	}

	for _, id := range gen.Issues {
		issue, err := svc.Issues.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get(%s): %v", id, err)
		}
		if len(issue.Comments) > 3 || len(issue.Votes) > 4 {
			t.Errorf("issue %s has %d comments, %d votes", id, len(issue.Comments), len(issue.Votes))
		}
		for i := 1; i < len(issue.Comments); i++ {
			if issue.Comments[i].CreatedAt.Before(issue.Comments[i-1].CreatedAt) {
				t.Errorf("comments of %s out of order", id)
			}
		}
	}

	if err := gen.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	issues, _ := svc.Issues.List(ctx, nil)
	users, _ := svc.Users.List(ctx, nil)
	if len(issues) != 0 || len(users) != 0 {
		t.Errorf("after cleanup: %d issues, %d users", len(issues), len(users))
	}
}

// Concurrent writers against the same files must not lose records.
func TestConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)
	seed := NewGenerator(svc, 2)
	if err := seed.GenerateUsers(ctx, 2); err != nil {
		t.Fatal(err)
	}

	const workers, perWorker = 8, 5
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			g := NewGenerator(svc, uint64(100+w))
			g.Users = seed.Users
			if err := g.GenerateIssues(ctx, perWorker, 2); err != nil {
				errs <- err
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	issues, err := svc.Issues.List(ctx, service.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != workers*perWorker {
		t.Errorf("got %d issues, want %d", len(issues), workers*perWorker)
	}
}

func BenchmarkListIssues(b *testing.B) {
	ctx := context.Background()
	dir := b.TempDir()
	users := service.NewUserService(filestore.Open(dir, filestore.UsersFile))
	comments := service.NewCommentService(filestore.Open(dir, filestore.CommentsFile), users)
	votes := service.NewVoteService(filestore.Open(dir, filestore.VotesFile), users)
	issues := service.NewIssueService(filestore.Open(dir, filestore.IssuesFile), users, comments, votes)
	for _, name := range filestore.Files {
		if err := filestore.Open(dir, name).Init(ctx); err != nil {
			b.Fatal(err)
		}
	}
	gen := NewGenerator(Services{Users: users, Issues: issues, Comments: comments, Votes: votes}, 3)
	if err := gen.GenerateUsers(ctx, 10); err != nil {
		b.Fatal(err)
	}
	if err := gen.GenerateIssues(ctx, 50, 4); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := issues.List(ctx, service.Where("status", "New", "Assigned")); err != nil {
			b.Fatal(err)
		}
	}
}
