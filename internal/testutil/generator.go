// Package testutil populates entity services with realistic data for
// tests and benchmarks.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"hotticket/internal/entity"
	"hotticket/internal/service"
)

// Services are the services a Generator writes through.
type Services struct {
	Users    service.Service[entity.User]
	Issues   service.Service[entity.Issue]
	Comments service.Service[entity.Comment]
	Votes    service.Service[entity.Vote]
}

// Generator creates users, issues, comments and votes, remembering the
// ids it created.
type Generator struct {
	svc    Services
	rng    *rand.Rand
	Users  []string
	Issues []string
}

// NewGenerator returns a generator with a fixed seed, so runs are
// reproducible.
func NewGenerator(svc Services, seed uint64) *Generator {
	return &Generator{svc: svc, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func body(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}

// GenerateUsers creates n users named "User 0".."User n-1".
func (g *Generator) GenerateUsers(ctx context.Context, n int) error {
	roles := []string{"Developer", "QA", "Manager"}
	for i := 0; i < n; i++ {
		u, err := g.svc.Users.Create(ctx, body(map[string]string{
			"name": fmt.Sprintf("User %d", len(g.Users)),
			"role": roles[i%len(roles)],
		}))
		if err != nil {
			return fmt.Errorf("create user %d: %w", i, err)
		}
		g.Users = append(g.Users, u.ID)
	}
	return nil
}

func (g *Generator) randomUser() string {
	return g.Users[g.rng.IntN(len(g.Users))]
}

// GenerateIssues creates n issues by random existing users, each with up
// to maxComments comments and a vote from a random subset of users.
func (g *Generator) GenerateIssues(ctx context.Context, n, maxComments int) error {
	if len(g.Users) == 0 {
		return fmt.Errorf("generate users before issues")
	}
	for i := 0; i < n; i++ {
		issue, err := g.svc.Issues.Create(ctx, body(map[string]string{
			"title":     fmt.Sprintf("Issue %d", len(g.Issues)),
			"createdBy": g.randomUser(),
			"status":    entity.Statuses[g.rng.IntN(len(entity.Statuses))],
		}))
		if err != nil {
			return fmt.Errorf("create issue %d: %w", i, err)
		}
		g.Issues = append(g.Issues, issue.ID)

		for c := g.rng.IntN(maxComments + 1); c > 0; c-- {
			if _, err := g.svc.Comments.Create(ctx, body(map[string]string{
				"issueId":   issue.ID,
				"createdBy": g.randomUser(),
				"body":      fmt.Sprintf("comment %d on %s", c, issue.ID),
			})); err != nil {
				return fmt.Errorf("comment on %s: %w", issue.ID, err)
			}
		}
		for _, u := range g.Users {
			if g.rng.IntN(2) == 0 {
				continue
			}
			if _, err := g.svc.Votes.Create(ctx, body(map[string]string{
				"issueId":   issue.ID,
				"createdBy": u,
			})); err != nil {
				return fmt.Errorf("vote on %s: %w", issue.ID, err)
			}
		}
	}
	return nil
}

// Cleanup deletes every issue and user this generator created.
func (g *Generator) Cleanup(ctx context.Context) error {
	for i := len(g.Issues) - 1; i >= 0; i-- {
		if _, err := g.svc.Issues.Delete(ctx, g.Issues[i]); err != nil {
			return fmt.Errorf("cleanup issue %s: %w", g.Issues[i], err)
		}
	}
	for _, id := range g.Users {
		if _, err := g.svc.Users.Delete(ctx, id); err != nil {
			return fmt.Errorf("cleanup user %s: %w", id, err)
		}
	}
	g.Issues, g.Users = nil, nil
	return nil
}
