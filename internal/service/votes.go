package service

import (
	"context"
	"fmt"

	"hotticket/internal/entity"
	"hotticket/internal/filestore"
)

// VoteService manages votes. Votes are immutable: they are created and
// deleted, never updated.
type VoteService struct {
	repo     *Repository[entity.Vote, *entity.Vote]
	resolver resolver
	opts     Options
}

// NewVoteService returns a VoteService persisting to store.
func NewVoteService(store filestore.Store, users UserLookup, opts ...Option) *VoteService {
	o := buildOptions(opts)
	return &VoteService{
		repo:     NewRepository[entity.Vote]("Vote", store, o.IDs),
		resolver: resolver{users: users, log: o.Logger},
		opts:     o,
	}
}

// List returns the votes matching filter.
func (s *VoteService) List(ctx context.Context, filter Filter) ([]entity.Vote, error) {
	votes, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range votes {
		if err := s.resolver.lenient(ctx, &votes[i].CreatedBy); err != nil {
			return nil, err
		}
	}
	return votes, nil
}

// Get returns the vote with id.
func (s *VoteService) Get(ctx context.Context, id string) (entity.Vote, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return v, err
	}
	return v, s.resolver.lenient(ctx, &v.CreatedBy)
}

// Create adds a vote. issueId and createdBy are required. Uniqueness per
// (issue, user) is enforced by the toggle endpoint, not here.
func (s *VoteService) Create(ctx context.Context, body []byte) (entity.Vote, error) {
	v, err := s.repo.Decode(body, serverOwnedOnCreate...)
	if err != nil {
		return v, err
	}
	if v.IssueID == "" {
		return v, fmt.Errorf("a Vote requires an issueId: %w", ErrBadRequest)
	}
	if err := s.resolver.require(ctx, &v.CreatedBy, "createdBy"); err != nil {
		return v, err
	}
	stampCreated(&v.MutableEntity, s.opts.Now())
	return s.repo.Insert(ctx, func(string, *Records) (entity.Vote, error) {
		return v, nil
	})
}

// Update always fails with ErrNotImplemented.
func (s *VoteService) Update(ctx context.Context, body []byte) (entity.Vote, error) {
	return entity.Vote{}, fmt.Errorf("votes cannot be updated, only created or deleted: %w", ErrNotImplemented)
}

// Delete removes the vote with id.
func (s *VoteService) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.Delete(ctx, id)
}

var _ Service[entity.Vote] = (*VoteService)(nil)
