package service

import (
	"context"
	"fmt"

	"hotticket/internal/entity"
	"hotticket/internal/filestore"
)

// CommentService manages comments. Every comment returned has its user
// references resolved.
type CommentService struct {
	repo     *Repository[entity.Comment, *entity.Comment]
	resolver resolver
	opts     Options
}

// NewCommentService returns a CommentService persisting to store and
// resolving authors through users.
func NewCommentService(store filestore.Store, users UserLookup, opts ...Option) *CommentService {
	o := buildOptions(opts)
	return &CommentService{
		repo:     NewRepository[entity.Comment]("Comment", store, o.IDs),
		resolver: resolver{users: users, log: o.Logger},
		opts:     o,
	}
}

// List returns the comments matching filter in store order.
func (s *CommentService) List(ctx context.Context, filter Filter) ([]entity.Comment, error) {
	comments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		if err := s.resolve(ctx, &comments[i]); err != nil {
			return nil, err
		}
	}
	return comments, nil
}

// Get returns the comment with id.
func (s *CommentService) Get(ctx context.Context, id string) (entity.Comment, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return c, err
	}
	return c, s.resolve(ctx, &c)
}

// Create adds a comment. issueId and createdBy are required.
func (s *CommentService) Create(ctx context.Context, body []byte) (entity.Comment, error) {
	c, err := s.repo.Decode(body, serverOwnedOnCreate...)
	if err != nil {
		return c, err
	}
	if c.IssueID == "" {
		return c, fmt.Errorf("a Comment requires an issueId: %w", ErrBadRequest)
	}
	if err := s.resolver.require(ctx, &c.CreatedBy, "createdBy"); err != nil {
		return c, err
	}
	stampCreated(&c.MutableEntity, s.opts.Now())
	return s.repo.Insert(ctx, func(string, *Records) (entity.Comment, error) {
		return c, nil
	})
}

// Update replaces the body of the comment whose id is in body. The issue
// a comment belongs to cannot change.
func (s *CommentService) Update(ctx context.Context, body []byte) (entity.Comment, error) {
	c, err := s.repo.Decode(body, serverOwnedOnUpdate...)
	if err != nil {
		return c, err
	}
	if err := s.resolver.require(ctx, &c.UpdatedBy, "updatedBy"); err != nil {
		return c, err
	}
	updated, err := s.repo.Replace(ctx, c.ID, func(stored entity.Comment, _ *Records) (entity.Comment, error) {
		stampUpdated(&c.MutableEntity, stored.MutableEntity, s.opts.Now())
		c.IssueID = stored.IssueID
		return c, nil
	})
	if err != nil {
		return updated, err
	}
	return updated, s.resolver.lenient(ctx, &updated.CreatedBy)
}

// Delete removes the comment with id.
func (s *CommentService) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.Delete(ctx, id)
}

func (s *CommentService) resolve(ctx context.Context, c *entity.Comment) error {
	return s.resolver.lenient(ctx, &c.CreatedBy, &c.UpdatedBy)
}

var _ Service[entity.Comment] = (*CommentService)(nil)
