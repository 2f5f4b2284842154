package service

import (
	"context"
	"encoding/json"
	"fmt"

	"hotticket/internal/entity"
	"hotticket/internal/filestore"
)

// CommentSource is the part of CommentService an IssueService needs.
type CommentSource interface {
	List(ctx context.Context, filter Filter) ([]entity.Comment, error)
	Create(ctx context.Context, body []byte) (entity.Comment, error)
}

// VoteSource is the part of VoteService an IssueService needs.
type VoteSource interface {
	List(ctx context.Context, filter Filter) ([]entity.Vote, error)
}

// IssueService manages issues. Issues returned by it carry resolved user
// references and the live comments and votes of the issue.
type IssueService struct {
	repo     *Repository[entity.Issue, *entity.Issue]
	resolver resolver
	comments CommentSource
	votes    VoteSource
	opts     Options
}

// NewIssueService returns an IssueService persisting to store.
func NewIssueService(store filestore.Store, users UserLookup, comments CommentSource, votes VoteSource, opts ...Option) *IssueService {
	o := buildOptions(opts)
	return &IssueService{
		repo:     NewRepository[entity.Issue]("Issue", store, o.IDs),
		resolver: resolver{users: users, log: o.Logger},
		comments: comments,
		votes:    votes,
		opts:     o,
	}
}

// createIssueRequest is the body accepted by Create: an issue plus an
// optional description that becomes its first comment.
type createIssueRequest struct {
	entity.Issue
	Description string `json:"description"`
}

// List returns the issues matching filter.
func (s *IssueService) List(ctx context.Context, filter Filter) ([]entity.Issue, error) {
	issues, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range issues {
		if err := s.populate(ctx, &issues[i]); err != nil {
			return nil, err
		}
	}
	return issues, nil
}

// Get returns the issue with id.
func (s *IssueService) Get(ctx context.Context, id string) (entity.Issue, error) {
	issue, err := s.repo.Get(ctx, id)
	if err != nil {
		return issue, err
	}
	return issue, s.populate(ctx, &issue)
}

// Create adds an issue. Status defaults to New and reporter to the
// creator. A non-empty description is stored as a comment by the creator.
func (s *IssueService) Create(ctx context.Context, body []byte) (entity.Issue, error) {
	req, err := decodeBody[createIssueRequest]("Issue", body, serverOwnedOnCreate...)
	if err != nil {
		return entity.Issue{}, err
	}
	issue := req.Issue

	if err := s.resolver.require(ctx, &issue.CreatedBy, "createdBy"); err != nil {
		return issue, err
	}
	if err := s.resolver.optional(ctx, &issue.AssignedTo); err != nil {
		return issue, err
	}
	if issue.Reporter.IsZero() || issue.Reporter.ID == issue.CreatedBy.ID {
		issue.Reporter = issue.CreatedBy
	} else if err := s.resolver.optional(ctx, &issue.Reporter); err != nil {
		return issue, err
	}
	if issue.Status == "" {
		issue.Status = entity.StatusNew
	}
	stampCreated(&issue.MutableEntity, s.opts.Now())
	issue.Comments = entity.CommentList{}
	issue.Votes = entity.VoteList{}

	// The description comment is created inside the issue store's cycle so
	// that its id is persisted with the issue. Lock order is always
	// issues before comments.
	return s.repo.Insert(ctx, func(id string, _ *Records) (entity.Issue, error) {
		if req.Description == "" {
			return issue, nil
		}
		c, err := s.comments.Create(ctx, descriptionComment(id, issue.CreatedBy.ID, req.Description))
		if err != nil {
			return issue, fmt.Errorf("creating description comment: %w", err)
		}
		issue.Comments = issue.Comments.Insert(c)
		return issue, nil
	})
}

func descriptionComment(issueID, userID, text string) []byte {
	body, _ := json.Marshal(map[string]string{
		"issueId":   issueID,
		"createdBy": userID,
		"body":      text,
	})
	return body
}

// Update replaces the issue whose id is in body. Creation provenance is
// kept from the stored record; an empty status or reporter keeps the
// stored value.
func (s *IssueService) Update(ctx context.Context, body []byte) (entity.Issue, error) {
	issue, err := s.repo.Decode(body, serverOwnedOnUpdate...)
	if err != nil {
		return issue, err
	}
	if err := s.resolver.require(ctx, &issue.UpdatedBy, "updatedBy"); err != nil {
		return issue, err
	}
	if err := s.resolver.optional(ctx, &issue.AssignedTo); err != nil {
		return issue, err
	}
	if err := s.resolver.optional(ctx, &issue.Reporter); err != nil {
		return issue, err
	}

	updated, err := s.repo.Replace(ctx, issue.ID, func(stored entity.Issue, _ *Records) (entity.Issue, error) {
		stampUpdated(&issue.MutableEntity, stored.MutableEntity, s.opts.Now())
		if issue.Status == "" {
			issue.Status = stored.Status
		}
		if issue.Reporter.IsZero() {
			issue.Reporter = stored.Reporter
		}
		if err := s.attach(ctx, &issue); err != nil {
			return issue, err
		}
		return issue, nil
	})
	if err != nil {
		return updated, err
	}
	return updated, s.resolver.lenient(ctx, &updated.CreatedBy, &updated.Reporter)
}

// Delete removes the issue with id. Its comments and votes are kept.
func (s *IssueService) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// populate resolves user references and attaches live comments and votes.
func (s *IssueService) populate(ctx context.Context, issue *entity.Issue) error {
	if err := s.resolver.lenient(ctx, &issue.CreatedBy, &issue.Reporter, &issue.AssignedTo, &issue.UpdatedBy); err != nil {
		return err
	}
	return s.attach(ctx, issue)
}

// attach replaces the stored comment and vote ids with the current
// records, comments ordered by creation time.
func (s *IssueService) attach(ctx context.Context, issue *entity.Issue) error {
	filter := Where("issueId", issue.ID)
	votes, err := s.votes.List(ctx, filter)
	if err != nil {
		return err
	}
	comments, err := s.comments.List(ctx, filter)
	if err != nil {
		return err
	}
	issue.Votes = entity.VoteList(votes)
	issue.Comments = entity.SortComments(comments)
	return nil
}

var _ Service[entity.Issue] = (*IssueService)(nil)
