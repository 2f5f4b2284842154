package service

import (
	"context"
	"fmt"
	"strings"

	"hotticket/internal/entity"
	"hotticket/internal/filestore"
)

// UserService manages users. Names are unique across all users.
type UserService struct {
	repo *Repository[entity.User, *entity.User]
	opts Options
}

// NewUserService returns a UserService persisting to store.
func NewUserService(store filestore.Store, opts ...Option) *UserService {
	o := buildOptions(opts)
	return &UserService{
		repo: NewRepository[entity.User]("User", store, o.IDs),
		opts: o,
	}
}

// List returns the users matching filter.
func (s *UserService) List(ctx context.Context, filter Filter) ([]entity.User, error) {
	return s.repo.List(ctx, filter)
}

// Get returns the user with id.
func (s *UserService) Get(ctx context.Context, id string) (entity.User, error) {
	return s.repo.Get(ctx, id)
}

// Create adds a user. The id is generated; role defaults to Developer.
func (s *UserService) Create(ctx context.Context, body []byte) (entity.User, error) {
	u, err := s.decode(body)
	if err != nil {
		return entity.User{}, err
	}
	return s.repo.Insert(ctx, func(id string, existing *Records) (entity.User, error) {
		if err := checkNameFree(existing, u.Name, id); err != nil {
			return entity.User{}, err
		}
		return u, nil
	})
}

// Update replaces the user whose id is in body.
func (s *UserService) Update(ctx context.Context, body []byte) (entity.User, error) {
	u, err := s.decode(body)
	if err != nil {
		return entity.User{}, err
	}
	return s.repo.Replace(ctx, u.ID, func(_ entity.User, existing *Records) (entity.User, error) {
		if err := checkNameFree(existing, u.Name, u.ID); err != nil {
			return entity.User{}, err
		}
		return u, nil
	})
}

// Delete removes the user with id. Records that reference the user are
// left untouched.
func (s *UserService) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.Delete(ctx, id)
}

func (s *UserService) decode(body []byte) (entity.User, error) {
	u, err := s.repo.Decode(body)
	if err != nil {
		return u, err
	}
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		return u, fmt.Errorf("a User requires a name: %w", ErrBadRequest)
	}
	if u.Role == "" {
		u.Role = entity.DefaultRole
	}
	return u, nil
}

// checkNameFree fails if a record other than selfID already uses name.
func checkNameFree(existing *Records, name, selfID string) error {
	for _, i := range existing.Find(Where("name", name)) {
		if existing.IDAt(i) != selfID {
			return fmt.Errorf("the User already exists with the following name: %s: %w", name, ErrAlreadyExists)
		}
	}
	return nil
}

var _ Service[entity.User] = (*UserService)(nil)
var _ UserLookup = (*UserService)(nil)
