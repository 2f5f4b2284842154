package service

import (
	"context"
	"errors"
	"fmt"

	"hotticket/internal/entity"
	"hotticket/internal/timeutil"

	"github.com/rs/zerolog"
)

// UserLookup resolves user ids. UserService satisfies it; tests inject
// fakes.
type UserLookup interface {
	Get(ctx context.Context, id string) (entity.User, error)
}

// resolver fills UserRefs with the referenced users.
//
// On write paths a reference that cannot be resolved fails the request.
// On read paths a dangling reference (the user was deleted, there is no
// cascade) is left holding the bare id and logged.
type resolver struct {
	users UserLookup
	log   zerolog.Logger
}

// require resolves ref, failing with ErrBadRequest if it is empty.
func (r resolver) require(ctx context.Context, ref *entity.UserRef, field string) error {
	if ref.IsZero() {
		return fmt.Errorf("%s is required: %w", field, ErrBadRequest)
	}
	return r.optional(ctx, ref)
}

// optional resolves ref if it is set.
func (r resolver) optional(ctx context.Context, ref *entity.UserRef) error {
	if ref.IsZero() {
		return nil
	}
	u, err := r.users.Get(ctx, ref.ID)
	if err != nil {
		return err
	}
	*ref = entity.RefTo(u)
	return nil
}

// lenient resolves each set ref, tolerating missing users.
func (r resolver) lenient(ctx context.Context, refs ...*entity.UserRef) error {
	for _, ref := range refs {
		if ref.IsZero() {
			continue
		}
		u, err := r.users.Get(ctx, ref.ID)
		if errors.Is(err, ErrNotFound) {
			r.log.Warn().Str("user_id", ref.ID).Msg("dangling user reference")
			continue
		}
		if err != nil {
			return err
		}
		*ref = entity.RefTo(u)
	}
	return nil
}

// stampCreated sets the server-owned provenance fields of a new record,
// discarding anything the client supplied for them.
func stampCreated(m *entity.MutableEntity, now timeutil.Timestamp) {
	m.CreatedAt = now
	m.UpdatedAt = timeutil.Null()
	m.UpdatedBy = entity.UserRef{}
}

// stampUpdated carries creation provenance over from the stored record and
// sets UpdatedAt, regardless of what the client sent.
func stampUpdated(m *entity.MutableEntity, stored entity.MutableEntity, now timeutil.Timestamp) {
	m.CreatedAt = stored.CreatedAt
	m.CreatedBy = stored.CreatedBy
	m.UpdatedAt = now
}
