// Package entity defines the persisted domain records and their JSON
// wire form. References to other records are stored by id only.
package entity

import (
	"bytes"
	"encoding/json"
	"fmt"

	"hotticket/internal/timeutil"
)

// Issue statuses suggested to clients. Status is free text; New is the
// default on create.
const (
	StatusNew      = "New"
	StatusAssigned = "Assigned"
	StatusFixed    = "Fixed"
	StatusWontFix  = "Won't Fix"
	StatusClosed   = "Closed"
)

// Statuses lists the suggested issue statuses in workflow order.
var Statuses = []string{StatusNew, StatusAssigned, StatusFixed, StatusWontFix, StatusClosed}

// DefaultRole is assigned to users created without a role.
const DefaultRole = "Developer"

// Entity is implemented by every persisted record.
type Entity interface {
	EntityID() string
}

// Base carries the id shared by all records.
type Base struct {
	ID string `json:"id"`
}

// EntityID returns the record id.
func (b Base) EntityID() string { return b.ID }

// SetEntityID replaces the record id.
func (b *Base) SetEntityID(id string) { b.ID = id }

// User is a person who reports, comments on, votes for, or is assigned
// issues. Names are unique.
type User struct {
	Base
	Name string `json:"name"`
	Role string `json:"role"`
}

// UserRef is a reference to a User. On the wire it is the user id string;
// in memory it may hold the fully resolved user.
type UserRef struct {
	User
}

// Ref returns a reference holding only id.
func Ref(id string) UserRef {
	return UserRef{User{Base: Base{ID: id}}}
}

// RefTo returns a reference to a resolved user.
func RefTo(u User) UserRef {
	return UserRef{u}
}

// IsZero reports whether the reference points nowhere.
func (r UserRef) IsZero() bool { return r.ID == "" }

// MarshalJSON writes the referenced id.
func (r UserRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// UnmarshalJSON accepts an id string, null, or a user object.
func (r *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = UserRef{}
		return nil
	case len(data) > 0 && data[0] == '{':
		var u User
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		*r = UserRef{u}
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("user reference must be an id string: %w", err)
	}
	*r = Ref(id)
	return nil
}

// MutableEntity tracks who created and last updated a record, and when.
// UpdatedAt and UpdatedBy stay at their null values until the first update.
type MutableEntity struct {
	Base
	CreatedAt timeutil.Timestamp `json:"createdAt"`
	CreatedBy UserRef            `json:"createdBy"`
	UpdatedAt timeutil.Timestamp `json:"updatedAt"`
	UpdatedBy UserRef            `json:"updatedBy"`
}

// Comment is a message on an issue.
type Comment struct {
	MutableEntity
	IssueID string `json:"issueId"`
	Body    string `json:"body"`
}

// Vote records that a user supports an issue. There is at most one vote
// per (issue, user) pair.
type Vote struct {
	MutableEntity
	IssueID string `json:"issueId"`
}

// Issue is a tracked bug or task. Comments and Votes are stored as id
// lists and filled in from their own stores when read.
type Issue struct {
	MutableEntity
	Title      string      `json:"title"`
	Status     string      `json:"status"`
	AssignedTo UserRef     `json:"assignedTo"`
	Reporter   UserRef     `json:"reporter"`
	Comments   CommentList `json:"comments"`
	Votes      VoteList    `json:"votes"`
}
