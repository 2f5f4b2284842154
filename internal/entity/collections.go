package entity

import (
	"encoding/json"
	"sort"
)

// CommentList is the comments of an issue ordered by creation time.
// Comments created in the same second keep their relative order.
// On the wire it is the list of comment ids.
type CommentList []Comment

// SortComments returns comments ordered by CreatedAt ascending, stable.
func SortComments(comments []Comment) CommentList {
	out := make(CommentList, len(comments))
	copy(out, comments)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Insert adds c after every comment created at or before it.
func (l CommentList) Insert(c Comment) CommentList {
	i := sort.Search(len(l), func(i int) bool {
		return c.CreatedAt.Before(l[i].CreatedAt)
	})
	out := make(CommentList, 0, len(l)+1)
	out = append(out, l[:i]...)
	out = append(out, c)
	return append(out, l[i:]...)
}

// IDs returns the comment ids in order.
func (l CommentList) IDs() []string {
	ids := make([]string, len(l))
	for i, c := range l {
		ids[i] = c.ID
	}
	return ids
}

// MarshalJSON writes the comment ids.
func (l CommentList) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.IDs())
}

// UnmarshalJSON reads a list of comment ids into id-only comments.
func (l *CommentList) UnmarshalJSON(data []byte) error {
	ids, err := unmarshalIDs(data)
	if err != nil {
		return err
	}
	out := make(CommentList, len(ids))
	for i, id := range ids {
		out[i].ID = id
	}
	*l = out
	return nil
}

// VoteList is the votes cast on an issue. On the wire it is the list of
// vote ids.
type VoteList []Vote

// IDs returns the vote ids in order.
func (l VoteList) IDs() []string {
	ids := make([]string, len(l))
	for i, v := range l {
		ids[i] = v.ID
	}
	return ids
}

// MarshalJSON writes the vote ids.
func (l VoteList) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.IDs())
}

// UnmarshalJSON reads a list of vote ids into id-only votes.
func (l *VoteList) UnmarshalJSON(data []byte) error {
	ids, err := unmarshalIDs(data)
	if err != nil {
		return err
	}
	out := make(VoteList, len(ids))
	for i, id := range ids {
		out[i].ID = id
	}
	*l = out
	return nil
}

func unmarshalIDs(data []byte) ([]string, error) {
	if string(data) == "null" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
