package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"hotticket/internal/entity"
	"hotticket/internal/service"
)

// VoteController serves /votes. POST toggles a user's vote on an issue;
// PUT and DELETE are accepted and ignored.
type VoteController struct {
	*Controller[entity.Vote]
}

// NewVoteController returns a VoteController over svc.
func NewVoteController(svc service.Service[entity.Vote]) *VoteController {
	c := NewController[entity.Vote]("votes", svc)
	c.notFoundTitle = "Not found"
	return &VoteController{Controller: c}
}

type toggleRequest struct {
	IssueID   string         `json:"issueId"`
	CreatedBy entity.UserRef `json:"createdBy"`
}

// Create removes the caller's vote on the issue if one exists and adds one
// otherwise. It answers 201 with the new vote or 204 after a removal.
func (c *VoteController) Create(w http.ResponseWriter, r *http.Request) {
	if c.id(r) != "" {
		respondProblem(w, http.StatusBadRequest, titleBadRequest, "Invalid path provided. POST requests must not contain a Vote id")
		return
	}
	body, ok := c.readBody(w, r)
	if !ok {
		return
	}
	if issueID := c.issueScope(r); issueID != "" {
		var err error
		if body, err = setField(body, "issueId", issueID, true); err != nil {
			respondError(w, r, err, c.notFoundTitle)
			return
		}
	}

	var req toggleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, r, fmt.Errorf("unable to use the following Vote information: %s: %v: %w", body, err, service.ErrBadRequest), c.notFoundTitle)
		return
	}
	if req.IssueID == "" || req.CreatedBy.IsZero() {
		respondError(w, r, fmt.Errorf("a Vote requires an issueId and a createdBy: %w", service.ErrBadRequest), c.notFoundTitle)
		return
	}

	ctx := r.Context()
	existing, err := c.svc.List(ctx, service.Filter{
		"issueId":   {req.IssueID},
		"createdBy": {req.CreatedBy.ID},
	})
	if err != nil {
		respondError(w, r, err, c.notFoundTitle)
		return
	}
	if len(existing) == 0 {
		v, err := c.svc.Create(ctx, body)
		if err != nil {
			respondError(w, r, err, c.notFoundTitle)
			return
		}
		respondJSON(w, http.StatusCreated, v)
		return
	}
	for _, v := range existing {
		if _, err := c.svc.Delete(ctx, v.ID); err != nil {
			respondError(w, r, err, c.notFoundTitle)
			return
		}
	}
	respondEmpty(w, http.StatusNoContent)
}

// Update does nothing; votes are only toggled.
func (c *VoteController) Update(w http.ResponseWriter, r *http.Request) {
	respondEmpty(w, http.StatusNoContent)
}

// Delete does nothing; votes are only toggled.
func (c *VoteController) Delete(w http.ResponseWriter, r *http.Request) {
	respondEmpty(w, http.StatusNoContent)
}
