package models

import (
	"fmt"
	"strconv"
)

// VoteType is the direction of a vote. The zero value means no vote.
type VoteType string

const (
	VoteNone VoteType = ""
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

// Valid reports whether t is a concrete vote direction.
func (t VoteType) Valid() bool {
	return t == Upvote || t == Downvote
}

// TargetKind distinguishes post votes from comment votes.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// VoteTarget identifies exactly one post or one comment.
type VoteTarget struct {
	Kind TargetKind `json:"kind"`
	ID   int        `json:"id"`
}

func PostTarget(id int) VoteTarget    { return VoteTarget{Kind: TargetPost, ID: id} }
func CommentTarget(id int) VoteTarget { return VoteTarget{Kind: TargetComment, ID: id} }

// Validate checks the target refers to a known kind and a positive id.
func (t VoteTarget) Validate() error {
	if t.Kind != TargetPost && t.Kind != TargetComment {
		return fmt.Errorf("unknown vote target kind %q", t.Kind)
	}
	if t.ID <= 0 {
		return fmt.Errorf("invalid %s id %d", t.Kind, t.ID)
	}
	return nil
}

func (t VoteTarget) String() string {
	return string(t.Kind) + ":" + strconv.Itoa(t.ID)
}

// VoteAction is what a toggle did to the stored vote.
type VoteAction string

const (
	VoteCreated  VoteAction = "created"
	VoteSwitched VoteAction = "switched"
	VoteRemoved  VoteAction = "removed"
)

// NextVote applies a vote request to the current state.
// Repeating the current direction clears it, the opposite direction switches it,
// and a request with no existing vote creates one.
func NextVote(current, requested VoteType) (VoteType, VoteAction) {
	switch current {
	case VoteNone:
		return requested, VoteCreated
	case requested:
		return VoteNone, VoteRemoved
	default:
		return requested, VoteSwitched
	}
}

// VoteSummary aggregates the votes on one target.
type VoteSummary struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	NetScore  int `json:"netScore"`
	Total     int `json:"total"`
}

// Add counts one vote of type t.
func (s *VoteSummary) Add(t VoteType) {
	switch t {
	case Upvote:
		s.Upvotes++
	case Downvote:
		s.Downvotes++
	default:
		return
	}
	s.NetScore = s.Upvotes - s.Downvotes
	s.Total = s.Upvotes + s.Downvotes
}
