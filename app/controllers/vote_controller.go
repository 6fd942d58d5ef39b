package controllers

import (
	"context"
	"net/http"
	"strconv"

	"reddish/app/apierrors"
	"reddish/app/auth"
	"reddish/app/logger"
	"reddish/app/models"
	"reddish/app/services"

	"go.uber.org/zap"
)

// VoteController handles the vote form posts and vote summaries
type VoteController struct {
	base
	voteService *services.VoteService
}

func NewVoteController(voteService *services.VoteService) *VoteController {
	return &VoteController{voteService: voteService}
}

type voteFunc func(context.Context, *models.User, models.VoteTarget) (models.VoteAction, error)

// Upvote toggles an upvote on the postId or commentId form field
func (vc *VoteController) Upvote(w http.ResponseWriter, r *http.Request) {
	vc.toggle(w, r, vc.voteService.Upvote, "Failed to upvote")
}

// Downvote toggles a downvote on the postId or commentId form field
func (vc *VoteController) Downvote(w http.ResponseWriter, r *http.Request) {
	vc.toggle(w, r, vc.voteService.Downvote, "Failed to downvote")
}

// toggle always answers errors as JSON and success with a redirect back to the referring page.
func (vc *VoteController) toggle(w http.ResponseWriter, r *http.Request, vote voteFunc, failure string) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		vc.sendJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
		return
	}

	if err := r.ParseForm(); err != nil {
		vc.sendJSON(w, http.StatusBadRequest, map[string]string{"error": "Either postId or commentId is required"})
		return
	}
	target, ok := formTarget(r)
	if !ok {
		vc.sendJSON(w, http.StatusBadRequest, map[string]string{"error": "Either postId or commentId is required"})
		return
	}

	if _, err := vote(r.Context(), user, target); err != nil {
		if apiErr, ok := apierrors.As(err); ok && apiErr.Code != apierrors.ErrInternalError {
			vc.sendJSON(w, apiErr.Status(), map[string]string{"error": apiErr.Message})
			return
		}
		logger.Log.Error(failure, logger.WithUserID(user.ID), zap.String("target", target.String()), zap.Error(err))
		vc.sendJSON(w, http.StatusInternalServerError, map[string]string{"error": failure})
		return
	}

	redirect := r.Referer()
	if redirect == "" {
		redirect = "/"
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// formTarget prefers postId when both ids are present.
func formTarget(r *http.Request) (models.VoteTarget, bool) {
	if raw := r.FormValue("postId"); raw != "" {
		id, err := strconv.Atoi(raw)
		return models.PostTarget(id), err == nil && id > 0
	}
	if raw := r.FormValue("commentId"); raw != "" {
		id, err := strconv.Atoi(raw)
		return models.CommentTarget(id), err == nil && id > 0
	}
	return models.VoteTarget{}, false
}

// PostVotes returns the vote summary of a post
func (vc *VoteController) PostVotes(w http.ResponseWriter, r *http.Request) {
	vc.summary(w, r, models.TargetPost)
}

// CommentVotes returns the vote summary of a comment
func (vc *VoteController) CommentVotes(w http.ResponseWriter, r *http.Request) {
	vc.summary(w, r, models.TargetComment)
}

func (vc *VoteController) summary(w http.ResponseWriter, r *http.Request, kind models.TargetKind) {
	id, err := pathInt(r, "id")
	if err != nil {
		vc.sendErrorMessage(w, r, "Invalid ID", http.StatusBadRequest)
		return
	}
	target := models.VoteTarget{Kind: kind, ID: id}

	summary, err := vc.voteService.Summary(r.Context(), target)
	if err != nil {
		vc.sendError(w, r, err, "Failed to count votes")
		return
	}
	userVote, err := vc.voteService.UserVote(r.Context(), viewerID(r), target)
	if err != nil {
		vc.sendError(w, r, err, "Failed to count votes")
		return
	}

	vc.sendJSON(w, http.StatusOK, struct {
		models.VoteSummary
		Target   models.VoteTarget `json:"target"`
		UserVote models.VoteType   `json:"userVote,omitempty"`
	}{summary, target, userVote})
}
