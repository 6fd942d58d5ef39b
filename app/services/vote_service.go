package services

import (
	"context"
	"errors"
	"fmt"

	"reddish/app/apierrors"
	"reddish/app/cache"
	"reddish/app/logger"
	"reddish/app/metrics"
	"reddish/app/models"
	"reddish/app/repositories"

	"go.uber.org/zap"
)

// VoteService toggles and tallies votes on posts and comments
type VoteService struct {
	voteRepo    repositories.VoteRepository
	postRepo    repositories.PostRepository
	commentRepo repositories.CommentRepository
	cache       *cache.VoteCache
}

// NewVoteService creates a new VoteService. summaries may be nil.
func NewVoteService(voteRepo repositories.VoteRepository, postRepo repositories.PostRepository, commentRepo repositories.CommentRepository, summaries *cache.VoteCache) *VoteService {
	return &VoteService{
		voteRepo:    voteRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		cache:       summaries,
	}
}

// Upvote adds, removes or flips the user's vote towards up.
func (s *VoteService) Upvote(ctx context.Context, user *models.User, target models.VoteTarget) (models.VoteAction, error) {
	return s.toggle(ctx, user, target, models.Upvote)
}

// Downvote adds, removes or flips the user's vote towards down.
func (s *VoteService) Downvote(ctx context.Context, user *models.User, target models.VoteTarget) (models.VoteAction, error) {
	return s.toggle(ctx, user, target, models.Downvote)
}

func (s *VoteService) toggle(ctx context.Context, user *models.User, target models.VoteTarget, requested models.VoteType) (models.VoteAction, error) {
	if err := requireUser(user); err != nil {
		return "", err
	}
	if err := target.Validate(); err != nil {
		return "", apierrors.BadRequest(err.Error())
	}
	if err := s.ensureTarget(target); err != nil {
		return "", err
	}

	action, err := s.voteRepo.Toggle(user.ID, target, requested)
	if err != nil {
		return "", fmt.Errorf("toggling %s on %s: %w", requested, target, err)
	}
	s.cache.Invalidate(ctx, target)

	metrics.Get().VotesTotal.WithLabelValues(string(target.Kind), string(action)).Inc()
	logger.Log.Debug("vote toggled",
		logger.WithUserID(user.ID),
		zap.String("target", target.String()),
		zap.String("requested", string(requested)),
		zap.String("action", string(action)),
	)
	return action, nil
}

// Summary tallies votes on an existing, undeleted target.
func (s *VoteService) Summary(ctx context.Context, target models.VoteTarget) (models.VoteSummary, error) {
	if err := target.Validate(); err != nil {
		return models.VoteSummary{}, apierrors.BadRequest(err.Error())
	}
	if err := s.ensureTarget(target); err != nil {
		return models.VoteSummary{}, err
	}
	return s.summary(ctx, target)
}

// summary skips the existence check; callers already hold the target.
func (s *VoteService) summary(ctx context.Context, target models.VoteTarget) (models.VoteSummary, error) {
	if cached, ok := s.cache.Get(ctx, target); ok {
		return cached, nil
	}
	gen := s.cache.Generation(ctx, target)
	summary, err := s.voteRepo.Summary(target)
	if err != nil {
		return models.VoteSummary{}, fmt.Errorf("counting votes on %s: %w", target, err)
	}
	s.cache.Set(ctx, target, gen, summary)
	return summary, nil
}

// UserVote reports how userID currently votes on target. Anonymous viewers have no vote.
func (s *VoteService) UserVote(ctx context.Context, userID string, target models.VoteTarget) (models.VoteType, error) {
	if userID == "" {
		return models.VoteNone, nil
	}
	vote, err := s.voteRepo.Get(userID, target)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.VoteNone, nil
		}
		return models.VoteNone, err
	}
	return vote.Type, nil
}

func (s *VoteService) ensureTarget(target models.VoteTarget) error {
	switch target.Kind {
	case models.TargetPost:
		post, err := s.postRepo.GetByID(target.ID)
		if err != nil {
			return notFoundOr(err, "Post")
		}
		if post.IsDeleted {
			return apierrors.NotFound("Post")
		}
	case models.TargetComment:
		comment, err := s.commentRepo.GetByID(target.ID)
		if err != nil {
			return notFoundOr(err, "Comment")
		}
		if comment.IsDeleted {
			return apierrors.NotFound("Comment")
		}
	}
	return nil
}
