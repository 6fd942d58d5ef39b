package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"reddish/app/apierrors"
	"reddish/app/logger"
	"reddish/app/metrics"
	"reddish/app/models"
	"reddish/app/repositories"

	"go.uber.org/zap"
)

const (
	maxCommentLength = 1000
	defaultTopLimit  = 10
)

// CommentService handles business logic for comments
type CommentService struct {
	commentRepo repositories.CommentRepository
	postRepo    repositories.PostRepository
	userRepo    repositories.UserRepository
	votes       *VoteService
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, votes *VoteService) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		votes:       votes,
	}
}

// CreateComment adds a comment to a post, optionally as a reply to parentID
func (s *CommentService) CreateComment(ctx context.Context, author *models.User, postID int, content string, parentID int) (*models.CommentThread, error) {
	if err := requireUser(author); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apierrors.ValidationError("content", "Comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, apierrors.ValidationError("content", fmt.Sprintf("Comment must be at most %d characters", maxCommentLength))
	}

	post, err := s.livePost(postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{Content: content, AuthorID: author.ID}
	if err := comment.SetPost(post); err != nil {
		return nil, apierrors.BadRequest(err.Error())
	}

	if parentID != 0 {
		parent, err := s.commentRepo.GetByID(parentID)
		if err != nil {
			return nil, notFoundOr(err, "Parent comment")
		}
		if err := comment.SetParent(parent); err != nil {
			return nil, apierrors.BadRequest(err.Error())
		}
	}

	comment.BeforeCreate()
	if err := comment.Validate(); err != nil {
		return nil, validationFailed(err)
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	metrics.Get().CommentsCreated.Inc()
	logger.Log.Info("comment created",
		zap.Int("comment_id", comment.ID),
		logger.WithPostID(postID),
		logger.WithUserID(author.ID),
	)
	return &models.CommentThread{Comment: comment, Author: author}, nil
}

// ListPostComments returns the reply tree of a post, oldest first at every level
func (s *CommentService) ListPostComments(ctx context.Context, postID int, viewerID string) ([]*models.CommentThread, error) {
	flat, err := s.threads(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	return models.NestThreads(flat), nil
}

// TopComments returns the highest scoring live comments of a post with their reply counts
func (s *CommentService) TopComments(ctx context.Context, postID, limit int, viewerID string) ([]*models.CommentThread, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	flat, err := s.threads(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}

	// Nesting fills ReplyCount and leaves flat ordered oldest first.
	models.NestThreads(flat)

	top := make([]*models.CommentThread, 0, len(flat))
	for _, t := range flat {
		if t.IsDeleted {
			continue
		}
		t.Replies = nil
		top = append(top, t)
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Votes.NetScore > top[j].Votes.NetScore
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

// CountComments counts every comment on a post, deleted ones included
func (s *CommentService) CountComments(postID int) (int, error) {
	return s.commentRepo.CountByPost(postID)
}

// DeleteComment blanks a comment's content. Only its author may do so.
func (s *CommentService) DeleteComment(ctx context.Context, user *models.User, id int) (*models.Comment, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, "Comment")
	}
	if comment.IsDeleted {
		return nil, apierrors.NotFound("Comment")
	}
	if !comment.IsOwnedBy(user.ID) {
		return nil, apierrors.Forbidden("Only the author can delete this comment")
	}

	comment.SoftDelete()
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, fmt.Errorf("failed to delete comment: %w", err)
	}
	return comment, nil
}

func (s *CommentService) livePost(postID int) (*models.Post, error) {
	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		return nil, notFoundOr(err, "Post")
	}
	if post.IsDeleted {
		return nil, apierrors.NotFound("Post")
	}
	return post, nil
}

// threads loads every comment of a post decorated with author and votes, unnested.
func (s *CommentService) threads(ctx context.Context, postID int, viewerID string) ([]*models.CommentThread, error) {
	if _, err := s.livePost(postID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByPost(postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}

	look := newLookups(s.userRepo, nil)
	flat := make([]*models.CommentThread, 0, len(comments))
	for _, c := range comments {
		t := &models.CommentThread{Comment: c}
		if !c.IsDeleted {
			t.Author = look.user(c.AuthorID)
		}

		target := models.CommentTarget(c.ID)
		if t.Votes, err = s.votes.summary(ctx, target); err != nil {
			return nil, err
		}
		if t.UserVote, err = s.votes.UserVote(ctx, viewerID, target); err != nil {
			return nil, err
		}
		flat = append(flat, t)
	}
	return flat, nil
}
