package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"reddish/app/apierrors"
	"reddish/app/logger"
	"reddish/app/models"
	"reddish/app/repositories"

	"go.uber.org/zap"
)

// CreateSubredditInput carries the fields of a new community.
type CreateSubredditInput struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// SubredditService handles business logic for subreddits
type SubredditService struct {
	subredditRepo repositories.SubredditRepository
}

func NewSubredditService(subredditRepo repositories.SubredditRepository) *SubredditService {
	return &SubredditService{subredditRepo: subredditRepo}
}

// CreateSubreddit creates a community moderated by its creator
func (s *SubredditService) CreateSubreddit(ctx context.Context, moderator *models.User, in CreateSubredditInput) (*models.Subreddit, error) {
	if err := requireUser(moderator); err != nil {
		return nil, err
	}

	subreddit := &models.Subreddit{
		Title:       in.Title,
		Slug:        in.Slug,
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		ModeratorID: moderator.ID,
	}
	subreddit.BeforeCreate()
	if subreddit.Slug == "" && subreddit.Title != "" {
		return nil, apierrors.ValidationError("slug", "slug must contain letters or digits")
	}
	if err := subreddit.Validate(); err != nil {
		return nil, validationFailed(err)
	}

	if err := s.subredditRepo.Create(subreddit); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, apierrors.Conflict(fmt.Sprintf("Subreddit %q already exists", subreddit.Slug))
		}
		return nil, fmt.Errorf("failed to create subreddit: %w", err)
	}

	logger.Log.Info("subreddit created",
		zap.String("slug", subreddit.Slug),
		logger.WithUserID(moderator.ID),
	)
	return subreddit, nil
}

// ListSubreddits returns every subreddit, newest first
func (s *SubredditService) ListSubreddits(ctx context.Context) ([]*models.Subreddit, error) {
	subreddits, err := s.subredditRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list subreddits: %w", err)
	}
	sort.SliceStable(subreddits, func(i, j int) bool {
		if subreddits[i].CreatedAt.Equal(subreddits[j].CreatedAt) {
			return subreddits[i].ID > subreddits[j].ID
		}
		return subreddits[i].CreatedAt.After(subreddits[j].CreatedAt)
	})
	return subreddits, nil
}

// GetBySlug looks a subreddit up ignoring case
func (s *SubredditService) GetBySlug(ctx context.Context, slug string) (*models.Subreddit, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	subreddit, err := s.subredditRepo.GetBySlug(slug)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("Subreddit %q", slug))
	}
	return subreddit, nil
}

// SearchSubreddits matches query against titles and slugs. A blank query matches nothing.
func (s *SubredditService) SearchSubreddits(ctx context.Context, query string) ([]*models.Subreddit, error) {
	if strings.TrimSpace(query) == "" {
		return []*models.Subreddit{}, nil
	}
	all, err := s.ListSubreddits(ctx)
	if err != nil {
		return nil, err
	}
	matches := make([]*models.Subreddit, 0)
	for _, sub := range all {
		if sub.Matches(query) {
			matches = append(matches, sub)
		}
	}
	return matches, nil
}
