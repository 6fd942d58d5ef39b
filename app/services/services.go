package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"reddish/app/apierrors"
	"reddish/app/logger"
	"reddish/app/models"
	"reddish/app/repositories"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ImageUploader stores post images somewhere publicly reachable.
type ImageUploader interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (*models.PostImage, error)
}

// Moderator reviews a freshly created post and may censor it or report its author.
type Moderator interface {
	Moderate(ctx context.Context, post *models.Post) error
}

func requireUser(user *models.User) error {
	if user == nil || user.ID == "" {
		return apierrors.Unauthorized("Authentication required")
	}
	return nil
}

// notFoundOr maps a repository miss onto a 404 for resource and wraps anything else.
func notFoundOr(err error, resource string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apierrors.NotFound(resource)
	}
	return fmt.Errorf("loading %s: %w", strings.ToLower(resource), err)
}

// validationFailed turns a validator error into a VALIDATION_ERROR naming the first bad field.
func validationFailed(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := lowerFirst(fe.Field())
		switch fe.Tag() {
		case "required":
			return apierrors.ValidationError(field, fmt.Sprintf("%s is required", field))
		case "max":
			return apierrors.ValidationError(field, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "min":
			return apierrors.ValidationError(field, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		default:
			return apierrors.ValidationError(field, fmt.Sprintf("%s is invalid", field))
		}
	}
	return apierrors.ValidationError("", err.Error())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// lookups memoizes author and subreddit reads while one response is assembled.
type lookups struct {
	users      repositories.UserRepository
	subreddits repositories.SubredditRepository
	userCache  map[string]*models.User
	subCache   map[int]*models.Subreddit
}

func newLookups(users repositories.UserRepository, subreddits repositories.SubredditRepository) *lookups {
	return &lookups{
		users:      users,
		subreddits: subreddits,
		userCache:  make(map[string]*models.User),
		subCache:   make(map[int]*models.Subreddit),
	}
}

func (l *lookups) user(id string) *models.User {
	if u, ok := l.userCache[id]; ok {
		return u
	}
	u, err := l.users.GetByID(id)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Log.Warn("failed to load user", logger.WithUserID(id), zap.Error(err))
		}
		u = nil
	}
	l.userCache[id] = u
	return u
}

func (l *lookups) subreddit(id int) *models.Subreddit {
	if l.subreddits == nil {
		return nil
	}
	if s, ok := l.subCache[id]; ok {
		return s
	}
	s, err := l.subreddits.GetByID(id)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Log.Warn("failed to load subreddit", zap.Int("subreddit_id", id), zap.Error(err))
		}
		s = nil
	}
	l.subCache[id] = s
	return s
}
