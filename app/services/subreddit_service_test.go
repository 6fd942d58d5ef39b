package services

import (
	"context"
	"testing"
	"time"

	"reddish/app/apierrors"
	"reddish/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubredditService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	service := env.subredditService

	t.Run("slug derived from title", func(t *testing.T) {
		sub, err := service.CreateSubreddit(ctx, env.bob, CreateSubredditInput{Title: "Ask Gophers!", Description: " questions "})
		require.NoError(t, err)
		assert.Equal(t, "ask-gophers", sub.Slug)
		assert.Equal(t, "questions", sub.Description)
		assert.Equal(t, env.bob.ID, sub.ModeratorID)
	})

	t.Run("duplicate slug", func(t *testing.T) {
		_, err := service.CreateSubreddit(ctx, env.bob, CreateSubredditInput{Title: "Another", Slug: "GoLang"})
		assertCode(t, err, apierrors.ErrConflict)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := service.CreateSubreddit(ctx, env.bob, CreateSubredditInput{Title: "ab"})
		assertCode(t, err, apierrors.ErrValidation)

		_, err = service.CreateSubreddit(ctx, env.bob, CreateSubredditInput{Title: "!!!!"})
		assertCode(t, err, apierrors.ErrValidation)

		_, err = service.CreateSubreddit(ctx, nil, CreateSubredditInput{Title: "Valid"})
		assertCode(t, err, apierrors.ErrUnauthorized)
	})

	t.Run("list newest first", func(t *testing.T) {
		time.Sleep(time.Millisecond)
		_, err := service.CreateSubreddit(ctx, env.alice, CreateSubredditInput{Title: "Newest"})
		require.NoError(t, err)

		subs, err := service.ListSubreddits(ctx)
		require.NoError(t, err)
		require.Len(t, subs, 3)
		assert.Equal(t, "newest", subs[0].Slug)
		assert.Equal(t, "golang", subs[2].Slug)
	})

	t.Run("get by slug ignores case", func(t *testing.T) {
		sub, err := service.GetBySlug(ctx, "GOLANG")
		require.NoError(t, err)
		assert.Equal(t, env.golang.ID, sub.ID)

		_, err = service.GetBySlug(ctx, "nope")
		assertCode(t, err, apierrors.ErrNotFound)
	})

	t.Run("search", func(t *testing.T) {
		subs, err := service.SearchSubreddits(ctx, "GOPH")
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "ask-gophers", subs[0].Slug)

		subs, err = service.SearchSubreddits(ctx, "  ")
		require.NoError(t, err)
		assert.Empty(t, subs)
	})
}

func TestEnsureUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("created with subject as username", func(t *testing.T) {
		user, err := env.userService.EnsureUser(ctx, models.User{ID: "user_new"})
		require.NoError(t, err)
		assert.Equal(t, "user_new", user.Username)
		assert.False(t, user.JoinedAt.IsZero())
	})

	t.Run("profile refreshed", func(t *testing.T) {
		user, err := env.userService.EnsureUser(ctx, models.User{ID: "user_new", Username: "renamed", Email: "new@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "renamed", user.Username)

		stored, err := env.userService.GetUser(ctx, "user_new")
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", stored.Email)
	})

	t.Run("reported flag survives refresh", func(t *testing.T) {
		stored, err := env.users.GetByID("user_new")
		require.NoError(t, err)
		stored.IsReported = true
		require.NoError(t, env.users.Update(stored))

		user, err := env.userService.EnsureUser(ctx, models.User{ID: "user_new", Username: "renamed"})
		require.NoError(t, err)
		assert.True(t, user.IsReported)
	})

	t.Run("missing subject", func(t *testing.T) {
		_, err := env.userService.EnsureUser(ctx, models.User{})
		assertCode(t, err, apierrors.ErrUnauthorized)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.userService.GetUser(ctx, "ghost")
		assertCode(t, err, apierrors.ErrNotFound)
	})
}
