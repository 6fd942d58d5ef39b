package repositories

import (
	"testing"
	"time"

	"reddish/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubredditRepository(t *testing.T) {
	repo := NewBadgerSubredditRepository(newTestStore(t).DB())

	golang := &models.Subreddit{
		Title:       "Go Programming",
		Slug:        "golang",
		ModeratorID: "user_1",
		CreatedAt:   time.Now(),
	}

	t.Run("create and get by id and slug", func(t *testing.T) {
		require.NoError(t, repo.Create(golang))
		assert.Equal(t, 1, golang.ID)

		byID, err := repo.GetByID(golang.ID)
		assert.NoError(t, err)
		assert.Equal(t, "Go Programming", byID.Title)

		bySlug, err := repo.GetBySlug("GoLang")
		assert.NoError(t, err)
		assert.Equal(t, golang.ID, bySlug.ID)
	})

	t.Run("duplicate slug conflicts", func(t *testing.T) {
		err := repo.Create(&models.Subreddit{Title: "Another Go", Slug: "golang", ModeratorID: "user_2"})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("missing slug", func(t *testing.T) {
		_, err := repo.GetBySlug("rust")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		require.NoError(t, repo.Create(&models.Subreddit{Title: "Rustaceans", Slug: "rust", ModeratorID: "user_2"}))

		all, err := repo.List()
		assert.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestUserRepository(t *testing.T) {
	repo := NewBadgerUserRepository(newTestStore(t).DB())

	user := &models.User{ID: "user_2abc", Username: "gopher", JoinedAt: time.Now()}
	require.NoError(t, repo.Create(user))
	assert.ErrorIs(t, repo.Create(user), ErrConflict)

	got, err := repo.GetByID("user_2abc")
	require.NoError(t, err)
	assert.Equal(t, "gopher", got.Username)

	got.IsReported = true
	require.NoError(t, repo.Update(got))

	reported, err := repo.GetByID("user_2abc")
	require.NoError(t, err)
	assert.True(t, reported.IsReported)

	assert.ErrorIs(t, repo.Update(&models.User{ID: "nobody"}), ErrNotFound)
	_, err = repo.GetByID("nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}
