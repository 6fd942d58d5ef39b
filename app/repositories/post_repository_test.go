package repositories

import (
	"bytes"
	"testing"
	"time"

	"reddish/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPost(subredditID int, title string) *models.Post {
	return &models.Post{
		Title:       title,
		Body:        "This is a test post body",
		AuthorID:    "user_1",
		SubredditID: subredditID,
		PublishedAt: time.Now(),
	}
}

func TestPostRepository(t *testing.T) {
	repo := NewBadgerPostRepository(newTestStore(t).DB())

	t.Run("create and get post", func(t *testing.T) {
		post := newPost(1, "Test Post")

		err := repo.Create(post)
		assert.NoError(t, err)
		assert.Greater(t, post.ID, 0)

		retrieved, err := repo.GetByID(post.ID)
		assert.NoError(t, err)
		assert.Equal(t, post.Title, retrieved.Title)
		assert.Equal(t, post.Body, retrieved.Body)
		assert.Equal(t, post.SubredditID, retrieved.SubredditID)
		assert.True(t, post.PublishedAt.Equal(retrieved.PublishedAt))
	})

	t.Run("get missing post", func(t *testing.T) {
		_, err := repo.GetByID(9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update post", func(t *testing.T) {
		post := newPost(1, "Original Title")
		require.NoError(t, repo.Create(post))

		post.Title = "Updated Title"
		post.IsReported = true
		post.Image = &models.PostImage{AssetKey: "images/abc.png", URL: "https://cdn.example.com/images/abc.png"}
		assert.NoError(t, repo.Update(post))

		updated, err := repo.GetByID(post.ID)
		assert.NoError(t, err)
		assert.Equal(t, "Updated Title", updated.Title)
		assert.True(t, updated.IsReported)
		require.NotNil(t, updated.Image)
		assert.Equal(t, "images/abc.png", updated.Image.AssetKey)
	})

	t.Run("update missing post", func(t *testing.T) {
		err := repo.Update(&models.Post{ID: 4242, Title: "ghost"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list posts", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.NoError(t, repo.Create(newPost(2, "List Test Post")))
		}

		posts, err := repo.List()
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, len(posts), 5)

		scoped, err := repo.ListBySubreddit(2)
		assert.NoError(t, err)
		assert.Len(t, scoped, 3)
		for _, p := range scoped {
			assert.Equal(t, 2, p.SubredditID)
		}
	})
}

func TestStoreBackupAndLoad(t *testing.T) {
	src := newTestStore(t)
	require.NoError(t, NewBadgerPostRepository(src.DB()).Create(newPost(1, "Backed up")))

	var buf bytes.Buffer
	_, err := src.Backup(&buf)
	require.NoError(t, err)

	dst := newTestStore(t)
	require.NoError(t, dst.Load(&buf))

	post, err := NewBadgerPostRepository(dst.DB()).GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, "Backed up", post.Title)

	require.NoError(t, dst.DropAll())
	_, err = NewBadgerPostRepository(dst.DB()).GetByID(1)
	assert.ErrorIs(t, err, ErrNotFound)
}
