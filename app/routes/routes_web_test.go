package routes

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postForm(t *testing.T, app *App, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := withCookie(t, httptest.NewRequest("POST", path, strings.NewReader(form.Encode())), alice)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return serve(app, req)
}

func TestWebPostRoutes(t *testing.T) {
	app := setupTestApp(t, Options{})

	t.Run("GET / returns home page", func(t *testing.T) {
		w := serve(app, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Test Post")
		assert.Contains(t, w.Body.String(), "Signed out")
	})

	t.Run("GET /posts/new needs a session", func(t *testing.T) {
		w := serve(app, httptest.NewRequest("GET", "/posts/new", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = serve(app, withCookie(t, httptest.NewRequest("GET", "/posts/new", nil), alice))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "form")
		assert.Contains(t, w.Body.String(), "u/alice")
	})

	t.Run("POST /posts creates a new post", func(t *testing.T) {
		w := postForm(t, app, "/posts", url.Values{
			"title":     {"Web Form Test Post"},
			"subreddit": {"golang"},
			"body":      {"This post was created via web form test"},
		})

		// Should redirect to the post on success, not the posts list
		assert.Equal(t, http.StatusSeeOther, w.Code)
		redirectURL, err := w.Result().Location()
		require.NoError(t, err)
		assert.Contains(t, redirectURL.Path, "/posts/")

		w = serve(app, httptest.NewRequest("GET", redirectURL.Path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "This post was created via web form test")

		// Verify post was created by fetching post list
		w = serve(app, httptest.NewRequest("GET", "/posts", nil))
		assert.Contains(t, w.Body.String(), "Web Form Test Post")
	})

	t.Run("comment, vote and delete from the post page", func(t *testing.T) {
		w := postForm(t, app, "/posts/1/comments", url.Values{"content": {"Web comment"}})
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/posts/1#comment-"))

		req := withCookie(t, httptest.NewRequest("POST", "/api/vote/upvote", strings.NewReader("postId=1")), alice)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Referer", "/posts/1")
		w = serve(app, req)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/posts/1", w.Header().Get("Location"))

		w = serve(app, withCookie(t, httptest.NewRequest("GET", "/posts/1", nil), alice))
		body := w.Body.String()
		assert.Contains(t, body, "Web comment")
		assert.Contains(t, body, "active up")
		assert.Contains(t, body, `<span class="score">1</span>`)
		assert.Contains(t, body, "delete post")

		w = postForm(t, app, "/posts/1/delete", nil)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))

		w = serve(app, httptest.NewRequest("GET", "/posts/1", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestWebSubredditRoutes(t *testing.T) {
	app := setupTestApp(t, Options{})

	w := postForm(t, app, "/r", url.Values{"title": {"Board Games"}, "description": {"meeples"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/r/board-games", w.Header().Get("Location"))

	w = serve(app, httptest.NewRequest("GET", "/r/board-games", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "meeples")

	w = serve(app, httptest.NewRequest("GET", "/search?q=board", nil))
	assert.Contains(t, w.Body.String(), `href="/r/board-games"`)

	w = postForm(t, app, "/r", url.Values{"title": {"Board Games"}})
	assert.Equal(t, http.StatusConflict, w.Code)
}
