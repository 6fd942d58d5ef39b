package controllers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"reddish/app/models"
	"reddish/app/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostController(t *testing.T) {
	app := setupTestApp(t)

	t.Run("create post", func(t *testing.T) {
		payload := `{
			"title": "Test Post",
			"subreddit": "golang",
			"body": "This is a test post content"
		}`

		req := as(t, httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(payload)), app.alice)
		req.Header.Set("Content-Type", "application/json")
		w := app.serve(req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response models.PostListing
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.NotZero(t, response.ID)
		assert.Equal(t, "Test Post", response.Title)
		assert.Equal(t, "This is a test post content", response.Body)
		assert.Equal(t, "golang", response.Subreddit.Slug)
	})

	t.Run("create post requires a session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"title":"x","subreddit":"golang"}`))
		w := app.serve(req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Authentication required")
	})

	t.Run("create post validation", func(t *testing.T) {
		req := as(t, httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"title":"","subreddit":"golang"}`)), app.alice)
		w := app.serve(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Title and subreddit are required", body["error"])
		assert.Equal(t, "BAD_REQUEST", body["code"])

		req = as(t, httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"title":"x","subreddit":"missing"}`)), app.alice)
		w = app.serve(req)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `Subreddit \"missing\" not found`)
	})

	t.Run("create post from web form redirects", func(t *testing.T) {
		form := url.Values{"title": {"Form Post"}, "subreddit": {"Golang"}, "body": {"from a form"}}
		req := as(t, httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(form.Encode())), app.alice)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := app.serve(req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Regexp(t, `^/posts/\d+$`, w.Header().Get("Location"))
	})

	t.Run("get post", func(t *testing.T) {
		post := app.createPost(t, app.bob, "Readable")

		req := httptest.NewRequest(http.MethodGet, "/api/posts/"+strconv.Itoa(post.ID), nil)
		w := app.serve(req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response services.PostPage
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Equal(t, "Readable", response.Post.Title)
		assert.Equal(t, "bob", response.Post.Author.Username)
		assert.Empty(t, response.Comments)
	})

	t.Run("get post html", func(t *testing.T) {
		post := app.createPost(t, app.bob, "Rendered <b>safely</b>")

		w := app.serve(httptest.NewRequest(http.MethodGet, "/posts/"+strconv.Itoa(post.ID), nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "Rendered &lt;b&gt;safely&lt;/b&gt;")
		assert.Contains(t, w.Body.String(), `name="postId" value="`+strconv.Itoa(post.ID)+`"`)
	})

	t.Run("missing post", func(t *testing.T) {
		w := app.serve(httptest.NewRequest(http.MethodGet, "/api/posts/999", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = app.serve(httptest.NewRequest(http.MethodGet, "/posts/999", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Post not found")
	})

	t.Run("delete post", func(t *testing.T) {
		post := app.createPost(t, app.alice, "Doomed")
		path := "/api/posts/" + strconv.Itoa(post.ID)

		w := app.serve(as(t, httptest.NewRequest(http.MethodDelete, path, nil), app.bob))
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = app.serve(as(t, httptest.NewRequest(http.MethodDelete, path, nil), app.alice))
		assert.Equal(t, http.StatusNoContent, w.Code)

		// Verify post is deleted
		w = app.serve(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list posts", func(t *testing.T) {
		// Clear the repository first
		app.posts.Clear()
		for i := 0; i < 3; i++ {
			app.createPost(t, app.alice, "List Test Post")
		}

		w := app.serve(httptest.NewRequest(http.MethodGet, "/api/posts?per_page=2&sort=hot", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Posts []models.PostListing `json:"posts"`
			Page  int                  `json:"page"`
			Sort  string               `json:"sort"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Posts, 2)
		assert.Equal(t, 1, response.Page)
		assert.Equal(t, "hot", response.Sort)

		w = app.serve(httptest.NewRequest(http.MethodGet, "/hot", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 3, strings.Count(w.Body.String(), "List Test Post"))

		w = app.serve(httptest.NewRequest(http.MethodGet, "/api/posts?page=4611686018427387903&per_page=4", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Empty(t, response.Posts)
	})

	t.Run("controversial", func(t *testing.T) {
		w := app.serve(httptest.NewRequest(http.MethodGet, "/api/posts/controversial?limit=1", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Posts []models.PostListing `json:"posts"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Posts, 1)
	})

	t.Run("new post form", func(t *testing.T) {
		w := app.serve(as(t, httptest.NewRequest(http.MethodGet, "/posts/new?subreddit=golang", nil), app.alice))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `<option value="golang" selected>`)

		w = app.serve(httptest.NewRequest(http.MethodGet, "/posts/new", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCreatePostImageInput(t *testing.T) {
	app := setupTestApp(t)
	uploader := &recordingUploader{}
	app.postService.WithImages(uploader)
	png := []byte("\x89PNG\r\n\x1a\nfake")

	t.Run("multipart file", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("title", "With image"))
		require.NoError(t, mw.WriteField("subreddit", "golang"))
		part, err := mw.CreateFormFile("image", "cat.png")
		require.NoError(t, err)
		_, err = part.Write(png)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := as(t, httptest.NewRequest(http.MethodPost, "/posts", &buf), app.alice)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := app.serve(req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		require.Len(t, uploader.inputs, 1)
		assert.Equal(t, "cat.png", uploader.inputs[0].Filename)
		assert.Equal(t, png, uploader.inputs[0].Data)
	})

	t.Run("base64 data url", func(t *testing.T) {
		payload, err := json.Marshal(map[string]string{
			"title":         "Inline image",
			"subreddit":     "golang",
			"imageBase64":   "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
			"imageFilename": "inline.png",
		})
		require.NoError(t, err)

		req := as(t, httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(payload)), app.alice)
		w := app.serve(req)

		assert.Equal(t, http.StatusCreated, w.Code)
		require.Len(t, uploader.inputs, 2)
		assert.Equal(t, "image/png", uploader.inputs[1].ContentType)
		assert.Equal(t, png, uploader.inputs[1].Data)

		var response models.PostListing
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.NotNil(t, response.Image)
		assert.Equal(t, "https://cdn.example.com/inline.png", response.Image.URL)
	})

	t.Run("undecodable image keeps the post", func(t *testing.T) {
		req := as(t, httptest.NewRequest(http.MethodPost, "/api/posts",
			strings.NewReader(`{"title":"Bad image","subreddit":"golang","imageBase64":"data:image/png;base64,***"}`)), app.alice)
		w := app.serve(req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Len(t, uploader.inputs, 2)
	})
}
