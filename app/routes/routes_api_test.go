package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"reddish/app/models"
	"reddish/app/moderation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Page  int `json:"page"`
	Posts []struct {
		ID        int    `json:"id"`
		Title     string `json:"title"`
		Body      string `json:"body"`
		Subreddit struct {
			Slug string `json:"slug"`
		} `json:"subreddit"`
		Votes models.VoteSummary `json:"votes"`
	} `json:"posts"`
}

func TestAPIRoutes(t *testing.T) {
	app := setupTestApp(t, Options{})

	t.Run("GET /api/posts returns list with pagination", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/posts", nil)
		w := serve(app, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var res apiResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))

		require.Equal(t, 1, res.Page)
		require.Len(t, res.Posts, 1)
		require.Equal(t, 1, res.Posts[0].ID)
		require.Equal(t, "Test Post", res.Posts[0].Title)
		require.Equal(t, "This is a test post", res.Posts[0].Body)
		require.Equal(t, "golang", res.Posts[0].Subreddit.Slug)
	})

	t.Run("post, comment and vote round trip", func(t *testing.T) {
		req := withBearer(t, httptest.NewRequest("POST", "/api/posts",
			strings.NewReader(`{"title":"Persisted","subreddit":"golang","body":"stored in badger"}`)), bob)
		w := serve(app, req)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var post models.PostListing
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
		assert.Equal(t, "bob", post.Author.Username)

		req = withBearer(t, httptest.NewRequest("POST", fmt.Sprintf("/api/posts/%d/comments", post.ID),
			strings.NewReader(`{"content":"nice"}`)), alice)
		w = serve(app, req)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		form := url.Values{"postId": {fmt.Sprint(post.ID)}}
		req = withBearer(t, httptest.NewRequest("POST", "/api/vote/upvote", strings.NewReader(form.Encode())), alice)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w = serve(app, req)
		require.Equal(t, http.StatusSeeOther, w.Code)

		w = serve(app, withBearer(t, httptest.NewRequest("GET", fmt.Sprintf("/api/posts/%d/votes", post.ID), nil), alice))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, fmt.Sprintf(
			`{"upvotes":1,"downvotes":0,"netScore":1,"total":1,"target":{"kind":"post","id":%d},"userVote":"upvote"}`, post.ID),
			w.Body.String())

		w = serve(app, httptest.NewRequest("GET", "/api/posts?sort=hot", nil))
		var res apiResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.Len(t, res.Posts, 2)
		assert.Equal(t, post.ID, res.Posts[0].ID)
		assert.Equal(t, 1, res.Posts[0].Votes.Upvotes)

		w = serve(app, httptest.NewRequest("GET", fmt.Sprintf("/api/posts/%d/comments", post.ID), nil))
		var comments []models.CommentThread
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comments))
		require.Len(t, comments, 1)
		assert.Equal(t, "alice", comments[0].Author.Username)
	})

	t.Run("session claims refresh the stored profile", func(t *testing.T) {
		renamed := bob
		renamed.Username = "bobby"
		w := serve(app, withBearer(t, httptest.NewRequest("GET", "/api/posts", nil), renamed))
		require.Equal(t, http.StatusOK, w.Code)

		user, err := app.Users.GetUser(t.Context(), bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "bobby", user.Username)
	})

	t.Run("forged session is treated as signed out", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/posts", strings.NewReader(`{"title":"x","subreddit":"golang"}`))
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := serve(app, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// fakeModerationAPI censors the first post it sees and reports its author.
func fakeModerationAPI(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req moderation.ChatRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		reply := moderation.ChatMessage{Role: "assistant", Content: "Done."}
		if calls.Add(1) == 1 {
			var postID int
			_, err := fmt.Sscanf(req.Messages[len(req.Messages)-1].Content, "I posted this post -> Post ID: %d", &postID)
			require.NoError(t, err)
			reply = moderation.ChatMessage{Role: "assistant", ToolCalls: []moderation.ToolCall{
				{ID: "call_1", Type: "function", Function: moderation.FunctionCall{
					Name:      "censor_post",
					Arguments: fmt.Sprintf(`{"postId":"%d","title":"[removed]","isToBeReported":true}`, postID),
				}},
				{ID: "call_2", Type: "function", Function: moderation.FunctionCall{
					Name:      "report_user",
					Arguments: fmt.Sprintf(`{"userId":%q}`, bob.ID),
				}},
			}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(moderation.ChatResponseBody{Choices: []moderation.ChatChoice{{Message: reply}}})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestModerationWiring(t *testing.T) {
	var calls atomic.Int32
	server := fakeModerationAPI(t, &calls)

	app := setupTestApp(t, Options{Moderation: &ModerationOptions{
		Client:   moderation.NewClient(server.URL, "test-key", 5*time.Second),
		Model:    "test-model",
		MaxSteps: 3,
		Timeout:  10 * time.Second,
	}})
	// Seeding already ran one clean review.
	calls.Store(0)

	req := withBearer(t, httptest.NewRequest("POST", "/api/posts",
		strings.NewReader(`{"title":"Something rude","subreddit":"golang","body":"keep me"}`)), bob)
	w := serve(app, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var post models.PostListing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	assert.Equal(t, "[removed]", post.Title)
	assert.Equal(t, "keep me", post.Body)
	assert.True(t, post.IsReported)
	assert.EqualValues(t, 2, calls.Load())

	author, err := app.Users.GetUser(t.Context(), bob.ID)
	require.NoError(t, err)
	assert.True(t, author.IsReported)
}
