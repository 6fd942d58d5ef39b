package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reddish/app/auth"
	"reddish/app/models"
	"reddish/app/repositories"
	"reddish/app/services"

	"github.com/stretchr/testify/require"
)

const (
	testSecret     = "routes-test-secret-0123456789"
	testCookieName = "__session"
)

var (
	alice = models.User{ID: "user_alice", Username: "alice", Email: "alice@example.com"}
	bob   = models.User{ID: "user_bob", Username: "bob"}
)

func setupTestStore(t *testing.T) *repositories.Store {
	t.Helper()
	store, err := repositories.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// setupTestApp wires the full router over an in-memory badger store and seeds
// one subreddit with one post.
func setupTestApp(t *testing.T, opts Options) *App {
	t.Helper()
	app, err := SetupRoutes(setupTestStore(t), auth.NewVerifier(testSecret, testCookieName), opts)
	require.NoError(t, err)

	ctx := context.Background()
	author, err := app.Users.EnsureUser(ctx, alice)
	require.NoError(t, err)
	_, err = app.Subreddits.CreateSubreddit(ctx, author, services.CreateSubredditInput{Title: "Golang", Description: "Gophers unite"})
	require.NoError(t, err)
	_, err = app.Posts.CreatePost(ctx, author, services.CreatePostInput{
		Title:         "Test Post",
		SubredditSlug: "golang",
		Body:          "This is a test post",
	})
	require.NoError(t, err)
	return app
}

func sessionToken(t *testing.T, user models.User) string {
	t.Helper()
	token, err := auth.Mint(testSecret, user, time.Hour)
	require.NoError(t, err)
	return token
}

// withCookie signs req in the way a browser would.
func withCookie(t *testing.T, req *http.Request, user models.User) *http.Request {
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: sessionToken(t, user)})
	return req
}

func withBearer(t *testing.T, req *http.Request, user models.User) *http.Request {
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, user))
	return req
}

func serve(app *App, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	return w
}
