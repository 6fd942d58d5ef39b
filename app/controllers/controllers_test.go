package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reddish/app/auth"
	"reddish/app/models"
	"reddish/app/repositories/mock"
	"reddish/app/services"
	"reddish/app/views"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-test-secret-123456"

type testApp struct {
	router *mux.Router

	posts *mock.PostRepository
	votes *mock.VoteRepository

	postService      *services.PostService
	commentService   *services.CommentService
	subredditService *services.SubredditService
	voteService      *services.VoteService
	userService      *services.UserService

	alice *models.User
	bob   *models.User
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	postRepo := mock.NewPostRepository()
	commentRepo := mock.NewCommentRepository()
	subredditRepo := mock.NewSubredditRepository()
	userRepo := mock.NewUserRepository()
	voteRepo := mock.NewVoteRepository()

	app := &testApp{posts: postRepo, votes: voteRepo}
	app.voteService = services.NewVoteService(voteRepo, postRepo, commentRepo, nil)
	app.commentService = services.NewCommentService(commentRepo, postRepo, userRepo, app.voteService)
	app.postService = services.NewPostService(postRepo, subredditRepo, userRepo, app.commentService, app.voteService)
	app.subredditService = services.NewSubredditService(subredditRepo)
	app.userService = services.NewUserService(userRepo)

	renderer, err := NewRenderer(views.Templates())
	require.NoError(t, err)

	postController := NewPostController(app.postService, app.subredditService, renderer, 1<<20)
	commentController := NewCommentController(app.commentService, renderer)
	subredditController := NewSubredditController(app.subredditService, app.postService, renderer)
	voteController := NewVoteController(app.voteService)

	router := mux.NewRouter()
	router.Use(auth.Middleware(auth.NewVerifier(testSecret, "__session"), app.userService))

	router.HandleFunc("/", postController.Index).Methods("GET")
	router.HandleFunc("/hot", postController.Sorted(models.SortHot)).Methods("GET")
	router.HandleFunc("/posts/new", postController.New).Methods("GET")
	router.HandleFunc("/posts", postController.Create).Methods("POST")
	router.HandleFunc("/posts/{id:[0-9]+}", postController.Show).Methods("GET")
	router.HandleFunc("/posts/{id:[0-9]+}/delete", postController.Delete).Methods("POST")
	router.HandleFunc("/posts/{postId:[0-9]+}/comments", commentController.Create).Methods("POST")
	router.HandleFunc("/comments/{id:[0-9]+}/delete", commentController.Delete).Methods("POST")
	router.HandleFunc("/r", subredditController.Index).Methods("GET")
	router.HandleFunc("/r", subredditController.Create).Methods("POST")
	router.HandleFunc("/r/new", subredditController.New).Methods("GET")
	router.HandleFunc("/r/{slug}", subredditController.Show).Methods("GET")
	router.HandleFunc("/search", subredditController.Search).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/posts", postController.Index).Methods("GET")
	api.HandleFunc("/posts", postController.Create).Methods("POST")
	api.HandleFunc("/posts/controversial", postController.Controversial).Methods("GET")
	api.HandleFunc("/posts/{id:[0-9]+}", postController.Show).Methods("GET")
	api.HandleFunc("/posts/{id:[0-9]+}", postController.Delete).Methods("DELETE")
	api.HandleFunc("/posts/{id:[0-9]+}/votes", voteController.PostVotes).Methods("GET")
	api.HandleFunc("/posts/{postId:[0-9]+}/comments", commentController.Index).Methods("GET")
	api.HandleFunc("/posts/{postId:[0-9]+}/comments", commentController.Create).Methods("POST")
	api.HandleFunc("/posts/{postId:[0-9]+}/comments/top", commentController.Top).Methods("GET")
	api.HandleFunc("/comments/{id:[0-9]+}", commentController.Delete).Methods("DELETE")
	api.HandleFunc("/comments/{id:[0-9]+}/votes", voteController.CommentVotes).Methods("GET")
	api.HandleFunc("/subreddits", subredditController.Index).Methods("GET")
	api.HandleFunc("/subreddits", subredditController.Create).Methods("POST")
	api.HandleFunc("/subreddits/search", subredditController.Search).Methods("GET")
	api.HandleFunc("/subreddits/{slug}", subredditController.Show).Methods("GET")
	api.HandleFunc("/subreddits/{slug}/top", subredditController.Top).Methods("GET")
	api.HandleFunc("/vote/upvote", voteController.Upvote).Methods("POST")
	api.HandleFunc("/vote/downvote", voteController.Downvote).Methods("POST")
	app.router = router

	ctx := context.Background()
	app.alice, err = app.userService.EnsureUser(ctx, models.User{ID: "user_alice", Username: "alice"})
	require.NoError(t, err)
	app.bob, err = app.userService.EnsureUser(ctx, models.User{ID: "user_bob", Username: "bob"})
	require.NoError(t, err)
	_, err = app.subredditService.CreateSubreddit(ctx, app.alice, services.CreateSubredditInput{Title: "Golang", Description: "Gophers unite"})
	require.NoError(t, err)
	return app
}

// as signs req in as user.
func as(t *testing.T, req *http.Request, user *models.User) *http.Request {
	t.Helper()
	token, err := auth.Mint(testSecret, *user, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func (app *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func (app *testApp) createPost(t *testing.T, author *models.User, title string) *models.PostListing {
	t.Helper()
	post, err := app.postService.CreatePost(context.Background(), author, services.CreatePostInput{Title: title, SubredditSlug: "golang", Body: "body of " + title})
	require.NoError(t, err)
	return post
}

// recordingUploader keeps every image it is handed.
type recordingUploader struct {
	inputs []services.ImageInput
}

func (u *recordingUploader) Upload(_ context.Context, data []byte, filename, contentType string) (*models.PostImage, error) {
	u.inputs = append(u.inputs, services.ImageInput{Data: data, Filename: filename, ContentType: contentType})
	return &models.PostImage{
		AssetKey:    filename,
		URL:         "https://cdn.example.com/" + filename,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}
