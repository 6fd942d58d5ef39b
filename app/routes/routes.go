package routes

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"reddish/app/auth"
	"reddish/app/cache"
	"reddish/app/controllers"
	"reddish/app/middleware"
	"reddish/app/models"
	"reddish/app/moderation"
	"reddish/app/repositories"
	"reddish/app/services"
	"reddish/app/views"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options carries the optional integrations. The zero value serves everything
// from badger alone.
type Options struct {
	Images        services.ImageUploader
	VoteCache     *cache.VoteCache
	MaxImageBytes int64

	// Moderation is nil when no moderation API is configured.
	Moderation *ModerationOptions
}

// ModerationOptions configures the agent that screens new posts.
type ModerationOptions struct {
	Client   moderation.Completer
	Model    string
	MaxSteps int
	Timeout  time.Duration
}

// App holds the wired services, mostly for tests and CLI commands.
type App struct {
	Router     *mux.Router
	Posts      *services.PostService
	Comments   *services.CommentService
	Subreddits *services.SubredditService
	Votes      *services.VoteService
	Users      *services.UserService
}

// SetupRoutes wires repositories, services and controllers on top of store and
// returns the application router.
func SetupRoutes(store *repositories.Store, verifier *auth.Verifier, opts Options) (*App, error) {
	db := store.DB()
	postRepo := repositories.NewBadgerPostRepository(db)
	commentRepo := repositories.NewBadgerCommentRepository(db)
	subredditRepo := repositories.NewBadgerSubredditRepository(db)
	userRepo := repositories.NewBadgerUserRepository(db)
	voteRepo := repositories.NewBadgerVoteRepository(db)

	app := &App{}
	app.Votes = services.NewVoteService(voteRepo, postRepo, commentRepo, opts.VoteCache)
	app.Comments = services.NewCommentService(commentRepo, postRepo, userRepo, app.Votes)
	app.Posts = services.NewPostService(postRepo, subredditRepo, userRepo, app.Comments, app.Votes)
	app.Subreddits = services.NewSubredditService(subredditRepo)
	app.Users = services.NewUserService(userRepo)

	if opts.Images != nil {
		app.Posts.WithImages(opts.Images)
	}
	if m := opts.Moderation; m != nil {
		agent := moderation.NewAgent(m.Client, m.Model, postRepo, userRepo, m.MaxSteps)
		app.Posts.WithModerator(agent, m.Timeout)
	}

	renderer, err := controllers.NewRenderer(views.Templates())
	if err != nil {
		return nil, err
	}

	postController := controllers.NewPostController(app.Posts, app.Subreddits, renderer, opts.MaxImageBytes)
	commentController := controllers.NewCommentController(app.Comments, renderer)
	subredditController := controllers.NewSubredditController(app.Subreddits, app.Posts, renderer)
	voteController := controllers.NewVoteController(app.Votes)

	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Metrics)
	router.Use(auth.Middleware(verifier, app.Users))

	router.NotFoundHandler = notFoundHandler(renderer)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Serve static files
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(views.Static()))))

	// Web routes
	router.HandleFunc("/", postController.Index).Methods("GET")
	router.HandleFunc("/hot", postController.Sorted(models.SortHot)).Methods("GET")
	router.HandleFunc("/popular", postController.Sorted(models.SortPopular)).Methods("GET")

	posts := router.PathPrefix("/posts").Subrouter()
	posts.HandleFunc("", postController.Index).Methods("GET")
	posts.HandleFunc("/new", postController.New).Methods("GET")
	posts.HandleFunc("", postController.Create).Methods("POST")
	posts.HandleFunc("/{id:[0-9]+}", postController.Show).Methods("GET")
	posts.HandleFunc("/{id:[0-9]+}/delete", postController.Delete).Methods("POST")
	posts.HandleFunc("/{postId:[0-9]+}/comments", commentController.Create).Methods("POST")
	router.HandleFunc("/comments/{id:[0-9]+}/delete", commentController.Delete).Methods("POST")

	router.HandleFunc("/r", subredditController.Index).Methods("GET")
	router.HandleFunc("/r", subredditController.Create).Methods("POST")
	router.HandleFunc("/r/new", subredditController.New).Methods("GET")
	router.HandleFunc("/r/{slug}", subredditController.Show).Methods("GET")
	router.HandleFunc("/search", subredditController.Search).Methods("GET")

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)

	apiPosts := api.PathPrefix("/posts").Subrouter()
	apiPosts.HandleFunc("", postController.Index).Methods("GET")
	apiPosts.HandleFunc("", postController.Create).Methods("POST")
	apiPosts.HandleFunc("/controversial", postController.Controversial).Methods("GET")
	apiPosts.HandleFunc("/{id:[0-9]+}", postController.Show).Methods("GET")
	apiPosts.HandleFunc("/{id:[0-9]+}", postController.Delete).Methods("DELETE")
	apiPosts.HandleFunc("/{id:[0-9]+}/votes", voteController.PostVotes).Methods("GET")

	// Comments API endpoints
	apiPosts.HandleFunc("/{postId:[0-9]+}/comments", commentController.Index).Methods("GET")
	apiPosts.HandleFunc("/{postId:[0-9]+}/comments", commentController.Create).Methods("POST")
	apiPosts.HandleFunc("/{postId:[0-9]+}/comments/top", commentController.Top).Methods("GET")
	api.HandleFunc("/comments/{id:[0-9]+}", commentController.Delete).Methods("DELETE")
	api.HandleFunc("/comments/{id:[0-9]+}/votes", voteController.CommentVotes).Methods("GET")

	apiSubs := api.PathPrefix("/subreddits").Subrouter()
	apiSubs.HandleFunc("", subredditController.Index).Methods("GET")
	apiSubs.HandleFunc("", subredditController.Create).Methods("POST")
	apiSubs.HandleFunc("/search", subredditController.Search).Methods("GET")
	apiSubs.HandleFunc("/{slug}", subredditController.Show).Methods("GET")
	apiSubs.HandleFunc("/{slug}/top", subredditController.Top).Methods("GET")

	// Vote forms post here from every page, so they are plain form posts.
	api.HandleFunc("/vote/upvote", voteController.Upvote).Methods("POST")
	api.HandleFunc("/vote/downvote", voteController.Downvote).Methods("POST")

	app.Router = router
	return app, nil
}

func notFoundHandler(renderer *controllers.Renderer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
			return
		}
		renderer.NotFound(w, r, "Page not found")
	})
}

// NewServer returns an HTTP server for handler with conservative timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
