package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"reddish/app/auth"
	"reddish/app/models"
	"reddish/app/services"

	"github.com/gorilla/mux"
)

// SubredditController handles HTTP requests for communities
type SubredditController struct {
	base
	subredditService *services.SubredditService
	postService      *services.PostService
}

func NewSubredditController(subredditService *services.SubredditService, postService *services.PostService, views *Renderer) *SubredditController {
	return &SubredditController{
		base:             base{views: views},
		subredditService: subredditService,
		postService:      postService,
	}
}

// Index lists every community, newest first
func (sc *SubredditController) Index(w http.ResponseWriter, r *http.Request) {
	subreddits, err := sc.subredditService.ListSubreddits(r.Context())
	if err != nil {
		sc.sendError(w, r, err, "Failed to fetch subreddits")
		return
	}

	if isAPIRequest(r) {
		sc.sendJSON(w, http.StatusOK, subreddits)
		return
	}
	sc.render(w, r, http.StatusOK, "subreddits/index", "Communities", struct {
		Subreddits []*models.Subreddit
	}{subreddits})
}

// New displays the community form
func (sc *SubredditController) New(w http.ResponseWriter, r *http.Request) {
	if auth.UserFromContext(r.Context()) == nil {
		sc.sendErrorMessage(w, r, "Authentication required", http.StatusUnauthorized)
		return
	}
	sc.render(w, r, http.StatusOK, "subreddits/new", "Create community", nil)
}

// Create handles creating a community
func (sc *SubredditController) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateSubredditInput
	if isAPIRequest(r) {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			sc.sendErrorMessage(w, r, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			sc.sendErrorMessage(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
			return
		}
		in = services.CreateSubredditInput{
			Title:       r.FormValue("title"),
			Slug:        r.FormValue("slug"),
			Description: r.FormValue("description"),
			ImageURL:    r.FormValue("imageUrl"),
		}
	}

	subreddit, err := sc.subredditService.CreateSubreddit(r.Context(), auth.UserFromContext(r.Context()), in)
	if err != nil {
		sc.sendError(w, r, err, "Failed to create subreddit")
		return
	}

	if isAPIRequest(r) {
		sc.sendJSON(w, http.StatusCreated, subreddit)
		return
	}
	http.Redirect(w, r, "/r/"+subreddit.Slug, http.StatusSeeOther)
}

type subredditPage struct {
	Subreddit *models.Subreddit     `json:"subreddit"`
	Posts     []*models.PostListing `json:"posts"`
	Top       []*models.PostListing `json:"-"`
	Sort      models.SortOrder      `json:"sort"`
	Page      int                   `json:"page"`
	HasMore   bool                  `json:"-"`
}

// Show lists a community's posts
func (sc *SubredditController) Show(w http.ResponseWriter, r *http.Request) {
	order := models.ParseSortOrder(r.URL.Query().Get("sort"))
	page, perPage := pagination(r)

	subreddit, posts, err := sc.postService.ListSubredditPosts(r.Context(), mux.Vars(r)["slug"], order, page, perPage, viewerID(r))
	if err != nil {
		sc.sendError(w, r, err, "Failed to fetch subreddit")
		return
	}

	data := subredditPage{
		Subreddit: subreddit,
		Posts:     posts,
		Sort:      order,
		Page:      page,
		HasMore:   len(posts) == perPage,
	}
	if isAPIRequest(r) {
		sc.sendJSON(w, http.StatusOK, data)
		return
	}

	if data.Top, err = sc.postService.TopPostsBySubreddit(r.Context(), subreddit.Slug, 0, viewerID(r)); err != nil {
		sc.sendError(w, r, err, "Failed to fetch subreddit")
		return
	}
	sc.render(w, r, http.StatusOK, "subreddits/show", subreddit.Title, data)
}

// Top lists a community's best scoring posts
func (sc *SubredditController) Top(w http.ResponseWriter, r *http.Request) {
	posts, err := sc.postService.TopPostsBySubreddit(r.Context(), mux.Vars(r)["slug"], queryLimit(r), viewerID(r))
	if err != nil {
		sc.sendError(w, r, err, "Failed to fetch posts")
		return
	}
	sc.sendJSON(w, http.StatusOK, posts)
}

// Search finds communities by title or slug
func (sc *SubredditController) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	results, err := sc.subredditService.SearchSubreddits(r.Context(), query)
	if err != nil {
		sc.sendError(w, r, err, "Failed to search subreddits")
		return
	}

	if isAPIRequest(r) {
		sc.sendJSON(w, http.StatusOK, results)
		return
	}
	sc.render(w, r, http.StatusOK, "search", "Search", struct {
		Query   string
		Results []*models.Subreddit
	}{query, results})
}
