package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"reddish/app/auth"
	"reddish/app/logger"
	"reddish/app/models"
	"reddish/app/services"
	"reddish/app/storage"

	"go.uber.org/zap"
)

const defaultMaxImageBytes = 10 << 20

// PostController handles HTTP requests for posts
type PostController struct {
	base
	postService      *services.PostService
	subredditService *services.SubredditService
	maxImageBytes    int64
}

// NewPostController creates a new PostController. views may be nil for JSON-only use.
func NewPostController(postService *services.PostService, subredditService *services.SubredditService, views *Renderer, maxImageBytes int64) *PostController {
	if maxImageBytes <= 0 {
		maxImageBytes = defaultMaxImageBytes
	}
	return &PostController{
		base:             base{views: views},
		postService:      postService,
		subredditService: subredditService,
		maxImageBytes:    maxImageBytes,
	}
}

type feedData struct {
	Posts   []*models.PostListing
	Sort    models.SortOrder
	Page    int
	HasMore bool
}

// Index lists posts using the sort query parameter
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	pc.list(w, r, models.ParseSortOrder(r.URL.Query().Get("sort")))
}

// Sorted lists posts with a fixed order, for /hot and /popular
func (pc *PostController) Sorted(order models.SortOrder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pc.list(w, r, order)
	}
}

func (pc *PostController) list(w http.ResponseWriter, r *http.Request, order models.SortOrder) {
	page, perPage := pagination(r)
	posts, err := pc.postService.ListPosts(r.Context(), order, page, perPage, viewerID(r))
	if err != nil {
		pc.sendError(w, r, err, "Failed to fetch posts")
		return
	}

	if isAPIRequest(r) {
		pc.sendJSON(w, http.StatusOK, map[string]interface{}{
			"posts": posts,
			"page":  page,
			"sort":  order,
		})
		return
	}
	pc.render(w, r, http.StatusOK, "posts/index", "", feedData{
		Posts:   posts,
		Sort:    order,
		Page:    page,
		HasMore: len(posts) == perPage,
	})
}

// Controversial lists the posts with the most votes either way
func (pc *PostController) Controversial(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.postService.ControversialPosts(r.Context(), queryLimit(r), viewerID(r))
	if err != nil {
		pc.sendError(w, r, err, "Failed to fetch posts")
		return
	}
	pc.sendJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

// New displays the form for creating a new post
func (pc *PostController) New(w http.ResponseWriter, r *http.Request) {
	if auth.UserFromContext(r.Context()) == nil {
		pc.sendErrorMessage(w, r, "Authentication required", http.StatusUnauthorized)
		return
	}
	subreddits, err := pc.subredditService.ListSubreddits(r.Context())
	if err != nil {
		pc.sendError(w, r, err, "Failed to fetch subreddits")
		return
	}
	pc.render(w, r, http.StatusOK, "posts/new", "Create post", struct {
		Subreddits []*models.Subreddit
		Selected   string
	}{
		Subreddits: subreddits,
		Selected:   strings.ToLower(r.URL.Query().Get("subreddit")),
	})
}

// Show handles displaying a single post with its comments
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		pc.sendErrorMessage(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	page, err := pc.postService.GetPostPage(r.Context(), id, viewerID(r))
	if err != nil {
		pc.sendError(w, r, err, "Failed to fetch post")
		return
	}

	if isAPIRequest(r) {
		pc.sendJSON(w, http.StatusOK, page)
		return
	}
	pc.render(w, r, http.StatusOK, "posts/show", page.Post.Title, page)
}

type createPostRequest struct {
	Title            string `json:"title"`
	Subreddit        string `json:"subreddit"`
	Body             string `json:"body"`
	ImageBase64      string `json:"imageBase64"`
	ImageFilename    string `json:"imageFilename"`
	ImageContentType string `json:"imageContentType"`
}

// Create handles creating a new post
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	var image *services.ImageInput

	if isMultipart(r) || !isAPIRequest(r) {
		if err := pc.parseForm(r); err != nil {
			pc.sendErrorMessage(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
			return
		}
		req = createPostRequest{
			Title:            r.FormValue("title"),
			Subreddit:        r.FormValue("subreddit"),
			Body:             r.FormValue("body"),
			ImageBase64:      r.FormValue("imageBase64"),
			ImageFilename:    r.FormValue("imageFilename"),
			ImageContentType: r.FormValue("imageContentType"),
		}
		image = pc.formImage(r)
	} else {
		if err := json.NewDecoder(io.LimitReader(r.Body, pc.maxImageBytes*2)).Decode(&req); err != nil {
			pc.sendErrorMessage(w, r, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	if image == nil && req.ImageBase64 != "" {
		image = dataURLImage(req.ImageBase64, req.ImageFilename, req.ImageContentType)
	}

	post, err := pc.postService.CreatePost(r.Context(), auth.UserFromContext(r.Context()), services.CreatePostInput{
		Title:         req.Title,
		SubredditSlug: req.Subreddit,
		Body:          req.Body,
		Image:         image,
	})
	if err != nil {
		pc.sendError(w, r, err, "Failed to create post")
		return
	}

	if isAPIRequest(r) {
		pc.sendJSON(w, http.StatusCreated, post)
		return
	}
	http.Redirect(w, r, "/posts/"+strconv.Itoa(post.ID), http.StatusSeeOther)
}

// Delete handles deleting a post
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		pc.sendErrorMessage(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	if err := pc.postService.DeletePost(r.Context(), auth.UserFromContext(r.Context()), id); err != nil {
		pc.sendError(w, r, err, "Failed to delete post")
		return
	}

	if isAPIRequest(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func (pc *PostController) parseForm(r *http.Request) error {
	if isMultipart(r) {
		return r.ParseMultipartForm(pc.maxImageBytes)
	}
	return r.ParseForm()
}

// formImage reads the optional image file field. Oversized files are read one
// byte past the limit so the uploader rejects them.
func (pc *PostController) formImage(r *http.Request) *services.ImageInput {
	if r.MultipartForm == nil {
		return nil
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			logger.Log.Warn("unreadable image field", zap.Error(err))
		}
		return nil
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, pc.maxImageBytes+1))
	if err != nil {
		logger.Log.Warn("failed to read image upload", zap.Error(err))
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	return &services.ImageInput{
		Data:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}
}

// dataURLImage decodes an image sent inline. Bad input drops the image, not the post.
func dataURLImage(encoded, filename, contentType string) *services.ImageInput {
	data, headerType, err := storage.DecodeDataURL(encoded)
	if err != nil {
		logger.Log.Warn("ignoring undecodable image", zap.String("filename", filename), zap.Error(err))
		return nil
	}
	if contentType == "" {
		contentType = headerType
	}
	return &services.ImageInput{Data: data, Filename: filename, ContentType: contentType}
}
