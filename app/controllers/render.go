package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reddish/app/apierrors"
	"reddish/app/auth"
	"reddish/app/logger"
	"reddish/app/middleware"
	"reddish/app/models"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

var pageFiles = []string{
	"posts/index.html",
	"posts/show.html",
	"posts/new.html",
	"subreddits/index.html",
	"subreddits/show.html",
	"subreddits/new.html",
	"search.html",
	"not_found.html",
}

// Page is what every template receives.
type Page struct {
	Title string
	User  *models.User
	Data  any
}

type voteBox struct {
	Field    string
	ID       int
	Votes    models.VoteSummary
	UserVote models.VoteType
}

type sortTabs struct {
	Base    string
	Current models.SortOrder
	Orders  []models.SortOrder
}

var templateFuncs = template.FuncMap{
	"timeAgo": timeAgo,
	"add":     func(a, b int) int { return a + b },
	"plural": func(n int, one, many string) string {
		if n == 1 {
			return one
		}
		return many
	},
	"voteBox": func(field string, id int, votes models.VoteSummary, userVote models.VoteType) voteBox {
		return voteBox{Field: field, ID: id, Votes: votes, UserVote: userVote}
	},
	"sortTabs": func(base string, current models.SortOrder) sortTabs {
		return sortTabs{
			Base:    base,
			Current: current,
			Orders:  []models.SortOrder{models.SortNew, models.SortHot, models.SortTop, models.SortRising},
		}
	},
}

// Renderer holds one parsed template set per page, each with the layout and partials.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page from fsys.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(fsys, "layout.html", "partials.html", file)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", file, err)
		}
		pages[strings.TrimSuffix(file, ".html")] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

func (v *Renderer) render(w http.ResponseWriter, status int, name string, page Page) error {
	tmpl, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tmpl.ExecuteTemplate(w, "layout", page)
}

// NotFound renders the 404 page with message.
func (v *Renderer) NotFound(w http.ResponseWriter, r *http.Request, message string) {
	page := Page{Title: "Not found", User: auth.UserFromContext(r.Context()), Data: message}
	if err := v.render(w, http.StatusNotFound, "not_found", page); err != nil {
		logger.Log.Error("template error", zap.String("template", "not_found"), zap.Error(err))
	}
}

func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// base carries the response helpers every controller shares.
type base struct {
	views *Renderer
}

func isAPIRequest(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/json" || r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/")
}

func (b *base) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.Warn("failed to encode response", zap.Error(err))
	}
}

// sendErrorMessage writes {"error": message} for API requests and plain text otherwise.
func (b *base) sendErrorMessage(w http.ResponseWriter, r *http.Request, message string, status int) {
	if isAPIRequest(r) {
		b.sendJSON(w, status, map[string]string{"error": message})
		return
	}
	http.Error(w, message, status)
}

// sendError maps err onto a response. Domain errors keep their status; anything
// else is logged and reported as a 500 with fallback as the message.
func (b *base) sendError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	apiErr, ok := apierrors.As(err)
	if !ok {
		logger.Log.Error(fallback,
			logger.WithRequestID(middleware.RequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		b.sendErrorMessage(w, r, fallback, http.StatusInternalServerError)
		return
	}

	if isAPIRequest(r) {
		b.sendJSON(w, apiErr.Status(), apiErr)
		return
	}
	if apiErr.Code == apierrors.ErrNotFound {
		b.notFound(w, r, apiErr.Message)
		return
	}
	http.Error(w, apiErr.Message, apiErr.Status())
}

func (b *base) notFound(w http.ResponseWriter, r *http.Request, message string) {
	if isAPIRequest(r) || b.views == nil {
		b.sendErrorMessage(w, r, message, http.StatusNotFound)
		return
	}
	b.render(w, r, http.StatusNotFound, "not_found", "Not found", message)
}

// render executes a page template, or answers 500 when it fails before writing.
func (b *base) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	if b.views == nil {
		b.sendErrorMessage(w, r, "Templates not loaded", http.StatusInternalServerError)
		return
	}
	page := Page{Title: title, User: auth.UserFromContext(r.Context()), Data: data}
	if err := b.views.render(w, status, name, page); err != nil {
		logger.Log.Error("template error", zap.String("template", name), zap.Error(err))
	}
}

func pathInt(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// pagination reads page and per_page, clamping per_page.
func pagination(r *http.Request) (int, int) {
	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	perPage := defaultPerPage
	if pp, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && pp > 0 {
		perPage = min(pp, maxPerPage)
	}
	return page, perPage
}

func queryLimit(r *http.Request) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		return min(n, maxPerPage)
	}
	return 0
}

func viewerID(r *http.Request) string {
	if user := auth.UserFromContext(r.Context()); user != nil {
		return user.ID
	}
	return ""
}
