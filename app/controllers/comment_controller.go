package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"reddish/app/auth"
	"reddish/app/services"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	base
	commentService *services.CommentService
}

// NewCommentController creates a new CommentController
func NewCommentController(commentService *services.CommentService, views *Renderer) *CommentController {
	return &CommentController{
		base:           base{views: views},
		commentService: commentService,
	}
}

// Index lists the comment tree of a post
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	postID, err := pathInt(r, "postId")
	if err != nil {
		cc.sendErrorMessage(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	comments, err := cc.commentService.ListPostComments(r.Context(), postID, viewerID(r))
	if err != nil {
		cc.sendError(w, r, err, "Failed to fetch comments")
		return
	}
	cc.sendJSON(w, http.StatusOK, comments)
}

// Top lists the best scoring comments of a post
func (cc *CommentController) Top(w http.ResponseWriter, r *http.Request) {
	postID, err := pathInt(r, "postId")
	if err != nil {
		cc.sendErrorMessage(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	comments, err := cc.commentService.TopComments(r.Context(), postID, queryLimit(r), viewerID(r))
	if err != nil {
		cc.sendError(w, r, err, "Failed to fetch comments")
		return
	}
	cc.sendJSON(w, http.StatusOK, comments)
}

type createCommentRequest struct {
	Content         string `json:"content"`
	ParentCommentID int    `json:"parentCommentId"`
}

// Create handles creating a new comment
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	postID, err := pathInt(r, "postId")
	if err != nil {
		cc.sendErrorMessage(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	var req createCommentRequest
	if isAPIRequest(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			cc.sendErrorMessage(w, r, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			cc.sendErrorMessage(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.Content = r.FormValue("content")
		if parent := r.FormValue("parentCommentId"); parent != "" {
			if req.ParentCommentID, err = strconv.Atoi(parent); err != nil {
				cc.sendErrorMessage(w, r, "Invalid parent comment ID", http.StatusBadRequest)
				return
			}
		}
	}

	comment, err := cc.commentService.CreateComment(r.Context(), auth.UserFromContext(r.Context()), postID, req.Content, req.ParentCommentID)
	if err != nil {
		cc.sendError(w, r, err, "Failed to create comment")
		return
	}

	if isAPIRequest(r) {
		cc.sendJSON(w, http.StatusCreated, comment)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/posts/%d#comment-%d", postID, comment.ID), http.StatusSeeOther)
}

// Delete handles deleting a comment
func (cc *CommentController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		cc.sendErrorMessage(w, r, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	comment, err := cc.commentService.DeleteComment(r.Context(), auth.UserFromContext(r.Context()), id)
	if err != nil {
		cc.sendError(w, r, err, "Failed to delete comment")
		return
	}

	if isAPIRequest(r) {
		cc.sendJSON(w, http.StatusOK, comment)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/posts/%d#comment-%d", comment.PostID, comment.ID), http.StatusSeeOther)
}
