package models

import (
	"errors"
	"strings"
	"time"
)

// DeletedCommentContent replaces the text of a deleted comment.
const DeletedCommentContent = "[deleted]"

// Validate checks if the comment meets all validation requirements
func (c *Comment) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.CreatedAt.IsZero() {
		return errors.New("created_at cannot be zero")
	}

	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (c *Comment) BeforeCreate() {
	c.Content = strings.TrimSpace(c.Content)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
}

// SetPost attaches the comment to a post
func (c *Comment) SetPost(post *Post) error {
	if post == nil {
		return errors.New("post cannot be nil")
	}

	c.PostID = post.ID
	return nil
}

// SetParent makes the comment a reply. The parent must belong to the same post.
func (c *Comment) SetParent(parent *Comment) error {
	if parent == nil {
		return errors.New("parent comment cannot be nil")
	}
	if parent.PostID != c.PostID {
		return errors.New("parent comment belongs to another post")
	}

	c.ParentCommentID = parent.ID
	return nil
}

// SoftDelete blanks the content but keeps the comment so replies stay threaded.
func (c *Comment) SoftDelete() {
	c.IsDeleted = true
	c.Content = DeletedCommentContent
}

// IsOwnedBy reports whether userID authored the comment.
func (c *Comment) IsOwnedBy(userID string) bool {
	return userID != "" && c.AuthorID == userID
}
