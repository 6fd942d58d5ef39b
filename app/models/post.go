package models

import (
	"errors"
	"strings"
	"time"
)

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	if p.PublishedAt.IsZero() {
		return errors.New("published_at cannot be zero")
	}

	return nil
}

// BeforeCreate trims input and stamps the publish time
func (p *Post) BeforeCreate() {
	p.Title = strings.TrimSpace(p.Title)
	p.Body = strings.TrimSpace(p.Body)
	if p.PublishedAt.IsZero() {
		p.PublishedAt = time.Now()
	}
}

// SoftDelete hides the post while keeping its id, votes and comments.
func (p *Post) SoftDelete() {
	p.IsDeleted = true
	p.Title = "[deleted]"
	p.Body = ""
	p.Image = nil
}

// Censor replaces the provided fields and flags the post as reported.
func (p *Post) Censor(title, body *string) {
	if title != nil {
		p.Title = *title
	}
	if body != nil {
		p.Body = *body
	}
	p.IsReported = true
}

// IsOwnedBy reports whether userID authored the post.
func (p *Post) IsOwnedBy(userID string) bool {
	return userID != "" && p.AuthorID == userID
}
