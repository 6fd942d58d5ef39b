package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// User is a community member. The ID is the subject issued by the authentication provider.
type User struct {
	ID         string    `json:"id" validate:"required,max=128"`
	Username   string    `json:"username" validate:"required,max=64"`
	Email      string    `json:"email,omitempty" validate:"omitempty,email"`
	ImageURL   string    `json:"imageUrl,omitempty" validate:"omitempty,url"`
	JoinedAt   time.Time `json:"joinedAt"`
	IsReported bool      `json:"isReported"`
}

// Subreddit is a named community that posts belong to.
type Subreddit struct {
	ID          int       `json:"id" validate:"gte=0"`
	Title       string    `json:"title" validate:"required,min=3,max=100"`
	Slug        string    `json:"slug" validate:"required,min=2,max=64"`
	Description string    `json:"description,omitempty" validate:"max=500"`
	ImageURL    string    `json:"imageUrl,omitempty" validate:"omitempty,url"`
	ModeratorID string    `json:"moderatorId" validate:"required"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PostImage describes an uploaded image asset.
type PostImage struct {
	AssetKey    string `json:"assetKey"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Post is a submission to a subreddit.
type Post struct {
	ID          int        `json:"id" validate:"gte=0"`
	Title       string     `json:"title" validate:"required,max=300"`
	Body        string     `json:"body,omitempty" validate:"max=40000"`
	AuthorID    string     `json:"authorId" validate:"required"`
	SubredditID int        `json:"subredditId" validate:"required,gt=0"`
	Image       *PostImage `json:"image,omitempty"`
	PublishedAt time.Time  `json:"publishedAt"`
	IsReported  bool       `json:"isReported"`
	IsDeleted   bool       `json:"isDeleted"`
}

// Comment is a reply to a post or to another comment on the same post.
type Comment struct {
	ID              int       `json:"id" validate:"gte=0"`
	PostID          int       `json:"postId" validate:"required,gt=0"`
	ParentCommentID int       `json:"parentCommentId,omitempty" validate:"gte=0"`
	AuthorID        string    `json:"authorId" validate:"required"`
	Content         string    `json:"content" validate:"required,max=1000"`
	CreatedAt       time.Time `json:"createdAt"`
	IsReported      bool      `json:"isReported"`
	IsDeleted       bool      `json:"isDeleted"`
}

// Vote is a single user's up or down vote on one post or comment.
type Vote struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Target    VoteTarget `json:"target"`
	Type      VoteType   `json:"voteType"`
	CreatedAt time.Time  `json:"createdAt"`
}
