package repositories

import "reddish/app/models"

// PostRepository defines the interface for post data access
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id int) (*models.Post, error)
	List() ([]*models.Post, error)
	ListBySubreddit(subredditID int) ([]*models.Post, error)
	Update(post *models.Post) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(comment *models.Comment) error
	GetByID(id int) (*models.Comment, error)
	ListByPost(postID int) ([]*models.Comment, error)
	CountByPost(postID int) (int, error)
	Update(comment *models.Comment) error
}

// SubredditRepository defines the interface for subreddit data access
type SubredditRepository interface {
	Create(subreddit *models.Subreddit) error
	GetByID(id int) (*models.Subreddit, error)
	GetBySlug(slug string) (*models.Subreddit, error)
	List() ([]*models.Subreddit, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	Update(user *models.User) error
}

// VoteRepository defines the interface for vote data access.
// A user holds at most one vote per target.
type VoteRepository interface {
	Toggle(userID string, target models.VoteTarget, requested models.VoteType) (models.VoteAction, error)
	Get(userID string, target models.VoteTarget) (*models.Vote, error)
	Summary(target models.VoteTarget) (models.VoteSummary, error)
}

var (
	_ PostRepository      = (*BadgerPostRepository)(nil)
	_ CommentRepository   = (*BadgerCommentRepository)(nil)
	_ SubredditRepository = (*BadgerSubredditRepository)(nil)
	_ UserRepository      = (*BadgerUserRepository)(nil)
	_ VoteRepository      = (*BadgerVoteRepository)(nil)
)
