package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reddish/app/apierrors"
	"reddish/app/logger"
	"reddish/app/metrics"
	"reddish/app/models"
	"reddish/app/repositories"

	"go.uber.org/zap"
)

const defaultModerationTimeout = 20 * time.Second

// ImageInput is an image attached to a new post, already read into memory.
type ImageInput struct {
	Data        []byte
	Filename    string
	ContentType string
}

// CreatePostInput carries what a user submits for a new post.
type CreatePostInput struct {
	Title         string      `json:"title"`
	SubredditSlug string      `json:"subreddit"`
	Body          string      `json:"body"`
	Image         *ImageInput `json:"-"`
}

// PostPage is a post together with its comment tree.
type PostPage struct {
	Post     *models.PostListing     `json:"post"`
	Comments []*models.CommentThread `json:"comments"`
}

// PostService handles business logic for posts
type PostService struct {
	postRepo      repositories.PostRepository
	subredditRepo repositories.SubredditRepository
	userRepo      repositories.UserRepository
	comments      *CommentService
	votes         *VoteService

	images            ImageUploader
	moderator         Moderator
	moderationTimeout time.Duration
}

// NewPostService creates a new PostService
func NewPostService(postRepo repositories.PostRepository, subredditRepo repositories.SubredditRepository, userRepo repositories.UserRepository, comments *CommentService, votes *VoteService) *PostService {
	return &PostService{
		postRepo:          postRepo,
		subredditRepo:     subredditRepo,
		userRepo:          userRepo,
		comments:          comments,
		votes:             votes,
		moderationTimeout: defaultModerationTimeout,
	}
}

// WithImages enables image attachments.
func (s *PostService) WithImages(images ImageUploader) *PostService {
	s.images = images
	return s
}

// WithModerator screens every new post with m, giving up after timeout.
func (s *PostService) WithModerator(m Moderator, timeout time.Duration) *PostService {
	s.moderator = m
	if timeout > 0 {
		s.moderationTimeout = timeout
	}
	return s
}

// CreatePost publishes a post into a subreddit, uploads its image and runs moderation
func (s *PostService) CreatePost(ctx context.Context, author *models.User, in CreatePostInput) (*models.PostListing, error) {
	if err := requireUser(author); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	slug := strings.ToLower(strings.TrimSpace(in.SubredditSlug))
	if title == "" || slug == "" {
		return nil, apierrors.BadRequest("Title and subreddit are required")
	}

	subreddit, err := s.subredditRepo.GetBySlug(slug)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("Subreddit %q", slug))
	}

	post := &models.Post{
		Title:       title,
		Body:        in.Body,
		AuthorID:    author.ID,
		SubredditID: subreddit.ID,
		Image:       s.uploadImage(ctx, in.Image),
	}
	post.BeforeCreate()
	if err := post.Validate(); err != nil {
		return nil, validationFailed(err)
	}
	if err := s.postRepo.Create(post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	metrics.Get().PostsCreatedTotal.Inc()
	logger.Log.Info("post created",
		logger.WithPostID(post.ID),
		logger.WithUserID(author.ID),
		zap.String("subreddit", subreddit.Slug),
	)

	s.moderate(ctx, post)

	// Re-read so the caller sees anything moderation changed.
	return s.GetPost(ctx, post.ID, author.ID)
}

// uploadImage stores the attachment. A failed upload leaves the post without an image.
func (s *PostService) uploadImage(ctx context.Context, img *ImageInput) *models.PostImage {
	if img == nil || len(img.Data) == 0 {
		return nil
	}
	if s.images == nil {
		logger.Log.Warn("image upload not configured; dropping attachment", zap.String("filename", img.Filename))
		metrics.Get().ImageUploads.WithLabelValues("skipped").Inc()
		return nil
	}

	stored, err := s.images.Upload(ctx, img.Data, img.Filename, img.ContentType)
	if err != nil {
		logger.Log.Error("image upload failed", zap.String("filename", img.Filename), zap.Error(err))
		metrics.Get().ImageUploads.WithLabelValues("error").Inc()
		return nil
	}
	metrics.Get().ImageUploads.WithLabelValues("ok").Inc()
	return stored
}

// moderate runs the moderator with its own deadline. Failures never block the post.
func (s *PostService) moderate(ctx context.Context, post *models.Post) {
	if s.moderator == nil {
		return
	}
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.moderationTimeout)
	defer cancel()

	if err := s.moderator.Moderate(mctx, post); err != nil {
		logger.Log.Error("moderation failed; keeping post", logger.WithPostID(post.ID), zap.Error(err))
	}
}

// GetPost returns one live post as a listing
func (s *PostService) GetPost(ctx context.Context, id int, viewerID string) (*models.PostListing, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, "Post")
	}
	if post.IsDeleted {
		return nil, apierrors.NotFound("Post")
	}
	return s.listing(ctx, newLookups(s.userRepo, s.subredditRepo), post, viewerID)
}

// GetPostPage returns a post with its threaded comments
func (s *PostService) GetPostPage(ctx context.Context, id int, viewerID string) (*PostPage, error) {
	listing, err := s.GetPost(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	threads, err := s.comments.ListPostComments(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	return &PostPage{Post: listing, Comments: threads}, nil
}

// ListPosts retrieves a sorted page of live posts across all subreddits
func (s *PostService) ListPosts(ctx context.Context, order models.SortOrder, page, perPage int, viewerID string) ([]*models.PostListing, error) {
	posts, err := s.postRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	listings, err := s.listings(ctx, posts, viewerID)
	if err != nil {
		return nil, err
	}
	models.SortListings(listings, order)
	return models.Paginate(listings, page, perPage), nil
}

// ListSubredditPosts is ListPosts scoped to one subreddit
func (s *PostService) ListSubredditPosts(ctx context.Context, slug string, order models.SortOrder, page, perPage int, viewerID string) (*models.Subreddit, []*models.PostListing, error) {
	subreddit, listings, err := s.subredditListings(ctx, slug, viewerID)
	if err != nil {
		return nil, nil, err
	}
	models.SortListings(listings, order)
	return subreddit, models.Paginate(listings, page, perPage), nil
}

// TopPostsBySubreddit returns a subreddit's posts with the highest net score
func (s *PostService) TopPostsBySubreddit(ctx context.Context, slug string, limit int, viewerID string) ([]*models.PostListing, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	_, listings, err := s.subredditListings(ctx, slug, viewerID)
	if err != nil {
		return nil, err
	}
	models.SortListings(listings, models.SortNew)
	models.SortByNetScore(listings)
	return models.Paginate(listings, 1, limit), nil
}

// ControversialPosts returns the posts with the most votes in either direction
func (s *PostService) ControversialPosts(ctx context.Context, limit int, viewerID string) ([]*models.PostListing, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	posts, err := s.postRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	listings, err := s.listings(ctx, posts, viewerID)
	if err != nil {
		return nil, err
	}
	models.SortListings(listings, models.SortNew)
	models.SortByTotalVotes(listings)
	return models.Paginate(listings, 1, limit), nil
}

// DeletePost hides a post. Only its author may do so; votes and comments are kept.
func (s *PostService) DeletePost(ctx context.Context, user *models.User, id int) error {
	if err := requireUser(user); err != nil {
		return err
	}

	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return notFoundOr(err, "Post")
	}
	if post.IsDeleted {
		return apierrors.NotFound("Post")
	}
	if !post.IsOwnedBy(user.ID) {
		return apierrors.Forbidden("Only the author can delete this post")
	}

	post.SoftDelete()
	if err := s.postRepo.Update(post); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	logger.Log.Info("post deleted", logger.WithPostID(id), logger.WithUserID(user.ID))
	return nil
}

func (s *PostService) subredditListings(ctx context.Context, slug, viewerID string) (*models.Subreddit, []*models.PostListing, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	subreddit, err := s.subredditRepo.GetBySlug(slug)
	if err != nil {
		return nil, nil, notFoundOr(err, fmt.Sprintf("Subreddit %q", slug))
	}
	posts, err := s.postRepo.ListBySubreddit(subreddit.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list posts: %w", err)
	}
	listings, err := s.listings(ctx, posts, viewerID)
	if err != nil {
		return nil, nil, err
	}
	return subreddit, listings, nil
}

// listings decorates every live post; deleted posts are dropped.
func (s *PostService) listings(ctx context.Context, posts []*models.Post, viewerID string) ([]*models.PostListing, error) {
	look := newLookups(s.userRepo, s.subredditRepo)
	out := make([]*models.PostListing, 0, len(posts))
	for _, post := range posts {
		if post.IsDeleted {
			continue
		}
		l, err := s.listing(ctx, look, post, viewerID)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *PostService) listing(ctx context.Context, look *lookups, post *models.Post, viewerID string) (*models.PostListing, error) {
	l := &models.PostListing{
		Post:      post,
		Author:    look.user(post.AuthorID),
		Subreddit: look.subreddit(post.SubredditID),
	}

	var err error
	target := models.PostTarget(post.ID)
	if l.Votes, err = s.votes.summary(ctx, target); err != nil {
		return nil, err
	}
	if l.UserVote, err = s.votes.UserVote(ctx, viewerID, target); err != nil {
		return nil, err
	}
	if l.CommentCount, err = s.comments.CountComments(post.ID); err != nil {
		return nil, fmt.Errorf("failed to count comments for post %d: %w", post.ID, err)
	}
	return l, nil
}
