package services

import (
	"context"
	"errors"
	"testing"

	"reddish/app/apierrors"
	"reddish/app/models"
	"reddish/app/repositories/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	posts      *mock.PostRepository
	comments   *mock.CommentRepository
	subreddits *mock.SubredditRepository
	users      *mock.UserRepository
	votes      *mock.VoteRepository

	voteService      *VoteService
	commentService   *CommentService
	postService      *PostService
	subredditService *SubredditService
	userService      *UserService

	alice  *models.User
	bob    *models.User
	golang *models.Subreddit
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		posts:      mock.NewPostRepository(),
		comments:   mock.NewCommentRepository(),
		subreddits: mock.NewSubredditRepository(),
		users:      mock.NewUserRepository(),
		votes:      mock.NewVoteRepository(),
	}
	env.voteService = NewVoteService(env.votes, env.posts, env.comments, nil)
	env.commentService = NewCommentService(env.comments, env.posts, env.users, env.voteService)
	env.postService = NewPostService(env.posts, env.subreddits, env.users, env.commentService, env.voteService)
	env.subredditService = NewSubredditService(env.subreddits)
	env.userService = NewUserService(env.users)

	ctx := context.Background()
	var err error
	env.alice, err = env.userService.EnsureUser(ctx, models.User{ID: "user_alice", Username: "alice"})
	require.NoError(t, err)
	env.bob, err = env.userService.EnsureUser(ctx, models.User{ID: "user_bob", Username: "bob"})
	require.NoError(t, err)
	env.golang, err = env.subredditService.CreateSubreddit(ctx, env.alice, CreateSubredditInput{Title: "Golang", Description: "Gophers"})
	require.NoError(t, err)
	return env
}

func (env *testEnv) createPost(t *testing.T, author *models.User, title string) *models.PostListing {
	t.Helper()
	post, err := env.postService.CreatePost(context.Background(), author, CreatePostInput{Title: title, SubredditSlug: env.golang.Slug})
	require.NoError(t, err)
	return post
}

func assertCode(t *testing.T, err error, code apierrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := apierrors.As(err)
	require.True(t, ok, "expected APIError, got %v", err)
	assert.Equal(t, code, apiErr.Code)
}

func TestValidationFailedNamesField(t *testing.T) {
	err := validationFailed((&models.Post{SubredditID: 1, AuthorID: "a"}).Validate())
	apiErr, ok := apierrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apierrors.ErrValidation, apiErr.Code)
	assert.Equal(t, "title", apiErr.Field)
	assert.Equal(t, "title is required", apiErr.Message)

	err = validationFailed(errors.New("plain"))
	assert.True(t, apierrors.Is(err, apierrors.ErrValidation))
}
