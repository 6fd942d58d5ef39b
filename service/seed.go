package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"reddish/app/apierrors"
	"reddish/app/auth"
	"reddish/app/logger"
	"reddish/app/models"
	"reddish/app/repositories"
	"reddish/app/routes"
	"reddish/app/services"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// SeedCounts says how much demo content to create.
type SeedCounts struct {
	Users      int
	Subreddits int
	Posts      int
	Comments   int
	Votes      int
}

func newSeedCommand(c *cli) *cobra.Command {
	counts := SeedCounts{Users: 10, Subreddits: 4, Posts: 30, Comments: 80, Votes: 200}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := repositories.Open(c.cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			app, err := routes.SetupRoutes(store, auth.NewVerifier(c.cfg.SessionSecret, c.cfg.SessionCookie), routes.Options{})
			if err != nil {
				return err
			}
			created, err := NewSeeder(app).Seed(cmd.Context(), counts)
			if err != nil {
				return err
			}
			printSeedSummary(cmd.OutOrStdout(), created)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&counts.Users, "users", counts.Users, "Users to create")
	f.IntVar(&counts.Subreddits, "subreddits", counts.Subreddits, "Subreddits to create")
	f.IntVar(&counts.Posts, "posts", counts.Posts, "Posts to create")
	f.IntVar(&counts.Comments, "comments", counts.Comments, "Comments to create")
	f.IntVar(&counts.Votes, "votes", counts.Votes, "Votes to cast")
	return cmd
}

func printSeedSummary(w io.Writer, c SeedCounts) {
	fmt.Fprintf(w, "Seeded %d users, %d subreddits, %d posts, %d comments and %d votes\n",
		c.Users, c.Subreddits, c.Posts, c.Comments, c.Votes)
}

// Seeder creates demo content through the services so every business rule applies.
type Seeder struct {
	app *routes.App
}

func NewSeeder(app *routes.App) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{app: app}
}

// Seed creates up to the requested counts and reports what was actually created.
func (s *Seeder) Seed(ctx context.Context, want SeedCounts) (SeedCounts, error) {
	var got SeedCounts

	users, err := s.seedUsers(ctx, want.Users)
	if err != nil {
		return got, fmt.Errorf("failed to seed users: %w", err)
	}
	got.Users = len(users)
	if len(users) == 0 {
		return got, nil
	}

	subreddits, err := s.seedSubreddits(ctx, users, want.Subreddits)
	if err != nil {
		return got, fmt.Errorf("failed to seed subreddits: %w", err)
	}
	got.Subreddits = len(subreddits)
	if len(subreddits) == 0 {
		return got, nil
	}

	posts, err := s.seedPosts(ctx, users, subreddits, want.Posts)
	if err != nil {
		return got, fmt.Errorf("failed to seed posts: %w", err)
	}
	got.Posts = len(posts)
	if len(posts) == 0 {
		return got, nil
	}

	comments, err := s.seedComments(ctx, users, posts, want.Comments)
	if err != nil {
		return got, fmt.Errorf("failed to seed comments: %w", err)
	}
	got.Comments = len(comments)

	if got.Votes, err = s.seedVotes(ctx, users, posts, comments, want.Votes); err != nil {
		return got, fmt.Errorf("failed to seed votes: %w", err)
	}

	logger.Log.Info("Seeding complete",
		zap.Int("users", got.Users),
		zap.Int("subreddits", got.Subreddits),
		zap.Int("posts", got.Posts),
		zap.Int("comments", got.Comments),
		zap.Int("votes", got.Votes),
	)
	return got, nil
}

func (s *Seeder) seedUsers(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := s.app.Users.EnsureUser(ctx, models.User{
			ID:       "seed_" + gofakeit.UUID(),
			Username: gofakeit.Username(),
			Email:    gofakeit.Email(),
		})
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// seedSubreddits skips generated names that collide with an existing slug.
func (s *Seeder) seedSubreddits(ctx context.Context, users []*models.User, n int) ([]*models.Subreddit, error) {
	subreddits := make([]*models.Subreddit, 0, n)
	for attempts := 0; len(subreddits) < n && attempts < n*5; attempts++ {
		sub, err := s.app.Subreddits.CreateSubreddit(ctx, pick(users), services.CreateSubredditInput{
			Title:       fmt.Sprintf("%s %s", gofakeit.City(), gofakeit.Word()),
			Description: gofakeit.HipsterSentence(),
		})
		if apierrors.Is(err, apierrors.ErrConflict) || apierrors.Is(err, apierrors.ErrValidation) {
			continue
		}
		if err != nil {
			return nil, err
		}
		subreddits = append(subreddits, sub)
	}
	return subreddits, nil
}

func (s *Seeder) seedPosts(ctx context.Context, users []*models.User, subreddits []*models.Subreddit, n int) ([]*models.PostListing, error) {
	posts := make([]*models.PostListing, 0, n)
	for i := 0; i < n; i++ {
		post, err := s.app.Posts.CreatePost(ctx, pick(users), services.CreatePostInput{
			Title:         gofakeit.HipsterSentence(),
			SubredditSlug: pick(subreddits).Slug,
			Body:          gofakeit.HipsterSentence() + " " + gofakeit.HipsterSentence(),
		})
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// seedComments makes roughly a third of the comments replies to earlier ones on the same post.
func (s *Seeder) seedComments(ctx context.Context, users []*models.User, posts []*models.PostListing, n int) ([]*models.CommentThread, error) {
	comments := make([]*models.CommentThread, 0, n)
	byPost := make(map[int][]*models.CommentThread)
	for i := 0; i < n; i++ {
		post := pick(posts)
		parentID := 0
		if earlier := byPost[post.ID]; len(earlier) > 0 && gofakeit.Number(0, 2) == 0 {
			parentID = pick(earlier).ID
		}

		comment, err := s.app.Comments.CreateComment(ctx, pick(users), post.ID, gofakeit.HipsterSentence(), parentID)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
		byPost[post.ID] = append(byPost[post.ID], comment)
	}
	return comments, nil
}

// seedVotes casts n votes, three quarters of them on posts. Repeated picks
// toggle like a real user would, so the final tally may be lower than n.
func (s *Seeder) seedVotes(ctx context.Context, users []*models.User, posts []*models.PostListing, comments []*models.CommentThread, n int) (int, error) {
	cast := 0
	for i := 0; i < n; i++ {
		target := models.PostTarget(pick(posts).ID)
		if len(comments) > 0 && gofakeit.Number(0, 3) == 0 {
			target = models.CommentTarget(pick(comments).ID)
		}

		vote := s.app.Votes.Upvote
		if gofakeit.Number(0, 3) == 0 {
			vote = s.app.Votes.Downvote
		}
		if _, err := vote(ctx, pick(users), target); err != nil {
			return cast, err
		}
		cast++
	}
	return cast, nil
}

func pick[T any](items []T) T {
	return items[gofakeit.Number(0, len(items)-1)]
}
