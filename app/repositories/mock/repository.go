package mock

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"reddish/app/models"
	"reddish/app/repositories"
)

var (
	_ repositories.PostRepository      = (*PostRepository)(nil)
	_ repositories.CommentRepository   = (*CommentRepository)(nil)
	_ repositories.SubredditRepository = (*SubredditRepository)(nil)
	_ repositories.UserRepository      = (*UserRepository)(nil)
	_ repositories.VoteRepository      = (*VoteRepository)(nil)
)

// Repositories hand out copies so callers cannot mutate stored state without Update,
// the same as the badger implementations.

type PostRepository struct {
	posts  map[int]models.Post
	nextID int
	mutex  sync.RWMutex
}

func NewPostRepository() *PostRepository {
	return &PostRepository{
		posts:  make(map[int]models.Post),
		nextID: 1,
	}
}

func (m *PostRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = make(map[int]models.Post)
	m.nextID = 1
}

func (m *PostRepository) Create(post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	post.ID = m.nextID
	m.nextID++
	m.posts[post.ID] = *post
	return nil
}

func (m *PostRepository) GetByID(id int) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return &post, nil
}

func (m *PostRepository) Update(post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.posts[post.ID]; !exists {
		return repositories.ErrNotFound
	}
	m.posts[post.ID] = *post
	return nil
}

func (m *PostRepository) List() ([]*models.Post, error) {
	return m.filter(func(*models.Post) bool { return true }), nil
}

func (m *PostRepository) ListBySubreddit(subredditID int) ([]*models.Post, error) {
	return m.filter(func(p *models.Post) bool { return p.SubredditID == subredditID }), nil
}

func (m *PostRepository) filter(keep func(*models.Post) bool) []*models.Post {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var posts []*models.Post
	for id := 1; id < m.nextID; id++ {
		if post, exists := m.posts[id]; exists && keep(&post) {
			posts = append(posts, &post)
		}
	}
	return posts
}

type CommentRepository struct {
	comments map[int]models.Comment
	nextID   int
	mutex    sync.RWMutex
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{
		comments: make(map[int]models.Comment),
		nextID:   1,
	}
}

func (m *CommentRepository) Create(comment *models.Comment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	comment.ID = m.nextID
	m.nextID++
	m.comments[comment.ID] = *comment
	return nil
}

func (m *CommentRepository) GetByID(id int) (*models.Comment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	comment, exists := m.comments[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return &comment, nil
}

func (m *CommentRepository) Update(comment *models.Comment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	existing, exists := m.comments[comment.ID]
	if !exists {
		return repositories.ErrNotFound
	}
	if existing.PostID != comment.PostID {
		return fmt.Errorf("comment %d belongs to post %d", comment.ID, existing.PostID)
	}
	m.comments[comment.ID] = *comment
	return nil
}

func (m *CommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var comments []*models.Comment
	for id := 1; id < m.nextID; id++ {
		if comment, exists := m.comments[id]; exists && comment.PostID == postID {
			comments = append(comments, &comment)
		}
	}
	return comments, nil
}

func (m *CommentRepository) CountByPost(postID int) (int, error) {
	comments, err := m.ListByPost(postID)
	return len(comments), err
}

type SubredditRepository struct {
	subreddits map[int]models.Subreddit
	nextID     int
	mutex      sync.RWMutex
}

func NewSubredditRepository() *SubredditRepository {
	return &SubredditRepository{
		subreddits: make(map[int]models.Subreddit),
		nextID:     1,
	}
}

func (m *SubredditRepository) Create(subreddit *models.Subreddit) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, s := range m.subreddits {
		if strings.EqualFold(s.Slug, subreddit.Slug) {
			return repositories.ErrConflict
		}
	}
	subreddit.ID = m.nextID
	m.nextID++
	m.subreddits[subreddit.ID] = *subreddit
	return nil
}

func (m *SubredditRepository) GetByID(id int) (*models.Subreddit, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	s, exists := m.subreddits[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

func (m *SubredditRepository) GetBySlug(slug string) (*models.Subreddit, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, s := range m.subreddits {
		if strings.EqualFold(s.Slug, slug) {
			return &s, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *SubredditRepository) List() ([]*models.Subreddit, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var out []*models.Subreddit
	for id := 1; id < m.nextID; id++ {
		if s, exists := m.subreddits[id]; exists {
			out = append(out, &s)
		}
	}
	return out, nil
}

type UserRepository struct {
	users map[string]models.User
	mutex sync.RWMutex
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]models.User)}
}

func (m *UserRepository) Create(user *models.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.users[user.ID]; exists {
		return repositories.ErrConflict
	}
	m.users[user.ID] = *user
	return nil
}

func (m *UserRepository) GetByID(id string) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	u, exists := m.users[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (m *UserRepository) Update(user *models.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.users[user.ID]; !exists {
		return repositories.ErrNotFound
	}
	m.users[user.ID] = *user
	return nil
}

type voteKey struct {
	target models.VoteTarget
	userID string
}

type VoteRepository struct {
	votes  map[voteKey]models.Vote
	nextID int
	mutex  sync.RWMutex

	// Err, when set, is returned by Toggle.
	Err error
}

func NewVoteRepository() *VoteRepository {
	return &VoteRepository{votes: make(map[voteKey]models.Vote), nextID: 1}
}

func (m *VoteRepository) Toggle(userID string, target models.VoteTarget, requested models.VoteType) (models.VoteAction, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if !requested.Valid() {
		return "", fmt.Errorf("invalid vote type %q", requested)
	}

	key := voteKey{target: target, userID: userID}
	existing, exists := m.votes[key]
	current := models.VoteNone
	if exists {
		current = existing.Type
	}

	next, action := models.NextVote(current, requested)
	switch action {
	case models.VoteRemoved:
		delete(m.votes, key)
	case models.VoteSwitched:
		existing.Type = next
		m.votes[key] = existing
	default:
		m.votes[key] = models.Vote{
			ID:        fmt.Sprintf("vote-%d", m.nextID),
			UserID:    userID,
			Target:    target,
			Type:      next,
			CreatedAt: time.Now(),
		}
		m.nextID++
	}
	return action, nil
}

func (m *VoteRepository) Get(userID string, target models.VoteTarget) (*models.Vote, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	v, exists := m.votes[voteKey{target: target, userID: userID}]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return &v, nil
}

func (m *VoteRepository) Summary(target models.VoteTarget) (models.VoteSummary, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var summary models.VoteSummary
	for key, v := range m.votes {
		if key.target == target {
			summary.Add(v.Type)
		}
	}
	return summary, nil
}

// Voters lists who voted on target, sorted, for assertions.
func (m *VoteRepository) Voters(target models.VoteTarget) []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var users []string
	for key := range m.votes {
		if key.target == target {
			users = append(users, key.userID)
		}
	}
	sort.Strings(users)
	return users
}
