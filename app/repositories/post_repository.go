package repositories

import (
	"fmt"

	"reddish/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db *badger.DB
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

func postKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%d", PostKeyPrefix, id))
}

// Create creates a new post
func (r *BadgerPostRepository) Create(post *models.Post) error {
	return updateWithRetry(r.db, createAttempts, func(txn *badger.Txn) error {
		id, err := getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}
		post.ID = id
		return setEntity(txn, postKey(post.ID), post)
	})
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(id int) (*models.Post, error) {
	var post models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, postKey(id), &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns every stored post, deleted ones included. Callers filter and order.
func (r *BadgerPostRepository) List() ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		posts, err = scanPrefix[models.Post](txn, PostKeyPrefix)
		return err
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ListBySubreddit returns every post in one subreddit
func (r *BadgerPostRepository) ListBySubreddit(subredditID int) ([]*models.Post, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}
	posts := make([]*models.Post, 0, len(all))
	for _, p := range all {
		if p.SubredditID == subredditID {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

// Update updates an existing post
func (r *BadgerPostRepository) Update(post *models.Post) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key := postKey(post.ID)

		_, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return setEntity(txn, key, post)
	})
}
