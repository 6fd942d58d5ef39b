package repositories

import (
	"encoding/binary"
	"fmt"
	"strings"

	"reddish/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerSubredditRepository implements SubredditRepository using BadgerDB.
// subreddit_slug:<slug> holds the id so slugs stay unique.
type BadgerSubredditRepository struct {
	db *badger.DB
}

// NewBadgerSubredditRepository creates a new BadgerSubredditRepository
func NewBadgerSubredditRepository(db *badger.DB) *BadgerSubredditRepository {
	return &BadgerSubredditRepository{db: db}
}

func subredditKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%d", SubredditKeyPrefix, id))
}

func subredditSlugKey(slug string) []byte {
	return []byte(SubredditSlugKeyPrefix + strings.ToLower(slug))
}

// Create stores a new subreddit. A taken slug returns ErrConflict.
func (r *BadgerSubredditRepository) Create(subreddit *models.Subreddit) error {
	return updateWithRetry(r.db, createAttempts, func(txn *badger.Txn) error {
		slugKey := subredditSlugKey(subreddit.Slug)
		if _, err := txn.Get(slugKey); err == nil {
			return ErrConflict
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		id, err := getNextID(txn, SubredditSeqKey)
		if err != nil {
			return err
		}
		subreddit.ID = id

		if err := setEntity(txn, subredditKey(id), subreddit); err != nil {
			return err
		}
		idBytes := make([]byte, 4)
		binary.BigEndian.PutUint32(idBytes, uint32(id))
		return txn.Set(slugKey, idBytes)
	})
}

// GetByID retrieves a subreddit by ID
func (r *BadgerSubredditRepository) GetByID(id int) (*models.Subreddit, error) {
	var subreddit models.Subreddit
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, subredditKey(id), &subreddit)
	})
	if err != nil {
		return nil, err
	}
	return &subreddit, nil
}

// GetBySlug looks a subreddit up by slug, ignoring case
func (r *BadgerSubredditRepository) GetBySlug(slug string) (*models.Subreddit, error) {
	var subreddit models.Subreddit
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(subredditSlugKey(slug))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var id int
		if err := item.Value(func(val []byte) error {
			if len(val) != 4 {
				return fmt.Errorf("corrupt slug index for %q", slug)
			}
			id = int(binary.BigEndian.Uint32(val))
			return nil
		}); err != nil {
			return err
		}
		return getEntity(txn, subredditKey(id), &subreddit)
	})
	if err != nil {
		return nil, err
	}
	return &subreddit, nil
}

// List returns every subreddit
func (r *BadgerSubredditRepository) List() ([]*models.Subreddit, error) {
	var subreddits []*models.Subreddit
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		subreddits, err = scanPrefix[models.Subreddit](txn, SubredditKeyPrefix)
		return err
	})
	if err != nil {
		return nil, err
	}
	return subreddits, nil
}
