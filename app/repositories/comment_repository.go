package repositories

import (
	"encoding/binary"
	"fmt"

	"reddish/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB.
// Comments live under comment:<postID>:<id> so a post's thread is one prefix scan;
// commentidx:<id> maps a comment id back to its post.
type BadgerCommentRepository struct {
	db *badger.DB
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db}
}

func commentKey(postID, id int) []byte {
	return []byte(fmt.Sprintf("%s%d:%d", CommentKeyPrefix, postID, id))
}

func commentIndexKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%d", CommentIndexPrefix, id))
}

func commentPostPrefix(postID int) string {
	return fmt.Sprintf("%s%d:", CommentKeyPrefix, postID)
}

// Create creates a new comment
func (r *BadgerCommentRepository) Create(comment *models.Comment) error {
	return updateWithRetry(r.db, createAttempts, func(txn *badger.Txn) error {
		id, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}
		comment.ID = id

		if err := setEntity(txn, commentKey(comment.PostID, comment.ID), comment); err != nil {
			return err
		}

		postID := make([]byte, 4)
		binary.BigEndian.PutUint32(postID, uint32(comment.PostID))
		return txn.Set(commentIndexKey(comment.ID), postID)
	})
}

// lookupKey resolves the primary key of a comment through the index
func lookupKey(txn *badger.Txn, id int) ([]byte, error) {
	item, err := txn.Get(commentIndexKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var postID int
	err = item.Value(func(val []byte) error {
		if len(val) != 4 {
			return fmt.Errorf("corrupt comment index for %d", id)
		}
		postID = int(binary.BigEndian.Uint32(val))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return commentKey(postID, id), nil
}

// GetByID retrieves a comment by ID
func (r *BadgerCommentRepository) GetByID(id int) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		key, err := lookupKey(txn, id)
		if err != nil {
			return err
		}
		return getEntity(txn, key, &comment)
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByPost retrieves all comments for a post
func (r *BadgerCommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		comments, err = scanPrefix[models.Comment](txn, commentPostPrefix(postID))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments for post %d: %w", postID, err)
	}
	return comments, nil
}

// CountByPost counts a post's comments without decoding them
func (r *BadgerCommentRepository) CountByPost(postID int) (int, error) {
	var n int
	err := r.db.View(func(txn *badger.Txn) error {
		n = countPrefix(txn, commentPostPrefix(postID))
		return nil
	})
	return n, err
}

// Update updates an existing comment. The post a comment belongs to never changes.
func (r *BadgerCommentRepository) Update(comment *models.Comment) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key, err := lookupKey(txn, comment.ID)
		if err != nil {
			return err
		}

		var existing models.Comment
		if err := getEntity(txn, key, &existing); err != nil {
			return err
		}
		if existing.PostID != comment.PostID {
			return fmt.Errorf("comment %d belongs to post %d", comment.ID, existing.PostID)
		}

		return setEntity(txn, key, comment)
	})
}
