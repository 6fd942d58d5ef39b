package repositories

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	// Key prefixes for different entity types
	PostKeyPrefix          = "post:"
	CommentKeyPrefix       = "comment:"
	CommentIndexPrefix     = "commentidx:"
	SubredditKeyPrefix     = "subreddit:"
	SubredditSlugKeyPrefix = "subreddit_slug:"
	UserKeyPrefix          = "user:"
	VoteKeyPrefix          = "vote:"

	// Sequence keys for auto-incrementing IDs
	PostSeqKey      = "seq:post"
	CommentSeqKey   = "seq:comment"
	SubredditSeqKey = "seq:subreddit"
)

// createAttempts bounds retries when concurrent creates race on a sequence key.
const createAttempts = 3

// getNextID gets the next available ID for a given sequence key
func getNextID(txn *badger.Txn, seqKey string) (int, error) {
	var id uint32
	item, err := txn.Get([]byte(seqKey))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		id = 1
	case err != nil:
		return 0, err
	default:
		err = item.Value(func(val []byte) error {
			if len(val) != 4 {
				return fmt.Errorf("corrupt sequence %s", seqKey)
			}
			id = binary.BigEndian.Uint32(val)
			return nil
		})
		if err != nil {
			return 0, err
		}
		id++
	}

	idBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(idBytes, id)
	if err := txn.Set([]byte(seqKey), idBytes); err != nil {
		return 0, err
	}

	return int(id), nil
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}

// getEntity loads the value at key into entity, mapping a missing key to ErrNotFound.
func getEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshalEntity(val, entity)
	})
}

// setEntity marshals entity and stores it at key.
func setEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	data, err := marshalEntity(entity)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// scanPrefix decodes every value under prefix.
func scanPrefix[T any](txn *badger.Txn, prefix string) ([]*T, error) {
	var out []*T
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		entity := new(T)
		if err := it.Item().Value(func(val []byte) error {
			return unmarshalEntity(val, entity)
		}); err != nil {
			return nil, fmt.Errorf("reading %s: %w", it.Item().Key(), err)
		}
		out = append(out, entity)
	}
	return out, nil
}

// countPrefix counts keys under prefix without fetching values.
func countPrefix(txn *badger.Txn, prefix string) int {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		n++
	}
	return n
}

// retryBaseDelay is the first backoff step between conflicting transactions.
var retryBaseDelay = 2 * time.Millisecond

// retryDelay doubles per attempt with full jitter so contending writers spread out.
func retryDelay(attempt int) time.Duration {
	ceiling := retryBaseDelay << min(attempt, 6)
	return time.Duration(rand.Int64N(int64(ceiling))) + time.Microsecond
}

// updateWithRetry runs fn in a read-write transaction, retrying on write conflicts.
func updateWithRetry(db *badger.DB, attempts int, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(retryDelay(i - 1))
		}
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}
