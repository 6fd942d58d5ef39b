package repositories

import (
	"errors"
	"fmt"
	"time"

	"reddish/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// toggleAttempts bounds retries when the same user toggles the same target concurrently.
const toggleAttempts = 10

// BadgerVoteRepository implements VoteRepository using BadgerDB.
// The key vote:<kind>:<targetID>:<userID> is the one-vote-per-user-per-target invariant.
type BadgerVoteRepository struct {
	db *badger.DB
}

// NewBadgerVoteRepository creates a new BadgerVoteRepository
func NewBadgerVoteRepository(db *badger.DB) *BadgerVoteRepository {
	return &BadgerVoteRepository{db: db}
}

func voteTargetPrefix(target models.VoteTarget) string {
	return fmt.Sprintf("%s%s:%d:", VoteKeyPrefix, target.Kind, target.ID)
}

func voteKey(userID string, target models.VoteTarget) []byte {
	return []byte(voteTargetPrefix(target) + userID)
}

// Toggle applies a vote request atomically and reports what changed.
func (r *BadgerVoteRepository) Toggle(userID string, target models.VoteTarget, requested models.VoteType) (models.VoteAction, error) {
	if !requested.Valid() {
		return "", fmt.Errorf("invalid vote type %q", requested)
	}
	if err := target.Validate(); err != nil {
		return "", err
	}

	var action models.VoteAction
	err := updateWithRetry(r.db, toggleAttempts, func(txn *badger.Txn) error {
		key := voteKey(userID, target)

		var existing models.Vote
		current := models.VoteNone
		err := getEntity(txn, key, &existing)
		switch {
		case err == nil:
			current = existing.Type
		case !errors.Is(err, ErrNotFound):
			return err
		}

		var next models.VoteType
		next, action = models.NextVote(current, requested)

		switch action {
		case models.VoteRemoved:
			return txn.Delete(key)
		case models.VoteSwitched:
			existing.Type = next
			return setEntity(txn, key, &existing)
		default:
			return setEntity(txn, key, &models.Vote{
				ID:        uuid.NewString(),
				UserID:    userID,
				Target:    target,
				Type:      next,
				CreatedAt: time.Now(),
			})
		}
	})
	if err != nil {
		return "", fmt.Errorf("toggling vote on %s: %w", target, err)
	}
	return action, nil
}

// Get returns the user's vote on target, or ErrNotFound
func (r *BadgerVoteRepository) Get(userID string, target models.VoteTarget) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, voteKey(userID, target), &vote)
	})
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// Summary tallies every vote on target
func (r *BadgerVoteRepository) Summary(target models.VoteTarget) (models.VoteSummary, error) {
	var summary models.VoteSummary
	err := r.db.View(func(txn *badger.Txn) error {
		votes, err := scanPrefix[models.Vote](txn, voteTargetPrefix(target))
		if err != nil {
			return err
		}
		for _, v := range votes {
			summary.Add(v.Type)
		}
		return nil
	})
	return summary, err
}
