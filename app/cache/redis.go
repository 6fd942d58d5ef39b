package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reddish/app/logger"
	"reddish/app/metrics"
	"reddish/app/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisClient wraps the redis.Client with connection pooling
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, host, port, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}
	addr := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	logger.Log.Info("Redis client connected", zap.String("address", addr))
	return &RedisClient{client: client}, nil
}

// Close closes the Redis connection gracefully
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Close()
}

// VoteCache keeps vote summaries in Redis for a short TTL.
// A nil *VoteCache is valid and never hits.
//
// Each target has a generation counter bumped by Invalidate. Readers take the
// generation before counting votes and Set drops the write if it moved, so a
// summary computed before a toggle never replaces the post-toggle state.
type VoteCache struct {
	rc  *RedisClient
	ttl time.Duration
}

func NewVoteCache(rc *RedisClient, ttl time.Duration) *VoteCache {
	return &VoteCache{rc: rc, ttl: ttl}
}

// generationTTL outlives any summary so a counter cannot reset under a reader.
const generationTTL = 24 * time.Hour

// NoGeneration is returned when the counter cannot be read; Set ignores it.
const NoGeneration int64 = -1

func summaryKey(target models.VoteTarget) string {
	return fmt.Sprintf("reddish:votes:%s:%d", target.Kind, target.ID)
}

func generationKey(target models.VoteTarget) string {
	return summaryKey(target) + ":gen"
}

// Generation returns the target's current generation, to be passed to Set.
func (c *VoteCache) Generation(ctx context.Context, target models.VoteTarget) int64 {
	if c == nil || c.rc == nil {
		return NoGeneration
	}
	gen, err := c.rc.client.Get(ctx, generationKey(target)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0
	case err != nil:
		logger.Log.Warn("vote cache generation read failed", zap.String("target", target.String()), zap.Error(err))
		return NoGeneration
	}
	return gen
}

// Get returns the cached summary and whether it was present.
func (c *VoteCache) Get(ctx context.Context, target models.VoteTarget) (models.VoteSummary, bool) {
	var summary models.VoteSummary
	if c == nil || c.rc == nil {
		return summary, false
	}

	raw, err := c.rc.client.Get(ctx, summaryKey(target)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("vote cache read failed", zap.String("target", target.String()), zap.Error(err))
		}
		metrics.Get().CacheMisses.WithLabelValues("votes").Inc()
		return summary, false
	}
	if err := json.Unmarshal(raw, &summary); err != nil {
		metrics.Get().CacheMisses.WithLabelValues("votes").Inc()
		return summary, false
	}

	metrics.Get().CacheHits.WithLabelValues("votes").Inc()
	return summary, true
}

var errStaleGeneration = errors.New("vote cache generation moved")

// Set stores a summary computed at generation gen. The write is skipped when
// the target was invalidated since. Failures are logged; the cache is never authoritative.
func (c *VoteCache) Set(ctx context.Context, target models.VoteTarget, gen int64, summary models.VoteSummary) {
	if c == nil || c.rc == nil || c.ttl <= 0 || gen == NoGeneration {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}

	genKey := generationKey(target)
	err = c.rc.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, summaryKey(target), raw, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		logger.Log.Debug("vote cache write skipped; summary is stale", zap.String("target", target.String()))
	default:
		logger.Log.Warn("vote cache write failed", zap.String("target", target.String()), zap.Error(err))
	}
}

// Invalidate bumps the target's generation and drops its cached summary.
func (c *VoteCache) Invalidate(ctx context.Context, target models.VoteTarget) {
	if c == nil || c.rc == nil {
		return
	}
	_, err := c.rc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(target))
		pipe.Expire(ctx, generationKey(target), generationTTL)
		pipe.Del(ctx, summaryKey(target))
		return nil
	})
	if err != nil {
		logger.Log.Warn("vote cache invalidate failed", zap.String("target", target.String()), zap.Error(err))
	}
}
