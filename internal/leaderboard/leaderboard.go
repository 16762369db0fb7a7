// Package leaderboard holds the shared XP ranking. The server treats it as
// a best-effort collaborator: progress stays correct locally even when the
// ranking store is unreachable.
package leaderboard

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wisp-app/wisp-server/internal/models"
)

const (
	scoreKey = "wisp:leaderboard:xp"
	nameKey  = "wisp:leaderboard:names"
)

// Ranker is the remote ranking collaborator. Upsert has insert-or-update
// semantics keyed by user id.
type Ranker interface {
	Upsert(ctx context.Context, userID, username string, xp int) error
	Top(ctx context.Context, n int) ([]models.LeaderboardEntry, error)
	Rank(ctx context.Context, userID string) (int, error)
}

// RedisRanker keeps the ranking in a Redis sorted set, with a companion
// hash for display names.
type RedisRanker struct {
	rdb *goredis.Client
}

// NewRedisRanker connects to Redis and verifies the connection.
func NewRedisRanker(addr string) (*RedisRanker, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisRanker{rdb: rdb}, nil
}

func (r *RedisRanker) Upsert(ctx context.Context, userID, username string, xp int) error {
	pipe := r.rdb.TxPipeline()
	pipe.ZAdd(ctx, scoreKey, goredis.Z{Score: float64(xp), Member: userID})
	pipe.HSet(ctx, nameKey, userID, username)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard upsert for %s: %w", userID, err)
	}
	return nil
}

func (r *RedisRanker) Top(ctx context.Context, n int) ([]models.LeaderboardEntry, error) {
	if n <= 0 {
		n = 10
	}

	scores, err := r.rdb.ZRevRangeWithScores(ctx, scoreKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard range: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(scores))
	for i, z := range scores {
		userID, _ := z.Member.(string)
		username, err := r.rdb.HGet(ctx, nameKey, userID).Result()
		if err != nil && err != goredis.Nil {
			return nil, fmt.Errorf("leaderboard name lookup: %w", err)
		}
		entries = append(entries, models.LeaderboardEntry{
			UserID:   userID,
			Username: username,
			XP:       int(z.Score),
			Rank:     i + 1,
		})
	}
	return entries, nil
}

func (r *RedisRanker) Rank(ctx context.Context, userID string) (int, error) {
	rank, err := r.rdb.ZRevRank(ctx, scoreKey, userID).Result()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("leaderboard rank for %s: %w", userID, err)
	}
	return int(rank) + 1, nil
}

func (r *RedisRanker) Close() error {
	return r.rdb.Close()
}

// NopRanker stands in when no ranking store is configured.
type NopRanker struct{}

func (NopRanker) Upsert(context.Context, string, string, int) error { return nil }

func (NopRanker) Top(context.Context, int) ([]models.LeaderboardEntry, error) {
	return []models.LeaderboardEntry{}, nil
}

func (NopRanker) Rank(context.Context, string) (int, error) { return 0, nil }
