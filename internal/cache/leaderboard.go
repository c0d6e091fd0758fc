package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"betahub/internal/model"
)

const (
	// LeaderboardPrefix is the key prefix for per-app leaderboards.
	LeaderboardPrefix = "leaderboard:app:"

	// LeaderboardTTL is refreshed on every write and read.
	LeaderboardTTL = 7 * 24 * time.Hour
)

// LeaderboardCache keeps approved testers of each app ranked by days tested.
type LeaderboardCache interface {
	// SetScore records the tester's current day count (ZADD).
	SetScore(ctx context.Context, appID, testerEmail string, daysTested int) error

	// AddIfAbsent inserts the tester with score 0 unless already ranked (ZADD NX).
	AddIfAbsent(ctx context.Context, appID, testerEmail string) error

	// Remove drops the tester from the app's leaderboard (ZREM).
	Remove(ctx context.Context, appID, testerEmail string) error

	// Top returns up to limit entries, highest day count first.
	Top(ctx context.Context, appID string, limit int) ([]model.LeaderboardEntry, error)

	// Warm replaces the app's leaderboard with entries.
	Warm(ctx context.Context, appID string, entries []model.LeaderboardEntry) error

	// Exists reports whether the app's leaderboard key is present.
	Exists(ctx context.Context, appID string) (bool, error)
}

// RedisLeaderboardCache implements LeaderboardCache with Redis sorted sets.
type RedisLeaderboardCache struct {
	client *redis.Client
	log    *logrus.Entry
}

func NewLeaderboardCache(client *redis.Client, logger logrus.FieldLogger) LeaderboardCache {
	return &RedisLeaderboardCache{
		client: client,
		log:    logger.WithField("component", "LeaderboardCache"),
	}
}

func leaderboardKey(appID string) string {
	return LeaderboardPrefix + appID
}

func (c *RedisLeaderboardCache) SetScore(ctx context.Context, appID, testerEmail string, daysTested int) error {
	key := leaderboardKey(appID)

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(daysTested), Member: testerEmail})
	pipe.Expire(ctx, key, LeaderboardTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"app": appID, "tester": testerEmail}).Warn("SetScore failed")
		return fmt.Errorf("set leaderboard score: %w", err)
	}

	c.log.WithFields(logrus.Fields{"app": appID, "tester": testerEmail, "days": daysTested}).Debug("SetScore OK")
	return nil
}

func (c *RedisLeaderboardCache) AddIfAbsent(ctx context.Context, appID, testerEmail string) error {
	key := leaderboardKey(appID)

	pipe := c.client.Pipeline()
	pipe.ZAddNX(ctx, key, redis.Z{Score: 0, Member: testerEmail})
	pipe.Expire(ctx, key, LeaderboardTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"app": appID, "tester": testerEmail}).Warn("AddIfAbsent failed")
		return fmt.Errorf("add leaderboard entry: %w", err)
	}
	return nil
}

func (c *RedisLeaderboardCache) Remove(ctx context.Context, appID, testerEmail string) error {
	if err := c.client.ZRem(ctx, leaderboardKey(appID), testerEmail).Err(); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"app": appID, "tester": testerEmail}).Warn("Remove failed")
		return fmt.Errorf("remove leaderboard entry: %w", err)
	}
	return nil
}

func (c *RedisLeaderboardCache) Top(ctx context.Context, appID string, limit int) ([]model.LeaderboardEntry, error) {
	key := leaderboardKey(appID)
	startTime := time.Now()

	results, err := c.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		c.log.WithError(err).WithField("app", appID).Warn("Top failed")
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}

	// Refresh TTL on access
	c.client.Expire(ctx, key, LeaderboardTTL)

	entries := make([]model.LeaderboardEntry, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected leaderboard member type %T", z.Member)
		}
		entries = append(entries, model.LeaderboardEntry{
			TesterEmail: member,
			DaysTested:  int(z.Score),
		})
	}

	c.log.WithFields(logrus.Fields{"app": appID, "returned": len(entries), "duration": time.Since(startTime)}).Debug("Top OK")
	return entries, nil
}

func (c *RedisLeaderboardCache) Warm(ctx context.Context, appID string, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}

	key := leaderboardKey(appID)
	members := make([]redis.Z, len(entries))
	for i, e := range entries {
		members[i] = redis.Z{Score: float64(e.DaysTested), Member: e.TesterEmail}
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.ZAdd(ctx, key, members...)
	pipe.Expire(ctx, key, LeaderboardTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"app": appID, "entries": len(entries)}).Warn("Warm failed")
		return fmt.Errorf("warm leaderboard: %w", err)
	}

	c.log.WithFields(logrus.Fields{"app": appID, "entries": len(entries)}).Debug("Warm OK")
	return nil
}

func (c *RedisLeaderboardCache) Exists(ctx context.Context, appID string) (bool, error) {
	n, err := c.client.Exists(ctx, leaderboardKey(appID)).Result()
	if err != nil {
		return false, fmt.Errorf("check leaderboard exists: %w", err)
	}
	return n > 0, nil
}
