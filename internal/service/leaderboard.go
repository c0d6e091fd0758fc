package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"betahub/internal/cache"
	"betahub/internal/metrics"
	"betahub/internal/model"
	"betahub/internal/repository"
)

type LeaderboardService struct {
	cache cache.LeaderboardCache // nil when Redis is not configured
	repo  repository.TesterRequestRepository
	log   *logrus.Entry
}

func NewLeaderboardService(
	leaderboardCache cache.LeaderboardCache,
	repo repository.TesterRequestRepository,
	logger logrus.FieldLogger,
) *LeaderboardService {
	return &LeaderboardService{
		cache: leaderboardCache,
		repo:  repo,
		log:   logger.WithField("component", "LeaderboardService"),
	}
}

// Top returns the app's approved testers with the most days tested.
//
// Flow:
// 1. Serve from the Redis sorted set when it exists
// 2. Otherwise rank approved requests from the database
// 3. Warm the cache with the full ranking for later reads
func (s *LeaderboardService) Top(ctx context.Context, appID string, limit int) ([]model.LeaderboardEntry, error) {
	if appID == "" {
		return nil, model.ErrMissingFields
	}
	if limit == 0 {
		limit = model.LeaderboardDefaultLimit
	}
	if limit < 0 || limit > model.LeaderboardMaxLimit {
		return nil, model.ErrInvalidLimit
	}

	if s.cache != nil {
		exists, err := s.cache.Exists(ctx, appID)
		if err != nil {
			// Continue without cache - fall back to DB
			s.log.WithError(err).WithField("app", appID).Warn("Cache check failed")
		}
		if exists {
			entries, err := s.cache.Top(ctx, appID, limit)
			if err == nil {
				metrics.RecordLeaderboardRead("cache")
				return entries, nil
			}
			s.log.WithError(err).WithField("app", appID).Warn("Cache read failed")
		}
	}

	ranking, err := s.rankFromDB(ctx, appID)
	if err != nil {
		return nil, err
	}
	metrics.RecordLeaderboardRead("database")

	if s.cache != nil {
		if err := s.cache.Warm(ctx, appID, ranking); err != nil {
			s.log.WithError(err).WithField("app", appID).Warn("Cache warm failed")
		}
	}

	if len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking, nil
}

// rankFromDB orders approved testers by days tested, ties broken the way
// ZREVRANGE breaks them (member descending) so both sources agree.
func (s *LeaderboardService) rankFromDB(ctx context.Context, appID string) ([]model.LeaderboardEntry, error) {
	requests, err := s.repo.ListByApp(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("load app requests: %w", err)
	}

	ranking := make([]model.LeaderboardEntry, 0, len(requests))
	for _, r := range requests {
		if !r.IsApproved() {
			continue
		}
		ranking = append(ranking, model.LeaderboardEntry{TesterEmail: r.TesterEmail, DaysTested: r.DaysTested})
	}

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].DaysTested != ranking[j].DaysTested {
			return ranking[i].DaysTested > ranking[j].DaysTested
		}
		return ranking[i].TesterEmail > ranking[j].TesterEmail
	})
	return ranking, nil
}
