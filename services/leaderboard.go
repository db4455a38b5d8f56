// services/leaderboard.go - Weekly leaderboard with optional caching
package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const weeklyLeaderboardKey = "leaderboard:weekly"

// LeaderboardRow is one user's last seven days, as returned by
// get_weekly_leaderboard().
type LeaderboardRow struct {
	Rank            int     `json:"rank" gorm:"-"`
	UserID          uint    `json:"user_id"`
	FullName        string  `json:"full_name"`
	AvatarURL       string  `json:"avatar_url"`
	WeeklyEmissions float64 `json:"weekly_emissions"`
	EntriesCount    int64   `json:"entries_count"`
}

// LeaderboardCache stores JSON-encodable values by key. Get reports whether
// the key was present.
type LeaderboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// WeeklyRanker produces the uncached leaderboard, lowest emitters first.
type WeeklyRanker interface {
	WeeklyLeaderboard(ctx context.Context) ([]LeaderboardRow, error)
}

type LeaderboardService struct {
	ranker WeeklyRanker
	cache  LeaderboardCache
	ttl    time.Duration
	log    *zap.Logger
}

// NewLeaderboardService accepts a nil cache, in which case every call goes to
// the ranker.
func NewLeaderboardService(ranker WeeklyRanker, cache LeaderboardCache, ttl time.Duration, log *zap.Logger) *LeaderboardService {
	return &LeaderboardService{ranker: ranker, cache: cache, ttl: ttl, log: log}
}

// Weekly returns at most limit ranked rows. A limit <= 0 returns all rows.
// Cache failures are logged and fall through to the database.
func (s *LeaderboardService) Weekly(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow

	hit := false
	if s.cache != nil {
		var err error
		hit, err = s.cache.Get(ctx, weeklyLeaderboardKey, &rows)
		if err != nil {
			s.log.Warn("Leaderboard cache read failed", zap.Error(err))
			hit = false
		}
	}

	if !hit {
		var err error
		rows, err = s.ranker.WeeklyLeaderboard(ctx)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			rows[i].Rank = i + 1
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, weeklyLeaderboardKey, rows, s.ttl); err != nil {
				s.log.Warn("Leaderboard cache write failed", zap.Error(err))
			}
		}
	}

	if rows == nil {
		rows = []LeaderboardRow{}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Invalidate drops the cached ranking so the next read recomputes it.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, weeklyLeaderboardKey); err != nil {
		s.log.Warn("Leaderboard cache invalidation failed", zap.Error(err))
	}
}
