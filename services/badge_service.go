// services/badge_service.go - Badge awarding after an entry is saved
package services

import (
	"context"

	"carbonsense/badges"
	"carbonsense/models"

	"go.uber.org/zap"
)

type BadgeService struct {
	notifier Notifier
	log      *zap.Logger
}

func NewBadgeService(notifier Notifier, log *zap.Logger) *BadgeService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &BadgeService{notifier: notifier, log: log}
}

// Award evaluates the user's full history and records each newly qualifying
// badge. Only badges whose insert succeeded are returned. Awarding never
// fails the caller: a fetch error yields no badges and a failed insert (most
// often a duplicate from a concurrent submission) drops that badge.
func (s *BadgeService) Award(ctx context.Context, store DataService, userID uint) []badges.Badge {
	entries, err := store.FetchEntries(ctx, userID)
	if err != nil {
		s.log.Warn("Badge check skipped: could not fetch entries", zap.Uint("user_id", userID), zap.Error(err))
		return []badges.Badge{}
	}

	earned, err := store.FetchEarnedBadges(ctx, userID)
	if err != nil {
		s.log.Warn("Badge check skipped: could not fetch earned badges", zap.Uint("user_id", userID), zap.Error(err))
		return []badges.Badge{}
	}

	awarded := []badges.Badge{}
	for _, id := range badges.Evaluate(models.History(entries), earned) {
		if err := store.InsertAchievement(ctx, userID, id); err != nil {
			s.log.Debug("Badge insert dropped", zap.Uint("user_id", userID), zap.String("badge_id", id), zap.Error(err))
			continue
		}
		b, _ := badges.Lookup(id)
		awarded = append(awarded, b)
	}

	if len(awarded) > 0 {
		s.notifier.Notify(userID, EventBadgeEarned, awarded)
	}
	return awarded
}

// AchievementView is one catalog badge with the user's earned flag.
// Attainable is false for badges no rule awards.
type AchievementView struct {
	badges.Badge
	Earned     bool `json:"earned"`
	Attainable bool `json:"attainable"`
}

// Achievements merges the catalog with the user's earned set.
func (s *BadgeService) Achievements(ctx context.Context, store DataService, userID uint) ([]AchievementView, int, error) {
	earned, err := store.FetchEarnedBadges(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	catalog := badges.Catalog()
	views := make([]AchievementView, 0, len(catalog))
	count := 0
	for _, b := range catalog {
		if earned[b.ID] {
			count++
		}
		views = append(views, AchievementView{Badge: b, Earned: earned[b.ID], Attainable: badges.HasRule(b.ID)})
	}
	return views, count, nil
}
