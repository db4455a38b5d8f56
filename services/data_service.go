// services/data_service.go - Entry and achievement persistence
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carbonsense/models"

	"gorm.io/gorm"
)

// DataService is the storage the entry and badge flows run against. GormStore
// backs real users and DemoSession backs demo mode.
type DataService interface {
	// FetchEntries returns every entry of the user, newest first.
	FetchEntries(ctx context.Context, userID uint) ([]models.CarbonEntry, error)
	// FetchEntriesSince returns entries dated on or after from, newest first.
	FetchEntriesSince(ctx context.Context, userID uint, from time.Time) ([]models.CarbonEntry, error)
	FetchEarnedBadges(ctx context.Context, userID uint) (map[string]bool, error)
	// InsertAchievement fails when the badge is already recorded.
	InsertAchievement(ctx context.Context, userID uint, badgeID string) error
	InsertEntry(ctx context.Context, entry *models.CarbonEntry) error
}

// GormStore implements DataService and the user and leaderboard queries on
// PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FetchEntries(ctx context.Context, userID uint) ([]models.CarbonEntry, error) {
	var entries []models.CarbonEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("entry_date DESC, created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("fetch entries: %w", err)
	}
	return entries, nil
}

func (s *GormStore) FetchEntriesSince(ctx context.Context, userID uint, from time.Time) ([]models.CarbonEntry, error) {
	var entries []models.CarbonEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND entry_date >= ?", userID, models.DateOf(from).Format(models.DateLayout)).
		Order("entry_date DESC, created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("fetch entries since %s: %w", from.Format(models.DateLayout), err)
	}
	return entries, nil
}

func (s *GormStore) FetchEarnedBadges(ctx context.Context, userID uint) (map[string]bool, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.Achievement{}).
		Where("user_id = ?", userID).
		Pluck("badge_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("fetch earned badges: %w", err)
	}

	earned := make(map[string]bool, len(ids))
	for _, id := range ids {
		earned[id] = true
	}
	return earned, nil
}

func (s *GormStore) InsertAchievement(ctx context.Context, userID uint, badgeID string) error {
	return s.db.WithContext(ctx).Create(&models.Achievement{
		UserID:   userID,
		BadgeID:  badgeID,
		EarnedAt: time.Now().UTC(),
	}).Error
}

func (s *GormStore) InsertEntry(ctx context.Context, entry *models.CarbonEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// InsertEntries writes entries in batches, used by the importer.
func (s *GormStore) InsertEntries(ctx context.Context, entries []models.CarbonEntry, batchSize int) error {
	if len(entries) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&entries, batchSize).Error; err != nil {
		return fmt.Errorf("insert entries: %w", err)
	}
	return nil
}

// Users

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *GormStore) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (s *GormStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (s *GormStore) SaveUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *GormStore) TouchActivity(ctx context.Context, userID uint, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_activity", at).Error
}

// DeleteInactiveGuests removes guest users idle since before cutoff. Their
// entries and achievements go with them through ON DELETE CASCADE.
func (s *GormStore) DeleteInactiveGuests(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("is_guest = ? AND last_activity < ?", true, cutoff).
		Delete(&models.User{})
	return result.RowsAffected, result.Error
}

// Leaderboard

// WeeklyLeaderboard reads get_weekly_leaderboard(), lowest emitters first.
func (s *GormStore) WeeklyLeaderboard(ctx context.Context) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	err := s.db.WithContext(ctx).
		Raw("SELECT user_id, full_name, avatar_url, weekly_emissions, entries_count FROM get_weekly_leaderboard()").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("weekly leaderboard: %w", err)
	}
	return rows, nil
}
