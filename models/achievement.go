// models/achievement.go
package models

import "time"

// Achievement records a badge earned by a user. (user_id, badge_id) is unique.
type Achievement struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_achievements_user_badge" json:"user_id"`
	BadgeID  string    `gorm:"size:50;not null;uniqueIndex:idx_achievements_user_badge" json:"badge_id"`
	EarnedAt time.Time `gorm:"not null" json:"earned_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}
