// models/user.go
package models

import (
	"time"
)

type User struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Username  string  `gorm:"uniqueIndex;not null" json:"username"`
	Email     *string `gorm:"uniqueIndex" json:"email,omitempty"`
	Password  string  `gorm:"not null" json:"-"`
	FullName  string  `json:"full_name"`
	AvatarURL string  `json:"avatar_url"`
	IsGuest   bool    `gorm:"default:false" json:"is_guest"`

	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastLogin    time.Time `json:"last_login"`
	LastActivity time.Time `json:"last_activity"`

	Entries      []CarbonEntry `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Achievements []Achievement `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName falls back to the username when no full name is set.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
