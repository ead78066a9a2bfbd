package models

import "time"

// DailyWaldo is the user hidden for one calendar day (UTC).
type DailyWaldo struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	Date       time.Time `gorm:"type:date;uniqueIndex;not null" json:"date"`
	SecretCode string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
}
