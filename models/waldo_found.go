package models

import "time"

// WaldoFound records one user finding one DailyWaldo.
// The composite unique index is what guarantees a single claim per user per day.
type WaldoFound struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	DailyWaldoID uint       `gorm:"uniqueIndex:uix_found_user_waldo,priority:2;not null" json:"daily_waldo_id"`
	UserID       uint       `gorm:"uniqueIndex:uix_found_user_waldo,priority:1;index;not null" json:"user_id"`
	PointsEarned int        `gorm:"not null" json:"points_earned"`
	Date         time.Time  `gorm:"type:date;index;not null" json:"date"`
	CreatedAt    time.Time  `json:"created_at"`
	User         User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	DailyWaldo   DailyWaldo `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TableName keeps the singular table name used by the schema.
func (WaldoFound) TableName() string {
	return "waldo_found"
}
