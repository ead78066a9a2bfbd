package models

import "time"

// WaldoHint is a clue attached to a DailyWaldo. Hints are append-only.
type WaldoHint struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	DailyWaldoID uint       `gorm:"index;not null" json:"daily_waldo_id"`
	HintText     string     `gorm:"type:text" json:"text"`
	HintImageURL string     `gorm:"size:512" json:"image"`
	CreatedAt    time.Time  `gorm:"index" json:"time"`
	DailyWaldo   DailyWaldo `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
