package model

import "time"

// ReminderEntry is a generated reminder message for one plant on one calendar day.
type ReminderEntry struct {
	PlantID     string    `gorm:"primaryKey;size:36"`
	Message     string    `gorm:"type:text;not null"`
	GeneratedOn string    `gorm:"size:10;not null"` // YYYY-MM-DD
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}
