package model

import (
	"strings"
	"time"
)

// Health is the owner-assessed condition of a plant.
type Health string

const (
	HealthUnset     Health = ""
	HealthExcellent Health = "excellent"
	HealthGood      Health = "good"
	HealthFair      Health = "fair"
	HealthPoor      Health = "poor"
)

// ParseHealth normalizes a health label. Unrecognized values map to HealthUnset.
func ParseHealth(s string) Health {
	switch Health(strings.ToLower(strings.TrimSpace(s))) {
	case HealthExcellent:
		return HealthExcellent
	case HealthGood:
		return HealthGood
	case HealthFair:
		return HealthFair
	case HealthPoor:
		return HealthPoor
	default:
		return HealthUnset
	}
}

// Archetype is the personality category that drives reminder tone.
type Archetype string

const (
	ArchetypeCheerful Archetype = "cheerful"
	ArchetypeDramatic Archetype = "dramatic"
	ArchetypeZen      Archetype = "zen"
	ArchetypeSassy    Archetype = "sassy"
	ArchetypeGrumpy   Archetype = "grumpy"
	ArchetypeShy      Archetype = "shy"
	ArchetypeFriendly Archetype = "friendly"
)

// WateringSchedule holds the stored watering dates of a plant.
// NextWateringDate is always LastWatered plus FrequencyDays when both are set.
type WateringSchedule struct {
	FrequencyDays    int `gorm:"not null;default:7"`
	LastWatered      *time.Time
	NextWateringDate *time.Time
}

// Plant is a single plant registered by an owner.
type Plant struct {
	ID               string `gorm:"primaryKey;size:36"`
	OwnerID          string `gorm:"index;not null"`
	Name             string `gorm:"not null"`
	Species          string
	Location         string
	Health           Health    `gorm:"size:16"`
	Archetype        Archetype `gorm:"size:32"`
	OwnerName        string
	WateringSchedule `gorm:"embedded"`
	Notes            string    `gorm:"type:text"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}
