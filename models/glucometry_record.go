package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MealTime describes when a reading was taken relative to eating
type MealTime string

const (
	MealTimeFasting         MealTime = "Fasting"
	MealTimeBeforeBreakfast MealTime = "Before breakfast"
	MealTimeAfterBreakfast  MealTime = "After breakfast"
	MealTimeBeforeLunch     MealTime = "Before lunch"
	MealTimeAfterLunch      MealTime = "After lunch"
	MealTimeBeforeDinner    MealTime = "Before dinner"
	MealTimeAfterDinner     MealTime = "After dinner"
	MealTimeBeforeBed       MealTime = "Before bed"
	MealTimeOther           MealTime = "Other"
)

// MealTimes lists the nine accepted labels in display order
var MealTimes = []MealTime{
	MealTimeFasting,
	MealTimeBeforeBreakfast,
	MealTimeAfterBreakfast,
	MealTimeBeforeLunch,
	MealTimeAfterLunch,
	MealTimeBeforeDinner,
	MealTimeAfterDinner,
	MealTimeBeforeBed,
	MealTimeOther,
}

// IsValid reports whether m is one of MealTimes
func (m MealTime) IsValid() bool {
	for _, known := range MealTimes {
		if m == known {
			return true
		}
	}
	return false
}

const (
	MinReading = 20
	MaxReading = 600
)

// GlucometryRecord is a single glucose measurement owned by a user
type GlucometryRecord struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);not null;index:idx_glucometry_user_date,priority:1"`
	Date      time.Time `json:"date" gorm:"not null;index:idx_glucometry_user_date,priority:2"`
	Reading   float64   `json:"reading" gorm:"not null"`
	Notes     string    `json:"notes" gorm:"size:500"`
	MealTime  MealTime  `json:"mealTime" gorm:"type:varchar(32);not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns a UUID and the default meal time
func (r *GlucometryRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.MealTime == "" {
		r.MealTime = MealTimeOther
	}
	return nil
}
