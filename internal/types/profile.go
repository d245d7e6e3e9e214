package types

import (
  "time"
  "github.com/google/uuid"
)

const (
  ExperienceBeginner     = "beginner"
  ExperienceIntermediate = "intermediate"
  ExperienceAdvanced     = "advanced"
)

func ValidExperienceLevel(level string) bool {
  switch level {
  case ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced:
    return true
  }
  return false
}

// Profile holds the per-user settings that condition topic generation. One row
// per user, enforced by the unique index on user_id.
type Profile struct {
  ID                uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID            uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
  User              *User       `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
  ExperienceLevel   string      `gorm:"not null;column:experience_level" json:"experience_level"`
  YearsAwayFromDev  int         `gorm:"not null;default:0;column:years_away_from_dev" json:"years_away_from_dev"`
  ActivityStreak    int         `gorm:"not null;default:0;column:activity_streak" json:"activity_streak"`
  LastActiveAt      *time.Time  `gorm:"column:last_active_at" json:"last_active_at,omitempty"`
  CreatedAt         time.Time   `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt         time.Time   `gorm:"not null;default:now()" json:"updated_at"`
}

func (Profile) TableName() string {
  return "profile"
}
