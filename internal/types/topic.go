package types

import (
  "encoding/json"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
)

const (
  TopicStatusToDo       = "to_do"
  TopicStatusInProgress = "in_progress"
  TopicStatusCompleted  = "completed"
)

func ValidTopicStatus(status string) bool {
  switch status {
  case TopicStatusToDo, TopicStatusInProgress, TopicStatusCompleted:
    return true
  }
  return false
}

const (
  DifficultyEasy   = "Easy"
  DifficultyMedium = "Medium"
  DifficultyHard   = "Hard"
)

func ValidDifficulty(difficulty string) bool {
  switch difficulty {
  case DifficultyEasy, DifficultyMedium, DifficultyHard:
    return true
  }
  return false
}

type LeetCodeLink struct {
  Title      string `json:"title"`
  URL        string `json:"url"`
  Difficulty string `json:"difficulty"`
}

// Topic is a node in the per-user learning forest. ParentID is self-referential
// within the same user; the FK cascade removes all descendants on delete.
type Topic struct {
  ID            uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
  User          *User           `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
  ParentID      *uuid.UUID      `gorm:"type:uuid;index;column:parent_id" json:"parent_id,omitempty"`
  Parent        *Topic          `gorm:"constraint:OnDelete:CASCADE;foreignKey:ParentID;references:ID" json:"parent,omitempty"`
  Title         string          `gorm:"not null;column:title" json:"title"`
  Description   string          `gorm:"column:description" json:"description"`
  Status        string          `gorm:"not null;default:to_do;index;column:status" json:"status"`
  Technology    string          `gorm:"not null;index;column:technology" json:"technology"`
  LeetCodeLinks datatypes.JSON  `gorm:"type:jsonb;column:leetcode_links" json:"leetcode_links"`
  CreatedAt     time.Time       `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt     time.Time       `gorm:"not null;default:now()" json:"updated_at"`
}

func (Topic) TableName() string {
  return "topic"
}

func (t *Topic) Links() ([]LeetCodeLink, error) {
  if len(t.LeetCodeLinks) == 0 {
    return []LeetCodeLink{}, nil
  }
  var links []LeetCodeLink
  if err := json.Unmarshal(t.LeetCodeLinks, &links); err != nil {
    return nil, err
  }
  return links, nil
}

func MarshalLinks(links []LeetCodeLink) (datatypes.JSON, error) {
  if links == nil {
    links = []LeetCodeLink{}
  }
  b, err := json.Marshal(links)
  if err != nil {
    return nil, err
  }
  return datatypes.JSON(b), nil
}
