package services

import (
  "context"
  "fmt"
  "net/url"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/yungbote/relearn-backend/internal/apierr"
  "github.com/yungbote/relearn-backend/internal/logger"
  "github.com/yungbote/relearn-backend/internal/normalization"
  "github.com/yungbote/relearn-backend/internal/repos"
  "github.com/yungbote/relearn-backend/internal/requestdata"
  "github.com/yungbote/relearn-backend/internal/types"
)

const (
  maxTopicTitleLen       = 200
  maxTopicDescriptionLen = 1000
  maxTechnologyLen       = 50
  maxLeetCodeLinks       = 5
  maxListLimit           = 100
  defaultListLimit       = 20
)

type TopicCreateInput struct {
  Title         string               `json:"title"`
  Description   string               `json:"description"`
  Status        string               `json:"status"`
  Technology    string               `json:"technology"`
  ParentID      *uuid.UUID           `json:"parent_id"`
  LeetCodeLinks []types.LeetCodeLink `json:"leetcode_links"`
}

// TopicUpdateInput patches only non-nil fields.
type TopicUpdateInput struct {
  Title         *string               `json:"title"`
  Description   *string               `json:"description"`
  Status        *string               `json:"status"`
  Technology    *string               `json:"technology"`
  ParentID      *uuid.UUID            `json:"parent_id"`
  LeetCodeLinks *[]types.LeetCodeLink `json:"leetcode_links"`
}

type TopicListInput struct {
  Status     string
  Technology string
  // ParentID filters direct children; RootsOnly selects parent_id IS NULL
  // (the API's parent_id=null).
  ParentID  *uuid.UUID
  RootsOnly bool
  Sort      string
  Order     string
  Page      int
  Limit     int
}

type TopicListResult struct {
  Topics []*types.Topic `json:"topics"`
  Total  int64          `json:"total"`
  Page   int            `json:"page"`
  Limit  int            `json:"limit"`
}

type TopicService interface {
  ListTopics(ctx context.Context, input TopicListInput) (*TopicListResult, error)
  GetTopic(ctx context.Context, topicID uuid.UUID) (*types.Topic, error)
  GetChildren(ctx context.Context, topicID uuid.UUID) ([]*types.Topic, error)
  CreateTopic(ctx context.Context, input TopicCreateInput) (*types.Topic, error)
  UpdateTopic(ctx context.Context, topicID uuid.UUID, input TopicUpdateInput) (*types.Topic, error)
  DeleteTopic(ctx context.Context, topicID uuid.UUID) error
}

type topicService struct {
  db        *gorm.DB
  log       *logger.Logger
  topicRepo repos.TopicRepo
}

func NewTopicService(db *gorm.DB, log *logger.Logger, topicRepo repos.TopicRepo) TopicService {
  serviceLog := log.With("service", "TopicService")
  return &topicService{db: db, log: serviceLog, topicRepo: topicRepo}
}

func validateTopicTitle(title string) error {
  if title == "" {
    return fmt.Errorf("title is required")
  }
  if len(title) > maxTopicTitleLen {
    return fmt.Errorf("title must be at most %d characters", maxTopicTitleLen)
  }
  return nil
}

func validateTopicDescription(description string) error {
  if len(description) > maxTopicDescriptionLen {
    return fmt.Errorf("description must be at most %d characters", maxTopicDescriptionLen)
  }
  return nil
}

func validateTechnology(technology string) error {
  if technology == "" {
    return fmt.Errorf("technology is required")
  }
  if len(technology) > maxTechnologyLen {
    return fmt.Errorf("technology must be at most %d characters", maxTechnologyLen)
  }
  return nil
}

func validateLeetCodeLinks(links []types.LeetCodeLink) error {
  if len(links) > maxLeetCodeLinks {
    return fmt.Errorf("at most %d leetcode links allowed", maxLeetCodeLinks)
  }
  for i, link := range links {
    if link.Title == "" || len(link.Title) > maxTopicTitleLen {
      return fmt.Errorf("leetcode_links[%d].title must be 1-%d characters", i, maxTopicTitleLen)
    }
    parsed, err := url.Parse(link.URL)
    if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
      return fmt.Errorf("leetcode_links[%d].url must be a valid http(s) url", i)
    }
    if !types.ValidDifficulty(link.Difficulty) {
      return fmt.Errorf("leetcode_links[%d].difficulty must be one of Easy, Medium, Hard", i)
    }
  }
  return nil
}

// requireOwnedParent resolves the parent within the caller's rows. A parent that
// exists but belongs to another user surfaces as NOT_FOUND, never FORBIDDEN.
func (ts *topicService) requireOwnedParent(ctx context.Context, tx *gorm.DB, userID, parentID uuid.UUID) error {
  parent, err := ts.topicRepo.GetByID(ctx, tx, userID, parentID)
  if err != nil {
    return apierr.Internal(fmt.Errorf("Failed to check parent topic: %w", err))
  }
  if parent == nil {
    return apierr.NotFound(fmt.Errorf("Parent topic not found"))
  }
  return nil
}

func (ts *topicService) ListTopics(ctx context.Context, input TopicListInput) (*TopicListResult, error) {
  userID := requestdata.UserID(ctx)
  if userID == uuid.Nil {
    return nil, apierr.Authentication(fmt.Errorf("User id not set in request data"))
  }

  if input.Status != "" && !types.ValidTopicStatus(input.Status) {
    return nil, apierr.Validation(fmt.Errorf("status must be one of to_do, in_progress, completed"), nil)
  }
  if input.Limit <= 0 {
    input.Limit = defaultListLimit
  }
  if input.Limit > maxListLimit {
    return nil, apierr.Validation(fmt.Errorf("limit must be at most %d", maxListLimit), nil)
  }
  if input.Page <= 0 {
    input.Page = 1
  }

  topics, total, err := ts.topicRepo.List(ctx, nil, userID, repos.TopicListFilter{
    Status:     input.Status,
    Technology: input.Technology,
    ParentID:   input.ParentID,
    RootsOnly:  input.RootsOnly,
    SortField:  input.Sort,
    SortOrder:  input.Order,
    Page:       input.Page,
    Limit:      input.Limit,
  })
  if err != nil {
    return nil, apierr.Internal(fmt.Errorf("Failed to list topics: %w", err))
  }
  return &TopicListResult{Topics: topics, Total: total, Page: input.Page, Limit: input.Limit}, nil
}

func (ts *topicService) GetTopic(ctx context.Context, topicID uuid.UUID) (*types.Topic, error) {
  userID := requestdata.UserID(ctx)
  if userID == uuid.Nil {
    return nil, apierr.Authentication(fmt.Errorf("User id not set in request data"))
  }
  topic, err := ts.topicRepo.GetByID(ctx, nil, userID, topicID)
  if err != nil {
    return nil, apierr.Internal(fmt.Errorf("Failed to load topic: %w", err))
  }
  if topic == nil {
    return nil, apierr.NotFound(fmt.Errorf("Topic not found"))
  }
  return topic, nil
}

func (ts *topicService) GetChildren(ctx context.Context, topicID uuid.UUID) ([]*types.Topic, error) {
  userID := requestdata.UserID(ctx)
  if userID == uuid.Nil {
    return nil, apierr.Authentication(fmt.Errorf("User id not set in request data"))
  }
  parent, err := ts.topicRepo.GetByID(ctx, nil, userID, topicID)
  if err != nil {
    return nil, apierr.Internal(fmt.Errorf("Failed to load topic: %w", err))
  }
  if parent == nil {
    return nil, apierr.NotFound(fmt.Errorf("Topic not found"))
  }
  children, err := ts.topicRepo.ListChildren(ctx, nil, userID, topicID)
  if err != nil {
    return nil, apierr.Internal(fmt.Errorf("Failed to list children: %w", err))
  }
  return children, nil
}

func (ts *topicService) CreateTopic(ctx context.Context, input TopicCreateInput) (*types.Topic, error) {
  userID := requestdata.UserID(ctx)
  if userID == uuid.Nil {
    return nil, apierr.Authentication(fmt.Errorf("User id not set in request data"))
  }

  input.Title = normalization.TrimInputString(input.Title)
  input.Description = normalization.TrimInputString(input.Description)
  input.Technology = normalization.TrimInputString(input.Technology)
  if input.Status == "" {
    input.Status = types.TopicStatusToDo
  }

  if err := validateTopicTitle(input.Title); err != nil {
    return nil, apierr.Validation(err, nil)
  }
  if err := validateTopicDescription(input.Description); err != nil {
    return nil, apierr.Validation(err, nil)
  }
  if err := validateTechnology(input.Technology); err != nil {
    return nil, apierr.Validation(err, nil)
  }
  if !types.ValidTopicStatus(input.Status) {
    return nil, apierr.Validation(fmt.Errorf("status must be one of to_do, in_progress, completed"), nil)
  }
  if err := validateLeetCodeLinks(input.LeetCodeLinks); err != nil {
    return nil, apierr.Validation(err, nil)
  }

  links, mErr := types.MarshalLinks(input.LeetCodeLinks)
  if mErr != nil {
    return nil, apierr.Internal(fmt.Errorf("Failed to marshal leetcode links: %w", mErr))
  }

  var topic *types.Topic
  err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if input.ParentID != nil {
      if pErr := ts.requireOwnedParent(ctx, tx, userID, *input.ParentID); pErr != nil {
        return pErr
      }
    }
    now := time.Now()
    topic = &types.Topic{
      ID:            uuid.New(),
      UserID:        userID,
      ParentID:      input.ParentID,
      Title:         input.Title,
      Description:   input.Description,
      Status:        input.Status,
      Technology:    input.Technology,
      LeetCodeLinks: links,
      CreatedAt:     now,
      UpdatedAt:     now,
    }
    if _, cErr := ts.topicRepo.Create(ctx, tx, []*types.Topic{topic}); cErr != nil {
      return apierr.Internal(fmt.Errorf("Failed to create topic: %w", cErr))
    }
    return nil
  })
  if err != nil {
    return nil, err
  }
  return topic, nil
}

func (ts *topicService) UpdateTopic(ctx context.Context, topicID uuid.UUID, input TopicUpdateInput) (*types.Topic, error) {
  userID := requestdata.UserID(ctx)
  if userID == uuid.Nil {
    return nil, apierr.Authentication(fmt.Errorf("User id not set in request data"))
  }

  fields := map[string]any{}
  if input.Title != nil {
    title := normalization.TrimInputString(*input.Title)
    if err := validateTopicTitle(title); err != nil {
      return nil, apierr.Validation(err, nil)
    }
    fields["title"] = title
  }
  if input.Description != nil {
    description := normalization.TrimInputString(*input.Description)
    if err := validateTopicDescription(description); err != nil {
      return nil, apierr.Validation(err, nil)
    }
    fields["description"] = description
  }
  if input.Status != nil {
    if !types.ValidTopicStatus(*input.Status) {
      return nil, apierr.Validation(fmt.Errorf("status must be one of to_do, in_progress, completed"), nil)
    }
    fields["status"] = *input.Status
  }
  if input.Technology != nil {
    technology := normalization.TrimInputString(*input.Technology)
    if err := validateTechnology(technology); err != nil {
      return nil, apierr.Validation(err, nil)
    }
    fields["technology"] = technology
  }
  if input.LeetCodeLinks != nil {
    if err := validateLeetCodeLinks(*input.LeetCodeLinks); err != nil {
      return nil, apierr.Validation(err, nil)
    }
    links, mErr := types.MarshalLinks(*input.LeetCodeLinks)
    if mErr != nil {
      return nil, apierr.Internal(fmt.Errorf("Failed to marshal leetcode links: %w", mErr))
    }
    fields["leetcode_links"] = links
  }
  if input.ParentID != nil {
    if *input.ParentID == topicID {
      return nil, apierr.Validation(fmt.Errorf("A topic cannot be its own parent"), nil)
    }
    fields["parent_id"] = *input.ParentID
  }

  if len(fields) == 0 {
    return nil, apierr.Validation(fmt.Errorf("No fields to update"), nil)
  }
  fields["updated_at"] = time.Now()

  var updated *types.Topic
  err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if input.ParentID != nil {
      if pErr := ts.requireOwnedParent(ctx, tx, userID, *input.ParentID); pErr != nil {
        return pErr
      }
    }
    affected, uErr := ts.topicRepo.UpdateFields(ctx, tx, userID, topicID, fields)
    if uErr != nil {
      return apierr.Internal(fmt.Errorf("Failed to update topic: %w", uErr))
    }
    if affected == 0 {
      return apierr.NotFound(fmt.Errorf("Topic not found"))
    }
    topic, gErr := ts.topicRepo.GetByID(ctx, tx, userID, topicID)
    if gErr != nil {
      return apierr.Internal(fmt.Errorf("Failed to load updated topic: %w", gErr))
    }
    updated = topic
    return nil
  })
  if err != nil {
    return nil, err
  }
  return updated, nil
}

func (ts *topicService) DeleteTopic(ctx context.Context, topicID uuid.UUID) error {
  userID := requestdata.UserID(ctx)
  if userID == uuid.Nil {
    return apierr.Authentication(fmt.Errorf("User id not set in request data"))
  }
  affected, err := ts.topicRepo.DeleteByID(ctx, nil, userID, topicID)
  if err != nil {
    return apierr.Internal(fmt.Errorf("Failed to delete topic: %w", err))
  }
  if affected == 0 {
    return apierr.NotFound(fmt.Errorf("Topic not found"))
  }
  return nil
}
