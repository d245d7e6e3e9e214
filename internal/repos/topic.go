package repos

import (
  "context"
  "errors"
  "fmt"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/yungbote/relearn-backend/internal/logger"
  "github.com/yungbote/relearn-backend/internal/types"
)

// TopicListFilter narrows List. ParentID and RootsOnly are mutually exclusive:
// RootsOnly selects parent_id IS NULL, ParentID selects direct children.
type TopicListFilter struct {
  Status     string
  Technology string
  ParentID   *uuid.UUID
  RootsOnly  bool
  SortField  string
  SortOrder  string
  Page       int
  Limit      int
}

var topicSortColumns = map[string]string{
  "created_at": "created_at",
  "updated_at": "updated_at",
  "title":      "title",
  "status":     "status",
}

type TopicRepo interface {
  Create(ctx context.Context, tx *gorm.DB, topics []*types.Topic) ([]*types.Topic, error)
  GetByID(ctx context.Context, tx *gorm.DB, userID, topicID uuid.UUID) (*types.Topic, error)
  List(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filter TopicListFilter) ([]*types.Topic, int64, error)
  ListChildren(ctx context.Context, tx *gorm.DB, userID, parentID uuid.UUID) ([]*types.Topic, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, userID, topicID uuid.UUID, fields map[string]any) (int64, error)
  DeleteByID(ctx context.Context, tx *gorm.DB, userID, topicID uuid.UUID) (int64, error)
}

type topicRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
  repoLog := baseLog.With("repo", "TopicRepo")
  return &topicRepo{db: db, log: repoLog}
}

func (tr *topicRepo) Create(ctx context.Context, tx *gorm.DB, topics []*types.Topic) ([]*types.Topic, error) {
  transaction := tx
  if transaction == nil {
    transaction = tr.db
  }

  if len(topics) == 0 {
    return []*types.Topic{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&topics).Error; err != nil {
    return nil, err
  }
  return topics, nil
}

// GetByID returns nil when the row is absent OR owned by someone else. Callers
// cannot tell the two apart, which keeps cross-user probing blind.
func (tr *topicRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, topicID uuid.UUID) (*types.Topic, error) {
  transaction := tx
  if transaction == nil {
    transaction = tr.db
  }

  var result types.Topic
  if err := transaction.WithContext(ctx).
    Where("id = ? AND user_id = ?", topicID, userID).
    First(&result).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &result, nil
}

func (tr *topicRepo) List(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filter TopicListFilter) ([]*types.Topic, int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = tr.db
  }

  query := transaction.WithContext(ctx).
    Model(&types.Topic{}).
    Where("user_id = ?", userID)

  if filter.Status != "" {
    query = query.Where("status = ?", filter.Status)
  }
  if filter.Technology != "" {
    query = query.Where("technology = ?", filter.Technology)
  }
  if filter.RootsOnly {
    query = query.Where("parent_id IS NULL")
  } else if filter.ParentID != nil {
    query = query.Where("parent_id = ?", *filter.ParentID)
  }

  var total int64
  if err := query.Count(&total).Error; err != nil {
    return nil, 0, err
  }

  column, ok := topicSortColumns[filter.SortField]
  if !ok {
    column = "created_at"
  }
  direction := "DESC"
  if filter.SortOrder == "asc" {
    direction = "ASC"
  }

  limit := filter.Limit
  if limit <= 0 {
    limit = 20
  }
  page := filter.Page
  if page <= 0 {
    page = 1
  }

  var results []*types.Topic
  if err := query.
    Order(fmt.Sprintf("%s %s", column, direction)).
    Limit(limit).
    Offset((page - 1) * limit).
    Find(&results).Error; err != nil {
    return nil, 0, err
  }
  return results, total, nil
}

func (tr *topicRepo) ListChildren(ctx context.Context, tx *gorm.DB, userID, parentID uuid.UUID) ([]*types.Topic, error) {
  transaction := tx
  if transaction == nil {
    transaction = tr.db
  }

  var results []*types.Topic
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND parent_id = ?", userID, parentID).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

// UpdateFields patches only the given columns, scoped to the owning user in the
// same statement. The affected-row count distinguishes not-found from success.
func (tr *topicRepo) UpdateFields(ctx context.Context, tx *gorm.DB, userID, topicID uuid.UUID, fields map[string]any) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = tr.db
  }

  if len(fields) == 0 {
    return 0, nil
  }

  result := transaction.WithContext(ctx).
    Model(&types.Topic{}).
    Where("id = ? AND user_id = ?", topicID, userID).
    Updates(fields)
  if result.Error != nil {
    return 0, result.Error
  }
  return result.RowsAffected, nil
}

func (tr *topicRepo) DeleteByID(ctx context.Context, tx *gorm.DB, userID, topicID uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = tr.db
  }

  result := transaction.WithContext(ctx).
    Where("id = ? AND user_id = ?", topicID, userID).
    Delete(&types.Topic{})
  if result.Error != nil {
    return 0, result.Error
  }
  return result.RowsAffected, nil
}
