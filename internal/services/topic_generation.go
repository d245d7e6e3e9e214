package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "net"
  "net/url"
  "strings"
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
  minGeneratedTopics = 1
  maxGeneratedTopics = 10
)

type TopicGenerationInput struct {
  Technology string     `json:"technology"`
  ParentID   *uuid.UUID `json:"parent_id"`
}

type TopicGenerationResult struct {
  Topics []*types.Topic `json:"topics"`
  Count  int            `json:"count"`
}

type TopicGenerationService interface {
  GenerateTopics(ctx context.Context, input TopicGenerationInput) (*TopicGenerationResult, error)
}

type topicGenerationService struct {
  db          *gorm.DB
  log         *logger.Logger
  profileRepo repos.ProfileRepo
  topicRepo   repos.TopicRepo
  ai          OpenAIClient
  limiter     RateLimiter
}

func NewTopicGenerationService(
  db *gorm.DB,
  log *logger.Logger,
  profileRepo repos.ProfileRepo,
  topicRepo repos.TopicRepo,
  ai OpenAIClient,
  limiter RateLimiter,
) TopicGenerationService {
  return &topicGenerationService{
    db:          db,
    log:         log.With("service", "TopicGenerationService"),
    profileRepo: profileRepo,
    topicRepo:   topicRepo,
    ai:          ai,
    limiter:     limiter,
  }
}

func (tgs *topicGenerationService) GenerateTopics(ctx context.Context, input TopicGenerationInput) (*TopicGenerationResult, error) {
  userID := requestdata.UserID(ctx)
  if userID == uuid.Nil {
    return nil, apierr.Authentication(fmt.Errorf("User id not set in request data"))
  }

  input.Technology = normalization.TrimInputString(input.Technology)
  if vErr := validateTechnology(input.Technology); vErr != nil {
    return nil, apierr.Validation(vErr, nil)
  }

  if rlErr := tgs.limiter.Allow(ctx, userID); rlErr != nil {
    return nil, rlErr
  }

  profile, pErr := tgs.profileRepo.GetByUserID(ctx, nil, userID)
  if pErr != nil {
    return nil, apierr.Internal(fmt.Errorf("Failed to load profile: %w", pErr))
  }
  if profile == nil {
    return nil, apierr.NotFound(fmt.Errorf("Profile not found, complete profile setup first"))
  }

  var parent *types.Topic
  if input.ParentID != nil {
    found, gErr := tgs.topicRepo.GetByID(ctx, nil, userID, *input.ParentID)
    if gErr != nil {
      return nil, apierr.Internal(fmt.Errorf("Failed to load parent topic: %w", gErr))
    }
    if found == nil {
      return nil, apierr.NotFound(fmt.Errorf("Parent topic not found"))
    }
    parent = found
  }

  system := buildGenerationSystemPrompt()
  user := buildGenerationUserPrompt(profile, input.Technology, parent)

  raw, aiErr := tgs.ai.GenerateChat(ctx, system, user)
  if aiErr != nil {
    return nil, classifyProviderError(tgs.log, aiErr)
  }

  generated, gvErr := parseGeneratedTopics(raw)
  if gvErr != nil {
    tgs.log.Error("AI response failed validation", "error", gvErr)
    return nil, apierr.Internal(fmt.Errorf("AI response failed validation: %w", gvErr))
  }

  now := time.Now()
  rows := make([]*types.Topic, 0, len(generated))
  for _, gt := range generated {
    links, mErr := types.MarshalLinks(gt.LeetCodeLinks)
    if mErr != nil {
      return nil, apierr.Internal(fmt.Errorf("Failed to marshal leetcode links: %w", mErr))
    }
    rows = append(rows, &types.Topic{
      ID:            uuid.New(),
      UserID:        userID,
      ParentID:      input.ParentID,
      Title:         gt.Title,
      Description:   gt.Description,
      Status:        types.TopicStatusToDo,
      Technology:    input.Technology,
      LeetCodeLinks: links,
      CreatedAt:     now,
      UpdatedAt:     now,
    })
  }

  err := tgs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, cErr := tgs.topicRepo.Create(ctx, tx, rows); cErr != nil {
      return apierr.Internal(fmt.Errorf("Failed to insert generated topics: %w", cErr))
    }
    return nil
  })
  if err != nil {
    return nil, err
  }

  tgs.log.Info("Generated topics for user",
    "user_id", userID.String(),
    "technology", input.Technology,
    "count", len(rows),
  )
  return &TopicGenerationResult{Topics: rows, Count: len(rows)}, nil
}

func buildGenerationSystemPrompt() string {
  return strings.Join([]string{
    "You are a mentor helping developers return to software development after time away.",
    "You produce focused, practical learning topics for a given technology.",
    "Respond with a single JSON object of the form:",
    `{"topics":[{"title":"...","description":"...","leetcode_links":[{"title":"...","url":"https://...","difficulty":"Easy|Medium|Hard"}]}]}`,
    "Return between 3 and 5 topics. Each topic may include up to 5 relevant LeetCode practice links.",
    "Do not include any text outside the JSON object.",
  }, "\n")
}

func buildGenerationUserPrompt(profile *types.Profile, technology string, parent *types.Topic) string {
  var sb strings.Builder
  fmt.Fprintf(&sb, "Technology: %s\n", technology)
  fmt.Fprintf(&sb, "Experience level: %s\n", profile.ExperienceLevel)
  fmt.Fprintf(&sb, "Years away from development: %d\n", profile.YearsAwayFromDev)
  if parent != nil {
    fmt.Fprintf(&sb, "Generate subtopics that break down the topic %q", parent.Title)
    if parent.Description != "" {
      fmt.Fprintf(&sb, " (%s)", parent.Description)
    }
    sb.WriteString(" into smaller learning steps.\n")
  } else {
    sb.WriteString("Generate top-level learning topics forming a study path for this technology.\n")
  }
  sb.WriteString("Tailor depth and pacing to the experience level and time away.")
  return sb.String()
}

// classifyProviderError maps AI-call failures onto the API error taxonomy:
// provider 429/5xx, timeouts and network failures are transient
// (SERVICE_UNAVAILABLE); everything else is INTERNAL_ERROR.
func classifyProviderError(log *logger.Logger, err error) *apierr.Error {
  if errors.Is(err, errMissingAPIKey) {
    log.Error("Generation attempted without API key")
    return apierr.Internal(err)
  }

  var httpErr *openAIHTTPError
  if errors.As(err, &httpErr) {
    log.Warn("AI provider returned error status", "status", httpErr.StatusCode)
    if httpErr.StatusCode == 429 || httpErr.StatusCode >= 500 {
      return apierr.Unavailable(fmt.Errorf("AI provider unavailable (status %d)", httpErr.StatusCode))
    }
    return apierr.Internal(fmt.Errorf("AI provider rejected request (status %d)", httpErr.StatusCode))
  }

  if errors.Is(err, context.DeadlineExceeded) {
    log.Warn("AI provider call timed out")
    return apierr.Unavailable(fmt.Errorf("AI provider timed out"))
  }
  var netErr net.Error
  if errors.As(err, &netErr) {
    log.Warn("AI provider network failure", "error", err)
    return apierr.Unavailable(fmt.Errorf("AI provider unreachable"))
  }
  var urlErr *url.Error
  if errors.As(err, &urlErr) {
    log.Warn("AI provider request failed", "error", err)
    return apierr.Unavailable(fmt.Errorf("AI provider unreachable"))
  }

  log.Error("Unexpected AI provider failure", "error", err)
  return apierr.Internal(err)
}

type generatedTopic struct {
  Title         string               `json:"title"`
  Description   string               `json:"description"`
  LeetCodeLinks []types.LeetCodeLink `json:"leetcode_links"`
}

type generatedTopicsPayload struct {
  Topics []generatedTopic `json:"topics"`
}

// parseGeneratedTopics validates the provider output at the boundary. Anything
// structurally off is rejected before a single row is written.
func parseGeneratedTopics(raw string) ([]generatedTopic, error) {
  var payload generatedTopicsPayload
  decoder := json.NewDecoder(strings.NewReader(raw))
  if err := decoder.Decode(&payload); err != nil {
    return nil, fmt.Errorf("response is not valid JSON: %w", err)
  }

  if len(payload.Topics) < minGeneratedTopics {
    return nil, fmt.Errorf("response contains no topics")
  }
  if len(payload.Topics) > maxGeneratedTopics {
    return nil, fmt.Errorf("response contains %d topics, maximum is %d", len(payload.Topics), maxGeneratedTopics)
  }

  for i := range payload.Topics {
    gt := &payload.Topics[i]
    gt.Title = strings.TrimSpace(gt.Title)
    gt.Description = strings.TrimSpace(gt.Description)
    if err := validateTopicTitle(gt.Title); err != nil {
      return nil, fmt.Errorf("topics[%d]: %w", i, err)
    }
    if err := validateTopicDescription(gt.Description); err != nil {
      return nil, fmt.Errorf("topics[%d]: %w", i, err)
    }
    if err := validateLeetCodeLinks(gt.LeetCodeLinks); err != nil {
      return nil, fmt.Errorf("topics[%d]: %w", i, err)
    }
  }
  return payload.Topics, nil
}
