package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/relearn-backend/internal/apierr"
	"github.com/yungbote/relearn-backend/internal/repos"
	"github.com/yungbote/relearn-backend/internal/types"
)

type stubOpenAIClient struct {
	response string
	err      error
}

func (s *stubOpenAIClient) GenerateChat(ctx context.Context, system string, user string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(ctx context.Context, userID uuid.UUID) error { return nil }

type blockedLimiter struct{}

func (blockedLimiter) Allow(ctx context.Context, userID uuid.UUID) error {
	return apierr.RateLimited(fmt.Errorf("Rate limit exceeded, try again in 120 seconds"), 120)
}

func validGenerationResponse(count int) string {
	topics := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		topics = append(topics, map[string]any{
			"title":       fmt.Sprintf("Topic %d", i+1),
			"description": "Covers the fundamentals.",
			"leetcode_links": []map[string]string{
				{"title": "Two Sum", "url": "https://leetcode.com/problems/two-sum", "difficulty": "Easy"},
			},
		})
	}
	raw, _ := json.Marshal(map[string]any{"topics": topics})
	return string(raw)
}

func newGenerationFixture(t *testing.T, ai OpenAIClient, limiter RateLimiter) (TopicGenerationService, *gorm.DB, uuid.UUID) {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger(t)
	profileRepo := repos.NewProfileRepo(db, log)
	topicRepo := repos.NewTopicRepo(db, log)
	svc := NewTopicGenerationService(db, log, profileRepo, topicRepo, ai, limiter)
	userID := seedTestUser(t, db, "generate@example.com")
	return svc, db, userID
}

func seedTestProfile(t *testing.T, db *gorm.DB, userID uuid.UUID) {
	t.Helper()
	now := time.Now()
	profile := &types.Profile{
		ID:               uuid.New(),
		UserID:           userID,
		ExperienceLevel:  types.ExperienceIntermediate,
		YearsAwayFromDev: 4,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}
}

func TestGenerateTopics_PersistsValidatedTopics(t *testing.T) {
	ai := &stubOpenAIClient{response: validGenerationResponse(3)}
	svc, db, userID := newGenerationFixture(t, ai, allowAllLimiter{})
	seedTestProfile(t, db, userID)

	result, err := svc.GenerateTopics(authedCtx(userID), TopicGenerationInput{Technology: "go"})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if result.Count != 3 || len(result.Topics) != 3 {
		t.Fatalf("expected 3 topics, got count=%d len=%d", result.Count, len(result.Topics))
	}
	for _, topic := range result.Topics {
		if topic.Status != types.TopicStatusToDo {
			t.Fatalf("generated topics must start as to_do, got %q", topic.Status)
		}
		if topic.Technology != "go" {
			t.Fatalf("expected technology go, got %q", topic.Technology)
		}
	}

	var stored int64
	if err := db.Model(&types.Topic{}).Where("user_id = ?", userID).Count(&stored).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if stored != 3 {
		t.Fatalf("expected 3 rows stored, got %d", stored)
	}
}

func TestGenerateTopics_SubtopicsAttachToParent(t *testing.T) {
	ai := &stubOpenAIClient{response: validGenerationResponse(2)}
	svc, db, userID := newGenerationFixture(t, ai, allowAllLimiter{})
	seedTestProfile(t, db, userID)

	parent := &types.Topic{
		ID:            uuid.New(),
		UserID:        userID,
		Title:         "Concurrency",
		Status:        types.TopicStatusToDo,
		Technology:    "go",
		LeetCodeLinks: []byte("[]"),
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := db.Create(parent).Error; err != nil {
		t.Fatalf("failed to seed parent: %v", err)
	}

	result, err := svc.GenerateTopics(authedCtx(userID), TopicGenerationInput{
		Technology: "go",
		ParentID:   &parent.ID,
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	for _, topic := range result.Topics {
		if topic.ParentID == nil || *topic.ParentID != parent.ID {
			t.Fatalf("subtopic should reference the parent")
		}
	}
}

func TestGenerateTopics_MissingProfileIsNotFound(t *testing.T) {
	ai := &stubOpenAIClient{response: validGenerationResponse(3)}
	svc, _, userID := newGenerationFixture(t, ai, allowAllLimiter{})

	_, err := svc.GenerateTopics(authedCtx(userID), TopicGenerationInput{Technology: "go"})
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Code != apierr.CodeNotFound {
		t.Fatalf("expected NOT_FOUND without profile, got %v", err)
	}
}

func TestGenerateTopics_RateLimitPropagates(t *testing.T) {
	ai := &stubOpenAIClient{response: validGenerationResponse(3)}
	svc, db, userID := newGenerationFixture(t, ai, blockedLimiter{})
	seedTestProfile(t, db, userID)

	_, err := svc.GenerateTopics(authedCtx(userID), TopicGenerationInput{Technology: "go"})
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Code != apierr.CodeRateLimitExceeded {
		t.Fatalf("expected RATE_LIMIT_EXCEEDED, got %v", err)
	}
	if apiErr.RetryAfterSeconds != 120 {
		t.Fatalf("expected retry-after 120, got %d", apiErr.RetryAfterSeconds)
	}
}

func TestGenerateTopics_MalformedResponseIsInternalAndNothingStored(t *testing.T) {
	ai := &stubOpenAIClient{response: "here are your topics!"}
	svc, db, userID := newGenerationFixture(t, ai, allowAllLimiter{})
	seedTestProfile(t, db, userID)

	_, err := svc.GenerateTopics(authedCtx(userID), TopicGenerationInput{Technology: "go"})
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Code != apierr.CodeInternal {
		t.Fatalf("expected INTERNAL_ERROR for malformed output, got %v", err)
	}

	var stored int64
	if err := db.Model(&types.Topic{}).Count(&stored).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if stored != 0 {
		t.Fatalf("no rows should be stored on invalid output, got %d", stored)
	}
}

func TestGenerateTopics_ProviderStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"provider 429", &openAIHTTPError{StatusCode: 429, Body: "slow down"}, apierr.CodeServiceUnavailable, 503},
		{"provider 500", &openAIHTTPError{StatusCode: 500, Body: "boom"}, apierr.CodeServiceUnavailable, 503},
		{"provider 400", &openAIHTTPError{StatusCode: 400, Body: "bad request"}, apierr.CodeInternal, 500},
		{"timeout", context.DeadlineExceeded, apierr.CodeServiceUnavailable, 503},
		{"missing key", errMissingAPIKey, apierr.CodeInternal, 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ai := &stubOpenAIClient{err: tc.err}
			svc, db, userID := newGenerationFixture(t, ai, allowAllLimiter{})
			seedTestProfile(t, db, userID)

			_, err := svc.GenerateTopics(authedCtx(userID), TopicGenerationInput{Technology: "go"})
			var apiErr *apierr.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected apierr.Error, got %v", err)
			}
			if apiErr.Code != tc.wantCode || apiErr.Status != tc.wantStatus {
				t.Fatalf("expected %s/%d, got %s/%d", tc.wantCode, tc.wantStatus, apiErr.Code, apiErr.Status)
			}
		})
	}
}

func TestParseGeneratedTopics_Bounds(t *testing.T) {
	if _, err := parseGeneratedTopics(validGenerationResponse(10)); err != nil {
		t.Fatalf("10 topics should pass: %v", err)
	}
	if _, err := parseGeneratedTopics(validGenerationResponse(11)); err == nil {
		t.Fatalf("11 topics should be rejected")
	}
	if _, err := parseGeneratedTopics(`{"topics":[]}`); err == nil {
		t.Fatalf("empty topics should be rejected")
	}
}

func TestParseGeneratedTopics_RejectsBadLinks(t *testing.T) {
	raw := `{"topics":[{"title":"T","description":"d","leetcode_links":[{"title":"p","url":"https://leetcode.com/p","difficulty":"Impossible"}]}]}`
	if _, err := parseGeneratedTopics(raw); err == nil {
		t.Fatalf("unknown difficulty should be rejected")
	}

	raw = `{"topics":[{"title":"T","description":"d","leetcode_links":[{"title":"p","url":"not-a-url","difficulty":"Easy"}]}]}`
	if _, err := parseGeneratedTopics(raw); err == nil {
		t.Fatalf("invalid url should be rejected")
	}

	raw = `{"topics":[{"title":"","description":"d"}]}`
	if _, err := parseGeneratedTopics(raw); err == nil {
		t.Fatalf("empty title should be rejected")
	}
}
