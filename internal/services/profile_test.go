package services

import (
	"errors"
	"testing"

	"github.com/yungbote/relearn-backend/internal/apierr"
	"github.com/yungbote/relearn-backend/internal/repos"
	"github.com/yungbote/relearn-backend/internal/types"
)

func TestCreateProfile_ConflictWhenExists(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	svc := NewProfileService(db, log, repos.NewProfileRepo(db, log))
	ctx := authedCtx(seedTestUser(t, db, "profile@example.com"))

	input := ProfileSetupInput{ExperienceLevel: "beginner", YearsAwayFromDev: 3}
	if _, err := svc.CreateProfile(ctx, input); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := svc.CreateProfile(ctx, input)
	if err == nil {
		t.Fatalf("expected conflict on second create")
	}
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Code != apierr.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestUpsertProfile_CreatesThenUpdates(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	svc := NewProfileService(db, log, repos.NewProfileRepo(db, log))
	ctx := authedCtx(seedTestUser(t, db, "upsert@example.com"))

	created, err := svc.UpsertProfile(ctx, ProfileSetupInput{ExperienceLevel: "beginner", YearsAwayFromDev: 2})
	if err != nil {
		t.Fatalf("upsert create failed: %v", err)
	}
	if created.ExperienceLevel != types.ExperienceBeginner || created.YearsAwayFromDev != 2 {
		t.Fatalf("unexpected created profile: %+v", created)
	}

	updated, err := svc.UpsertProfile(ctx, ProfileSetupInput{ExperienceLevel: "Advanced", YearsAwayFromDev: 7})
	if err != nil {
		t.Fatalf("upsert update failed: %v", err)
	}
	if updated.ExperienceLevel != types.ExperienceAdvanced || updated.YearsAwayFromDev != 7 {
		t.Fatalf("unexpected updated profile: %+v", updated)
	}
	if updated.ID != created.ID {
		t.Fatalf("upsert should keep the original row, got new id")
	}

	var count int64
	if err := db.Model(&types.Profile{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single profile row, got %d", count)
	}
}

func TestGetProfile_NotFoundWhenAbsent(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	svc := NewProfileService(db, log, repos.NewProfileRepo(db, log))
	ctx := authedCtx(seedTestUser(t, db, "absent@example.com"))

	_, err := svc.GetProfile(ctx)
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Code != apierr.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCreateProfile_RejectsInvalidInput(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	svc := NewProfileService(db, log, repos.NewProfileRepo(db, log))
	ctx := authedCtx(seedTestUser(t, db, "invalid@example.com"))

	if _, err := svc.CreateProfile(ctx, ProfileSetupInput{ExperienceLevel: "expert", YearsAwayFromDev: 1}); err == nil {
		t.Fatalf("expected rejection of unknown experience level")
	}
	if _, err := svc.CreateProfile(ctx, ProfileSetupInput{ExperienceLevel: "beginner", YearsAwayFromDev: 51}); err == nil {
		t.Fatalf("expected rejection of years_away_from_dev above 50")
	}
	if _, err := svc.CreateProfile(ctx, ProfileSetupInput{ExperienceLevel: "beginner", YearsAwayFromDev: -1}); err == nil {
		t.Fatalf("expected rejection of negative years_away_from_dev")
	}
}
