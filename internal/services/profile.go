package services

import (
  "context"
  "fmt"
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

const maxYearsAwayFromDev = 50

type ProfileSetupInput struct {
  ExperienceLevel  string `json:"experience_level"`
  YearsAwayFromDev int    `json:"years_away_from_dev"`
}

type ProfileService interface {
  CreateProfile(ctx context.Context, input ProfileSetupInput) (*types.Profile, error)
  UpsertProfile(ctx context.Context, input ProfileSetupInput) (*types.Profile, error)
  GetProfile(ctx context.Context) (*types.Profile, error)
}

type profileService struct {
  db          *gorm.DB
  log         *logger.Logger
  profileRepo repos.ProfileRepo
}

func NewProfileService(db *gorm.DB, log *logger.Logger, profileRepo repos.ProfileRepo) ProfileService {
  serviceLog := log.With("service", "ProfileService")
  return &profileService{db: db, log: serviceLog, profileRepo: profileRepo}
}

func validateProfileInput(input *ProfileSetupInput) error {
  input.ExperienceLevel = normalization.ParseInputString(input.ExperienceLevel)
  if !types.ValidExperienceLevel(input.ExperienceLevel) {
    return fmt.Errorf("experience_level must be one of beginner, intermediate, advanced")
  }
  if input.YearsAwayFromDev < 0 || input.YearsAwayFromDev > maxYearsAwayFromDev {
    return fmt.Errorf("years_away_from_dev must be between 0 and %d", maxYearsAwayFromDev)
  }
  return nil
}

func (ps *profileService) CreateProfile(ctx context.Context, input ProfileSetupInput) (*types.Profile, error) {
  userID := requestdata.UserID(ctx)
  if userID == uuid.Nil {
    return nil, apierr.Authentication(fmt.Errorf("User id not set in request data"))
  }
  if vErr := validateProfileInput(&input); vErr != nil {
    return nil, apierr.Validation(vErr, nil)
  }

  var profile *types.Profile
  err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    exists, eErr := ps.profileRepo.ExistsForUser(ctx, tx, userID)
    if eErr != nil {
      return apierr.Internal(fmt.Errorf("Failed to check existing profile: %w", eErr))
    }
    if exists {
      return apierr.Conflict(fmt.Errorf("Profile already exists"))
    }
    now := time.Now()
    profile = &types.Profile{
      ID:               uuid.New(),
      UserID:           userID,
      ExperienceLevel:  input.ExperienceLevel,
      YearsAwayFromDev: input.YearsAwayFromDev,
      ActivityStreak:   0,
      CreatedAt:        now,
      UpdatedAt:        now,
    }
    if _, cErr := ps.profileRepo.Create(ctx, tx, profile); cErr != nil {
      return apierr.Internal(fmt.Errorf("Failed to create profile: %w", cErr))
    }
    return nil
  })
  if err != nil {
    return nil, err
  }
  return profile, nil
}

func (ps *profileService) UpsertProfile(ctx context.Context, input ProfileSetupInput) (*types.Profile, error) {
  userID := requestdata.UserID(ctx)
  if userID == uuid.Nil {
    return nil, apierr.Authentication(fmt.Errorf("User id not set in request data"))
  }
  if vErr := validateProfileInput(&input); vErr != nil {
    return nil, apierr.Validation(vErr, nil)
  }

  now := time.Now()
  profile := &types.Profile{
    ID:               uuid.New(),
    UserID:           userID,
    ExperienceLevel:  input.ExperienceLevel,
    YearsAwayFromDev: input.YearsAwayFromDev,
    ActivityStreak:   0,
    CreatedAt:        now,
    UpdatedAt:        now,
  }
  if _, uErr := ps.profileRepo.Upsert(ctx, nil, profile); uErr != nil {
    return nil, apierr.Internal(fmt.Errorf("Failed to upsert profile: %w", uErr))
  }

  // Re-read so callers see the stored row (upsert keeps the existing streak and
  // created_at on conflict).
  stored, gErr := ps.profileRepo.GetByUserID(ctx, nil, userID)
  if gErr != nil {
    return nil, apierr.Internal(fmt.Errorf("Failed to load profile after upsert: %w", gErr))
  }
  if stored == nil {
    return nil, apierr.Internal(fmt.Errorf("Profile missing after upsert"))
  }
  return stored, nil
}

func (ps *profileService) GetProfile(ctx context.Context) (*types.Profile, error) {
  userID := requestdata.UserID(ctx)
  if userID == uuid.Nil {
    return nil, apierr.Authentication(fmt.Errorf("User id not set in request data"))
  }
  profile, err := ps.profileRepo.GetByUserID(ctx, nil, userID)
  if err != nil {
    return nil, apierr.Internal(fmt.Errorf("Failed to load profile: %w", err))
  }
  if profile == nil {
    return nil, apierr.NotFound(fmt.Errorf("Profile not found"))
  }
  return profile, nil
}
