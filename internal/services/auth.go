package services

import (
  "context"
  "fmt"
  "time"
  "gorm.io/gorm"
  "golang.org/x/crypto/bcrypt"
  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "github.com/yungbote/relearn-backend/internal/apierr"
  "github.com/yungbote/relearn-backend/internal/normalization"
  "github.com/yungbote/relearn-backend/internal/logger"
  "github.com/yungbote/relearn-backend/internal/types"
  "github.com/yungbote/relearn-backend/internal/repos"
  "github.com/yungbote/relearn-backend/internal/requestdata"
  "github.com/yungbote/relearn-backend/internal/utils"
)

type JWTClaims struct {
  jwt.RegisteredClaims
}

type AuthService interface {
  RegisterUser(ctx context.Context, user *types.User) error
  LoginUser(ctx context.Context, user *types.User) (string, string, error)
  RefreshUser(ctx context.Context) (string, string, error)
  LogoutUser(ctx context.Context) error
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
  GetAccessTTL() time.Duration
}

type authService struct {
  db            *gorm.DB
  log           *logger.Logger
  userRepo      repos.UserRepo
  userTokenRepo repos.UserTokenRepo
  profileRepo   repos.ProfileRepo
  jwtSecretKey  string
  accessTTL     time.Duration
  refreshTTL    time.Duration
}

func NewAuthService(
  db *gorm.DB,
  log *logger.Logger,
  userRepo repos.UserRepo,
  userTokenRepo repos.UserTokenRepo,
  profileRepo repos.ProfileRepo,
  jwtSecretKey string,
  accessTTL time.Duration,
  refreshTTL time.Duration,
) AuthService {
  serviceLog := log.With("service", "AuthService")
  return &authService{
    db:            db,
    log:           serviceLog,
    userRepo:      userRepo,
    userTokenRepo: userTokenRepo,
    profileRepo:   profileRepo,
    jwtSecretKey:  jwtSecretKey,
    accessTTL:     accessTTL,
    refreshTTL:    refreshTTL,
  }
}

func (as *authService) RegisterUser(ctx context.Context, user *types.User) error {
  utils.NormalizeUserFields(ctx, user)
  if vErr := utils.InputValidation(ctx, "registration", as.userRepo, as.log, user, "", ""); vErr != nil {
    return apierr.Validation(vErr, nil)
  }
  if hErr := utils.HashPassword(ctx, as.log, user); hErr != nil {
    return apierr.Internal(hErr)
  }
  return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    user.ID = uuid.New()
    if _, ucErr := as.userRepo.Create(ctx, tx, []*types.User{user}); ucErr != nil {
      return apierr.Internal(fmt.Errorf("Failed to create user in postgres: %w", ucErr))
    }
    return nil
  })
}

func (as *authService) LoginUser(ctx context.Context, user *types.User) (string, string, error) {
  email := normalization.ParseInputString(user.Email)
  password := user.Password

  if vErr := utils.InputValidation(ctx, "login", as.userRepo, as.log, &types.User{}, email, password); vErr != nil {
    return "", "", apierr.Validation(vErr, nil)
  }

  users, usErr := as.userRepo.GetByEmails(ctx, nil, []string{email})
  if usErr != nil {
    return "", "", apierr.Internal(fmt.Errorf("Error retrieving user by email: %w", usErr))
  }
  if len(users) == 0 {
    return "", "", apierr.Authentication(fmt.Errorf("Invalid email or password"))
  }

  found := users[0]
  if hErr := bcrypt.CompareHashAndPassword([]byte(found.Password), []byte(password)); hErr != nil {
    return "", "", apierr.Authentication(fmt.Errorf("Invalid email or password"))
  }

  var accessToken string
  var refreshToken string
  if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    foundTokens, ftErr := as.userTokenRepo.GetByUserIDs(ctx, tx, []uuid.UUID{found.ID})
    if ftErr != nil {
      return fmt.Errorf("Failed to check user tokens: %w", ftErr)
    }
    for _, old := range foundTokens {
      if old == nil {
        continue
      }
      if dtErr := as.userTokenRepo.FullDeleteByTokens(ctx, tx, []*types.UserToken{old}); dtErr != nil {
        return fmt.Errorf("Failed to delete stale user token: %w", dtErr)
      }
    }
    tok, genErr := as.generateAccessToken(found)
    if genErr != nil {
      return fmt.Errorf("Generate access token error: %w", genErr)
    }
    accessToken = tok
    refreshToken = uuid.New().String()
    expiresAt := time.Now().Add(as.refreshTTL)
    userToken := types.UserToken{
      ID:           uuid.New(),
      UserID:       found.ID,
      AccessToken:  accessToken,
      RefreshToken: refreshToken,
      ExpiresAt:    expiresAt,
    }
    if _, ctErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&userToken}); ctErr != nil {
      as.log.Warn("Create User Token Error", "error", ctErr)
      return fmt.Errorf("Create User Token Error: %w", ctErr)
    }
    if tsErr := as.touchActivityStreak(ctx, tx, found.ID); tsErr != nil {
      as.log.Warn("Failed to update activity streak", "error", tsErr)
      return fmt.Errorf("Failed to update activity streak: %w", tsErr)
    }
    return nil
  }); err != nil {
    return "", "", apierr.Internal(err)
  }
  return accessToken, refreshToken, nil
}

// touchActivityStreak keeps the profile streak warm on login. Same day: no
// change. Within 48h: streak+1. Longer away: back to 1. No profile yet: no-op.
func (as *authService) touchActivityStreak(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
  profile, pErr := as.profileRepo.GetByUserID(ctx, tx, userID)
  if pErr != nil {
    return pErr
  }
  if profile == nil {
    return nil
  }
  now := time.Now()
  streak := profile.ActivityStreak
  switch {
  case profile.LastActiveAt == nil:
    streak = 1
  case sameDay(*profile.LastActiveAt, now):
    // keep streak, refresh timestamp below
  case now.Sub(*profile.LastActiveAt) < 48*time.Hour:
    streak++
  default:
    streak = 1
  }
  return as.profileRepo.UpdateFields(ctx, tx, userID, map[string]any{
    "activity_streak": streak,
    "last_active_at":  now,
    "updated_at":      now,
  })
}

func sameDay(a, b time.Time) bool {
  ay, am, ad := a.Date()
  by, bm, bd := b.Date()
  return ay == by && am == bm && ad == bd
}

func (as *authService) RefreshUser(ctx context.Context) (string, string, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    as.log.Warn("No request data found in context")
    return "", "", apierr.Authentication(fmt.Errorf("No Request Data found in context"))
  }
  if rd.RefreshToken == "" {
    as.log.Warn("RefreshTokenString not found in requestdata")
    return "", "", apierr.Authentication(fmt.Errorf("RefreshTokenString not found in requestdata"))
  }

  var accessToken string
  var newRefreshTokenStr string
  err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    foundTokens, ftErr := as.userTokenRepo.GetByRefreshTokens(ctx, tx, []string{rd.RefreshToken})
    if ftErr != nil {
      as.log.Warn("Error fetching refresh token", "error", ftErr)
      return apierr.Internal(fmt.Errorf("Error fetching refresh token: %w", ftErr))
    }
    if len(foundTokens) == 0 || foundTokens[0] == nil {
      return apierr.Authentication(fmt.Errorf("Unknown refresh token"))
    }
    existingToken := foundTokens[0]
    if existingToken.ExpiresAt.Before(time.Now()) {
      if dtErr := as.userTokenRepo.FullDeleteByTokens(ctx, tx, []*types.UserToken{existingToken}); dtErr != nil {
        as.log.Warn("Refresh token expired, error deleting", "error", dtErr)
        return apierr.Internal(fmt.Errorf("Refresh token expired, error deleting: %w", dtErr))
      }
      as.log.Warn("Refresh token expired, cannot proceed")
      return apierr.Authentication(fmt.Errorf("Refresh token expired"))
    }
    users, uErr := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{existingToken.UserID})
    if uErr != nil {
      as.log.Warn("Failed to load user for refresh", "error", uErr)
      return apierr.Internal(fmt.Errorf("Failed to load user for refresh: %w", uErr))
    }
    if len(users) == 0 {
      as.log.Warn("No user found for the given refresh token")
      return apierr.Authentication(fmt.Errorf("No user found for the given refresh token"))
    }
    user := users[0]
    tok, genErr := as.generateAccessToken(user)
    if genErr != nil {
      as.log.Warn("Failed to generate new access token", "error", genErr)
      return apierr.Internal(fmt.Errorf("Failed to generate new access token: %w", genErr))
    }
    accessToken = tok
    newRefreshTokenStr = uuid.New().String()
    newExpiresAt := time.Now().Add(as.refreshTTL)
    newUserToken := types.UserToken{
      ID:           uuid.New(),
      UserID:       user.ID,
      AccessToken:  tok,
      RefreshToken: newRefreshTokenStr,
      ExpiresAt:    newExpiresAt,
    }
    if _, cErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&newUserToken}); cErr != nil {
      as.log.Warn("Failed to create new user token", "error", cErr)
      return apierr.Internal(fmt.Errorf("Failed to create new user token: %w", cErr))
    }
    if dErr := as.userTokenRepo.FullDeleteByTokens(ctx, tx, []*types.UserToken{existingToken}); dErr != nil {
      as.log.Warn("Failed to remove old refresh token", "error", dErr)
      return apierr.Internal(fmt.Errorf("Failed to remove old refresh token: %w", dErr))
    }
    return nil
  })
  if err != nil {
    as.log.Warn("Failed transaction", "error", err)
    return "", "", err
  }
  return accessToken, newRefreshTokenStr, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    as.log.Warn("No request data found in context")
    return apierr.Authentication(fmt.Errorf("No request data found in context"))
  }
  if rd.TokenString == "" {
    as.log.Warn("TokenString in request data empty")
    return apierr.Authentication(fmt.Errorf("TokenString in request data empty"))
  }
  return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    foundTokens, ftErr := as.userTokenRepo.GetByAccessTokens(ctx, tx, []string{rd.TokenString})
    if ftErr != nil {
      as.log.Warn("Error finding user token from token string", "error", ftErr)
      return apierr.Internal(fmt.Errorf("Error finding user token from token string: %w", ftErr))
    }
    if len(foundTokens) == 0 || foundTokens[0] == nil {
      return nil
    }
    if tdErr := as.userTokenRepo.FullDeleteByTokens(ctx, tx, []*types.UserToken{foundTokens[0]}); tdErr != nil {
      as.log.Warn("Error deleting user token", "error", tdErr)
      return apierr.Internal(fmt.Errorf("Error deleting user token: %w", tdErr))
    }
    return nil
  })
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
  claims := JWTClaims{
    RegisteredClaims: jwt.RegisteredClaims{
      Subject:   user.ID.String(),
      ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
      IssuedAt:  jwt.NewNumericDate(time.Now()),
    },
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  if tokenString == "" {
    return ctx, nil
  }
  parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil {
    return ctx, fmt.Errorf("Failed to parse token: %w", err)
  }
  claims, ok := parsedToken.Claims.(*JWTClaims)
  if !ok || !parsedToken.Valid {
    return ctx, fmt.Errorf("Invalid or expired JWT token")
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, fmt.Errorf("Invalid user id in token: %w", err)
  }
  var refreshTokenStr string
  foundTokens, ftErr := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{tokenString})
  if ftErr != nil {
    as.log.Warn("Error fetching user token by access token", "error", ftErr)
    return ctx, fmt.Errorf("Failed to fetch user token by access token: %w", ftErr)
  }
  if len(foundTokens) == 0 || foundTokens[0] == nil {
    return ctx, fmt.Errorf("Access token not recognized")
  }
  refreshTokenStr = foundTokens[0].RefreshToken
  rd := &requestdata.RequestData{
    TokenString:  tokenString,
    RefreshToken: refreshTokenStr,
    UserID:       userID,
  }
  ctx = requestdata.WithRequestData(ctx, rd)
  return ctx, nil
}

func (as *authService) GetAccessTTL() time.Duration {
  return as.accessTTL
}
