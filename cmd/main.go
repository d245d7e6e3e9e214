package main

import (
  "context"
  "fmt"
  "os"
  "time"

  "github.com/joho/godotenv"

  "github.com/yungbote/relearn-backend/internal/db"
  "github.com/yungbote/relearn-backend/internal/handlers"
  "github.com/yungbote/relearn-backend/internal/logger"
  "github.com/yungbote/relearn-backend/internal/middleware"
  "github.com/yungbote/relearn-backend/internal/observability"
  "github.com/yungbote/relearn-backend/internal/repos"
  "github.com/yungbote/relearn-backend/internal/server"
  "github.com/yungbote/relearn-backend/internal/services"
  "github.com/yungbote/relearn-backend/internal/utils"
)

func main() {
  _ = godotenv.Load()

  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Tracing
  shutdownTracing := observability.InitOTel(context.Background(), log, observability.OtelConfig{
    ServiceName: "relearn-backend",
    Environment: utils.GetEnv("APP_ENV", "development", log),
    Version:     utils.GetEnv("APP_VERSION", "dev", log),
  })
  if shutdownTracing != nil {
    defer func() {
      ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
      defer cancel()
      _ = shutdownTracing(ctx)
    }()
  }

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
  generationLimit := utils.GetEnvAsInt("GENERATION_RATE_LIMIT", 5, log)
  generationWindow := utils.GetEnvAsInt("GENERATION_RATE_WINDOW_SECONDS", 3600, log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  profileRepo := repos.NewProfileRepo(thePG, log)
  topicRepo := repos.NewTopicRepo(thePG, log)

  // Rate limiter: Redis when configured, in-process otherwise.
  var limiter services.RateLimiter
  windowDur := time.Duration(generationWindow) * time.Second
  if os.Getenv("REDIS_ADDR") != "" {
    limiter, err = services.NewRedisRateLimiter(log, generationLimit, windowDur)
    if err != nil {
      log.Warn("Redis rate limiter init failed, falling back to memory", "error", err)
    }
  }
  if limiter == nil {
    memLimiter := services.NewMemoryRateLimiter(log, generationLimit, windowDur)
    memLimiter.StartSweeper(context.Background())
    limiter = memLimiter
  }

  // Services
  log.Info("Setting up Services from main...")
  openaiClient := services.NewOpenAIClient(log)
  authService := services.NewAuthService(
    thePG,
    log,
    userRepo,
    userTokenRepo,
    profileRepo,
    jwtSecretKey,
    time.Duration(accessTokenTTL)*time.Second,
    time.Duration(refreshTokenTTL)*time.Second,
  )
  userService := services.NewUserService(thePG, log, userRepo)
  profileService := services.NewProfileService(thePG, log, profileRepo)
  topicService := services.NewTopicService(thePG, log, topicRepo)
  generationService := services.NewTopicGenerationService(thePG, log, profileRepo, topicRepo, openaiClient, limiter)

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(authService)
  userHandler := handlers.NewUserHandler(userService)
  profileHandler := handlers.NewProfileHandler(profileService)
  topicHandler := handlers.NewTopicHandler(topicService)
  generationHandler := handlers.NewGenerationHandler(generationService)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:       authHandler,
    AuthMiddleware:    authMiddleware,
    UserHandler:       userHandler,
    ProfileHandler:    profileHandler,
    TopicHandler:      topicHandler,
    GenerationHandler: generationHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}
