package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

  "github.com/yungbote/relearn-backend/internal/handlers"
  "github.com/yungbote/relearn-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler       *handlers.AuthHandler
  AuthMiddleware    *middleware.AuthMiddleware
  UserHandler       *handlers.UserHandler
  ProfileHandler    *handlers.ProfileHandler
  TopicHandler      *handlers.TopicHandler
  GenerationHandler *handlers.GenerationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()
  router.Use(otelgin.Middleware("relearn-backend"))

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5174",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  api := router.Group("/api")
  {
    api.POST("/auth/signup", cfg.AuthHandler.Register)
    api.POST("/auth/login", cfg.AuthHandler.Login)
  }

// ===============
// || Protected ||
// ===============
  protected := router.Group("/api")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  // Auth
  protected.POST("/auth/refresh", cfg.AuthHandler.Refresh)
  protected.POST("/auth/logout", cfg.AuthHandler.Logout)
  // User
  protected.GET("/user", cfg.UserHandler.GetMe)
  // Profile
  protected.POST("/profile", cfg.ProfileHandler.Create)
  protected.POST("/profile/setup", cfg.ProfileHandler.Setup)
  protected.GET("/profile", cfg.ProfileHandler.Get)
  // Topics
  protected.POST("/topics/generate", cfg.GenerationHandler.Generate)
  protected.GET("/topics", cfg.TopicHandler.List)
  protected.POST("/topics", cfg.TopicHandler.Create)
  protected.GET("/topics/:id", cfg.TopicHandler.Get)
  protected.GET("/topics/:id/children", cfg.TopicHandler.GetChildren)
  protected.PATCH("/topics/:id", cfg.TopicHandler.Update)
  protected.DELETE("/topics/:id", cfg.TopicHandler.Delete)

  return router
}
