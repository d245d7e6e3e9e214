package middleware

import (
  "fmt"
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/relearn-backend/internal/apierr"
  "github.com/yungbote/relearn-backend/internal/handlers"
  "github.com/yungbote/relearn-backend/internal/logger"
  "github.com/yungbote/relearn-backend/internal/requestdata"
  "github.com/yungbote/relearn-backend/internal/services"
)

type AuthMiddleware struct {
  log         *logger.Logger
  authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
  middlewareLogger := log.With("middleware", "AuthMiddleware")
  return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
  return func(c *gin.Context) {
    tokenString := extractBearerToken(c)
    if tokenString == "" {
      handlers.RespondError(c, apierr.Authentication(fmt.Errorf("Missing or invalid token")))
      c.Abort()
      return
    }
    ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
    if err != nil {
      handlers.RespondError(c, apierr.Authentication(err))
      c.Abort()
      return
    }
    rd := requestdata.GetRequestData(ctx)
    if rd == nil || rd.UserID == uuid.Nil {
      handlers.RespondError(c, apierr.Authentication(fmt.Errorf("Token carries no user identity")))
      c.Abort()
      return
    }
    c.Request = c.Request.WithContext(ctx)
    c.Next()
  }
}

func extractBearerToken(c *gin.Context) string {
  authHeader := c.GetHeader("Authorization")
  if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
    return authHeader[7:]
  }
  return ""
}
