package services

import (
  "context"
  "fmt"
  "os"
  "strings"
  "time"

  "github.com/google/uuid"
  goredis "github.com/redis/go-redis/v9"

  "github.com/yungbote/relearn-backend/internal/apierr"
  "github.com/yungbote/relearn-backend/internal/logger"
)

// redisRateLimiter is the multi-instance variant: the counter lives in Redis so
// every replica sees the same window. Selected when REDIS_ADDR is set.
type redisRateLimiter struct {
  log    *logger.Logger
  rdb    *goredis.Client
  limit  int
  window time.Duration
}

func NewRedisRateLimiter(log *logger.Logger, limit int, window time.Duration) (RateLimiter, error) {
  if log == nil {
    return nil, fmt.Errorf("logger required")
  }
  if limit <= 0 {
    limit = 5
  }
  if window <= 0 {
    window = time.Hour
  }

  addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
  if addr == "" {
    return nil, fmt.Errorf("missing REDIS_ADDR")
  }

  rdb := goredis.NewClient(&goredis.Options{
    Addr:        addr,
    DialTimeout: 5 * time.Second,
  })

  ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
  defer cancel()
  if err := rdb.Ping(ctx).Err(); err != nil {
    _ = rdb.Close()
    return nil, fmt.Errorf("redis ping: %w", err)
  }

  return &redisRateLimiter{
    log:    log.With("service", "RedisRateLimiter"),
    rdb:    rdb,
    limit:  limit,
    window: window,
  }, nil
}

func (rl *redisRateLimiter) key(userID uuid.UUID) string {
  return "ratelimit:topic_generation:" + userID.String()
}

func (rl *redisRateLimiter) Allow(ctx context.Context, userID uuid.UUID) error {
  key := rl.key(userID)

  count, err := rl.rdb.Incr(ctx, key).Result()
  if err != nil {
    // Redis being down must not take generation down with it.
    rl.log.Warn("Rate limit INCR failed, allowing request", "error", err)
    return nil
  }
  if count == 1 {
    if expErr := rl.rdb.Expire(ctx, key, rl.window).Err(); expErr != nil {
      rl.log.Warn("Rate limit EXPIRE failed", "error", expErr)
    }
  }
  if count <= int64(rl.limit) {
    return nil
  }

  ttl, ttlErr := rl.rdb.TTL(ctx, key).Result()
  retryAfter := int(rl.window.Seconds())
  if ttlErr == nil && ttl > 0 {
    retryAfter = int(ttl.Seconds())
  }
  if retryAfter < 1 {
    retryAfter = 1
  }
  return apierr.RateLimited(
    fmt.Errorf("Rate limit exceeded, try again in %d seconds", retryAfter),
    retryAfter,
  )
}
