package services

import (
  "context"
  "fmt"
  "sync"
  "time"

  "github.com/google/uuid"

  "github.com/yungbote/relearn-backend/internal/apierr"
  "github.com/yungbote/relearn-backend/internal/logger"
)

// RateLimiter throttles AI generation per user. Allow returns a
// RATE_LIMIT_EXCEEDED apierr (with retry-after seconds) when the caller is over
// the window limit.
type RateLimiter interface {
  Allow(ctx context.Context, userID uuid.UUID) error
}

type rateLimitWindow struct {
  count   int
  resetAt time.Time
}

type memoryRateLimiter struct {
  log    *logger.Logger
  limit  int
  window time.Duration

  mu      sync.Mutex
  entries map[uuid.UUID]*rateLimitWindow

  now func() time.Time
}

func NewMemoryRateLimiter(log *logger.Logger, limit int, window time.Duration) *memoryRateLimiter {
  if limit <= 0 {
    limit = 5
  }
  if window <= 0 {
    window = time.Hour
  }
  return &memoryRateLimiter{
    log:     log.With("service", "MemoryRateLimiter"),
    limit:   limit,
    window:  window,
    entries: map[uuid.UUID]*rateLimitWindow{},
    now:     time.Now,
  }
}

func (rl *memoryRateLimiter) Allow(ctx context.Context, userID uuid.UUID) error {
  rl.mu.Lock()
  defer rl.mu.Unlock()

  now := rl.now()
  entry, ok := rl.entries[userID]
  if !ok || now.After(entry.resetAt) {
    rl.entries[userID] = &rateLimitWindow{count: 1, resetAt: now.Add(rl.window)}
    return nil
  }
  if entry.count < rl.limit {
    entry.count++
    return nil
  }

  retryAfter := int(entry.resetAt.Sub(now).Seconds())
  if retryAfter < 1 {
    retryAfter = 1
  }
  return apierr.RateLimited(
    fmt.Errorf("Rate limit exceeded, try again in %d seconds", retryAfter),
    retryAfter,
  )
}

// StartSweeper drops expired windows so the map stays bounded by active users.
func (rl *memoryRateLimiter) StartSweeper(ctx context.Context) {
  go func() {
    ticker := time.NewTicker(rl.window / 4)
    defer ticker.Stop()

    for {
      select {
      case <-ctx.Done():
        return
      case <-ticker.C:
        rl.sweep()
      }
    }
  }()
}

func (rl *memoryRateLimiter) sweep() {
  rl.mu.Lock()
  defer rl.mu.Unlock()

  now := rl.now()
  removed := 0
  for userID, entry := range rl.entries {
    if now.After(entry.resetAt) {
      delete(rl.entries, userID)
      removed++
    }
  }
  if removed > 0 {
    rl.log.Debug("Swept expired rate limit windows", "removed", removed, "remaining", len(rl.entries))
  }
}
