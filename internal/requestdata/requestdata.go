package requestdata

import (
  "context"
  "github.com/google/uuid"
)

type contextKey struct{}

var requestDataKey contextKey

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
  return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
  val := ctx.Value(requestDataKey)
  if rd, ok := val.(*RequestData); ok {
    return rd
  }
  return nil
}

// UserID is the common case: the authenticated caller, or uuid.Nil when the
// request never passed auth middleware.
func UserID(ctx context.Context) uuid.UUID {
  if rd := GetRequestData(ctx); rd != nil {
    return rd.UserID
  }
  return uuid.Nil
}

type RequestData struct {
  TokenString  string
  RefreshToken string
  UserID       uuid.UUID
}
