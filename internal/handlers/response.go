package handlers

import (
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/relearn-backend/internal/apierr"
)

type APIError struct {
  Code    string            `json:"code"`
  Message string            `json:"message"`
  Details map[string]string `json:"details,omitempty"`
}

type ErrorEnvelope struct {
  Error APIError `json:"error"`
}

// RespondError translates a service error into the wire envelope. Unknown
// errors are wrapped as INTERNAL_ERROR so the envelope shape never varies.
func RespondError(c *gin.Context, err error) {
  apiErr := apierr.From(err)
  if apiErr.RetryAfterSeconds > 0 {
    c.Header("Retry-After", strconv.Itoa(apiErr.RetryAfterSeconds))
  }
  c.JSON(apiErr.Status, ErrorEnvelope{
    Error: APIError{
      Code:    apiErr.Code,
      Message: apiErr.Error(),
      Details: apiErr.Details,
    },
  })
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
  c.JSON(http.StatusCreated, payload)
}
