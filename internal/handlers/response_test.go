package handlers

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/relearn-backend/internal/apierr"
)

func TestRespondError_RateLimitSetsRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondError(c, apierr.RateLimited(fmt.Errorf("Rate limit exceeded, try again in 42 seconds"), 42))

	if w.Code != 429 {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("expected Retry-After 42, got %q", got)
	}

	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
	if envelope.Error.Code != apierr.CodeRateLimitExceeded {
		t.Fatalf("expected RATE_LIMIT_EXCEEDED, got %q", envelope.Error.Code)
	}
}

func TestRespondError_UnknownErrorBecomesInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondError(c, fmt.Errorf("something unexpected"))

	if w.Code != 500 {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
	if envelope.Error.Code != apierr.CodeInternal {
		t.Fatalf("expected INTERNAL_ERROR, got %q", envelope.Error.Code)
	}
}

func TestRespondError_ValidationCarriesDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondError(c, apierr.Validation(fmt.Errorf("title is required"), map[string]string{"title": "required"}))

	if w.Code != 400 {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
	if envelope.Error.Code != apierr.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %q", envelope.Error.Code)
	}
	if envelope.Error.Details["title"] != "required" {
		t.Fatalf("expected details to carry field hint, got %v", envelope.Error.Details)
	}
	if envelope.Error.Message != "title is required" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}
