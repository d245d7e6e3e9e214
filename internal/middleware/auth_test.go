package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/relearn-backend/internal/apierr"
	"github.com/yungbote/relearn-backend/internal/handlers"
	"github.com/yungbote/relearn-backend/internal/logger"
	"github.com/yungbote/relearn-backend/internal/requestdata"
	"github.com/yungbote/relearn-backend/internal/types"
)

type fakeAuthService struct {
	validToken string
	userID     uuid.UUID
}

func (f *fakeAuthService) RegisterUser(ctx context.Context, user *types.User) error { return nil }
func (f *fakeAuthService) LoginUser(ctx context.Context, user *types.User) (string, string, error) {
	return "", "", nil
}
func (f *fakeAuthService) RefreshUser(ctx context.Context) (string, string, error) {
	return "", "", nil
}
func (f *fakeAuthService) LogoutUser(ctx context.Context) error { return nil }
func (f *fakeAuthService) GetAccessTTL() time.Duration          { return time.Hour }

func (f *fakeAuthService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString != f.validToken {
		return ctx, fmt.Errorf("Invalid or expired JWT token")
	}
	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      f.userID,
	}), nil
}

func newAuthTestRouter(t *testing.T, svc *fakeAuthService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	router := gin.New()
	am := NewAuthMiddleware(log, svc)
	router.GET("/secure", am.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": requestdata.UserID(c.Request.Context()).String()})
	})
	return router
}

func TestRequireAuth_MissingHeaderRejected(t *testing.T) {
	router := newAuthTestRouter(t, &fakeAuthService{validToken: "good", userID: uuid.New()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var envelope handlers.ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
	if envelope.Error.Code != apierr.CodeAuthentication {
		t.Fatalf("expected AUTHENTICATION_ERROR, got %q", envelope.Error.Code)
	}
}

func TestRequireAuth_BadTokenRejected(t *testing.T) {
	router := newAuthTestRouter(t, &fakeAuthService{validToken: "good", userID: uuid.New()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer stolen")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_ValidTokenPassesUserThrough(t *testing.T) {
	userID := uuid.New()
	router := newAuthTestRouter(t, &fakeAuthService{validToken: "good", userID: userID})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer good")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["user_id"] != userID.String() {
		t.Fatalf("expected user id %s, got %s", userID, body["user_id"])
	}
}
