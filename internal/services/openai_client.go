package services

import (
  "bytes"
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "io"
  "net/http"
  "os"
  "strconv"
  "strings"
  "time"

  "github.com/yungbote/relearn-backend/internal/logger"
)

var errMissingAPIKey = errors.New("missing OPENAI_API_KEY")

type OpenAIClient interface {
  // GenerateChat sends a system+user prompt and returns the assistant text.
  // The provider is asked for a strict JSON object response.
  GenerateChat(ctx context.Context, system string, user string) (string, error)
}

type openAIClient struct {
  log        *logger.Logger
  baseURL    string
  apiKey     string
  model      string
  httpClient *http.Client
}

func NewOpenAIClient(log *logger.Logger) OpenAIClient {
  clientLog := log.With("service", "OpenAIClient")

  apiKey := os.Getenv("OPENAI_API_KEY")
  if apiKey == "" {
    clientLog.Warn("OPENAI_API_KEY not set, generation requests will fail")
  }

  baseURL := os.Getenv("OPENAI_BASE_URL")
  if baseURL == "" {
    baseURL = "https://api.openai.com"
  }

  model := os.Getenv("OPENAI_MODEL")
  if model == "" {
    model = "gpt-4o-mini"
  }

  timeoutSec := 30
  if v := os.Getenv("OPENAI_TIMEOUT_SECONDS"); v != "" {
    if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
      timeoutSec = parsed
    }
  }

  return &openAIClient{
    log:        clientLog,
    baseURL:    baseURL,
    apiKey:     apiKey,
    model:      model,
    httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
  }
}

type openAIHTTPError struct {
  StatusCode int
  Body       string
}

func (e *openAIHTTPError) Error() string {
  return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (c *openAIClient) doOnce(ctx context.Context, method, path string, body any) ([]byte, error) {
  var buf bytes.Buffer
  if body != nil {
    if err := json.NewEncoder(&buf).Encode(body); err != nil {
      return nil, err
    }
  }

  req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
  if err != nil {
    return nil, err
  }
  req.Header.Set("Authorization", "Bearer "+c.apiKey)
  req.Header.Set("Content-Type", "application/json")

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return nil, err
  }

  raw, readErr := io.ReadAll(resp.Body)
  _ = resp.Body.Close()
  if readErr != nil {
    return nil, readErr
  }

  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
  }
  return raw, nil
}

type chatCompletionsRequest struct {
  Model    string `json:"model"`
  Messages []struct {
    Role    string `json:"role"`
    Content string `json:"content"`
  } `json:"messages"`
  ResponseFormat struct {
    Type string `json:"type"`
  } `json:"response_format"`
  Temperature float64 `json:"temperature,omitempty"`
}

type chatCompletionsResponse struct {
  Choices []struct {
    Message struct {
      Role    string `json:"role"`
      Content string `json:"content"`
    } `json:"message"`
    FinishReason string `json:"finish_reason"`
  } `json:"choices"`
}

func (c *openAIClient) GenerateChat(ctx context.Context, system string, user string) (string, error) {
  if c.apiKey == "" {
    return "", errMissingAPIKey
  }

  req := chatCompletionsRequest{
    Model: c.model,
    Messages: []struct {
      Role    string `json:"role"`
      Content string `json:"content"`
    }{
      {Role: "system", Content: system},
      {Role: "user", Content: user},
    },
    Temperature: 0.2,
  }
  req.ResponseFormat.Type = "json_object"

  raw, err := c.doOnce(ctx, "POST", "/v1/chat/completions", req)
  if err != nil {
    return "", err
  }

  var resp chatCompletionsResponse
  if uErr := json.Unmarshal(raw, &resp); uErr != nil {
    return "", fmt.Errorf("openai decode error: %w; raw=%s", uErr, string(raw))
  }
  if len(resp.Choices) == 0 {
    return "", fmt.Errorf("no choices in openai response")
  }
  content := resp.Choices[0].Message.Content
  if content == "" {
    return "", fmt.Errorf("empty content in openai response")
  }
  c.log.Debug("Chat completion succeeded", "model", c.model, "content_bytes", len(content))
  return content, nil
}
