package normalization

import (
  "strings"
)

// ParseInputString lowercases and trims identity-style inputs (emails, enums).
func ParseInputString(input string) string {
  normalized := strings.ToLower(strings.TrimSpace(input))
  return normalized
}

// TrimInputString trims without changing case, for user-facing text like topic titles.
func TrimInputString(input string) string {
  return strings.TrimSpace(input)
}

func TrimInputStringPtr(input *string) *string {
  if input == nil {
    return nil
  }
  trimmed := strings.TrimSpace(*input)
  return &trimmed
}
