package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Input validation and sanitization utilities

const MaxQuestionLength = 2000

// ParseID validates a positive integer path id.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// ValidateQuestion trims the question and checks its length.
func ValidateQuestion(q string) (string, error) {
	q = SanitizeString(q)
	if q == "" {
		return "", fmt.Errorf("question is required")
	}
	if utf8.RuneCountInString(q) > MaxQuestionLength {
		return "", fmt.Errorf("question exceeds %d characters", MaxQuestionLength)
	}
	return q, nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
