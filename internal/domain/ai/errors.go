package ai

import "errors"

// ErrUpstream covers an AI backend that errors, times out, or answers with
// something that is not a JSON object.
var ErrUpstream = errors.New("ai backend error")

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")
