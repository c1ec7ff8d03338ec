package ai

import "context"

type AnalyzeRequest struct {
	Ref         string // stored blob key
	FileRef     string // resolved path or URL
	ContentType string
}

type AskRequest struct {
	Ref      string
	FileRef  string
	Question string
}

// Client is the AI backend. Analyze returns the raw response body; decoding
// and normalization happen in the caller.
type Client interface {
	Analyze(ctx context.Context, req AnalyzeRequest) ([]byte, error)
	Ask(ctx context.Context, req AskRequest) (string, error)
}
