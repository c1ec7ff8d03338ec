// Package local is an offline ai.Client that runs the heuristic analyzer
// in-process. Useful for development and for deployments without a model.
package local

import (
	"context"
	"fmt"
	"path"

	"github.com/bryanwahyu/report-agent/internal/domain/ai"
	"github.com/bryanwahyu/report-agent/internal/infra/ai/prompt"
	"github.com/bryanwahyu/report-agent/internal/infra/ai/source"
)

const maxContentBytes = 4 << 20

type Client struct {
	Blobs source.Opener
}

func NewClient(blobs source.Opener) *Client { return &Client{Blobs: blobs} }

func (c *Client) Analyze(ctx context.Context, req ai.AnalyzeRequest) ([]byte, error) {
	b, _, err := source.Read(ctx, c.Blobs, req.Ref, maxContentBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: load report: %v", ai.ErrUpstream, err)
	}
	return []byte(prompt.AnalyzeReportContent(path.Base(req.Ref), string(b))), nil
}

func (c *Client) Ask(ctx context.Context, req ai.AskRequest) (string, error) {
	b, _, err := source.Read(ctx, c.Blobs, req.Ref, maxContentBytes)
	if err != nil {
		return "", fmt.Errorf("%w: load report: %v", ai.ErrUpstream, err)
	}
	ans := prompt.AnswerQuestion(string(b), req.Question)
	if ans == "" {
		return "", fmt.Errorf("%w: no answer", ai.ErrUpstream)
	}
	return ans, nil
}
