package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/report-agent/internal/domain/ai"
	"github.com/bryanwahyu/report-agent/internal/infra/ai/prompt"
	"github.com/bryanwahyu/report-agent/internal/infra/ai/source"
)

const (
	maxTokens       = 2048
	maxContentBytes = 48 << 10
)

type Client struct {
	*openai.Client
	Model string
	// Blobs reads the uploaded report that goes into the prompt.
	Blobs source.Opener
}

func NewClient(apiKey, baseURL, model string, blobs source.Opener) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model, Blobs: blobs}
}

func (c *Client) model() string {
	if c.Model == "" {
		return openai.GPT4oMini
	}
	return c.Model
}

func (c *Client) Analyze(ctx context.Context, req ai.AnalyzeRequest) ([]byte, error) {
	content, truncated, err := c.load(ctx, req.Ref)
	if err != nil {
		return nil, err
	}
	out, err := c.complete(ctx, true,
		prompt.GetSystemPrompt(),
		prompt.GetUserPrompt(path.Base(req.Ref), req.ContentType, content, truncated),
	)
	if err != nil {
		return nil, err
	}
	return []byte(prompt.StripCodeFence(out)), nil
}

func (c *Client) Ask(ctx context.Context, req ai.AskRequest) (string, error) {
	content, truncated, err := c.load(ctx, req.Ref)
	if err != nil {
		return "", err
	}
	out, err := c.complete(ctx, false,
		prompt.GetQuestionSystemPrompt(),
		prompt.GetQuestionPrompt(path.Base(req.Ref), content, truncated, req.Question),
	)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty answer", ai.ErrUpstream)
	}
	return out, nil
}

// load returns the report as text, or "" when it is binary (xlsx, pdf).
func (c *Client) load(ctx context.Context, ref string) (string, bool, error) {
	b, truncated, err := source.Read(ctx, c.Blobs, ref, maxContentBytes)
	if err != nil {
		return "", false, fmt.Errorf("%w: load report: %v", ai.ErrUpstream, err)
	}
	if !utf8.Valid(b) {
		return "", false, nil
	}
	return string(b), truncated, nil
}

func (c *Client) complete(ctx context.Context, jsonMode bool, system, user string) (string, error) {
	model := c.model()
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %w", ai.ErrUpstream, ai.ErrQuotaExceeded)
		}
		return "", fmt.Errorf("%w: failed to create chat completion: %v", ai.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ai.ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}
