// Package service talks to the report AI microservice over HTTP.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/report-agent/internal/domain/ai"
)

const maxResponseBytes = 8 << 20

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type analyzeBody struct {
	FilePath string `json:"file_path"`
	FileType string `json:"file_type"`
}

type askBody struct {
	FilePath string `json:"file_path"`
	Question string `json:"question"`
}

// Analyze posts to /analyze and returns the raw JSON body.
func (c *Client) Analyze(ctx context.Context, req ai.AnalyzeRequest) ([]byte, error) {
	return c.post(ctx, "/analyze", analyzeBody{FilePath: req.FileRef, FileType: req.ContentType})
}

// Ask posts to /ask and returns the answer verbatim.
func (c *Client) Ask(ctx context.Context, req ai.AskRequest) (string, error) {
	body, err := c.post(ctx, "/ask", askBody{FilePath: req.FileRef, Question: req.Question})
	if err != nil {
		return "", err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decode answer: %v", ai.ErrUpstream, err)
	}
	for _, k := range []string{"answer", "Answer"} {
		if raw, ok := out[k]; ok {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil && s != "" {
				return s, nil
			}
		}
	}
	return "", fmt.Errorf("%w: empty answer", ai.ErrUpstream)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ai.ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ai.ErrUpstream, path, err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %w", ai.ErrUpstream, ai.ErrQuotaExceeded)
	case resp.StatusCode/100 != 2:
		return nil, fmt.Errorf("%w: %s returned %d: %s", ai.ErrUpstream, path, resp.StatusCode, snippet(body))
	}
	return body, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
