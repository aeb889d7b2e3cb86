// Package llm implements an OpenAI-compatible chat completions client used
// by the planner and narrator collaborators
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/opsline/engine/internal/retry"
)

type (
	// Client issues chat completion requests against an OpenAI-compatible
	// endpoint
	Client interface {
		GenerateText(
			ctx context.Context, req Request,
		) (string, error)
		GenerateJSON(
			ctx context.Context, req Request,
		) ([]byte, error)
	}

	// Request carries the prompts and sampling settings for one completion
	Request struct {
		System      string
		User        string
		Temperature float64
		MaxTokens   int
	}

	// HTTPClient is the production Client implementation
	HTTPClient struct {
		httpClient *http.Client
		baseURL    string
		apiKey     string
		model      string
		policy     retry.Policy
	}

	chatRequest struct {
		Model          string          `json:"model"`
		Messages       []chatMessage   `json:"messages"`
		Temperature    float64         `json:"temperature,omitempty"`
		MaxTokens      int             `json:"max_tokens,omitempty"`
		ResponseFormat *responseFormat `json:"response_format,omitempty"`
	}

	chatMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	responseFormat struct {
		Type string `json:"type"`
	}

	chatResponse struct {
		Choices []choice `json:"choices"`
	}

	choice struct {
		Message chatMessage `json:"message"`
	}
)

const requestTimeout = 60 * time.Second

var (
	ErrAPIKeyMissing = errors.New("LLM API key not configured")
	ErrEmptyResponse = errors.New("LLM returned no choices")
)

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a chat completions client. Network calls are
// wrapped in the provided retry policy
func NewHTTPClient(
	baseURL, apiKey, model string, policy retry.Policy,
) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		policy:     policy,
	}
}

// GenerateText returns the completion's message content as-is
func (c *HTTPClient) GenerateText(
	ctx context.Context, req Request,
) (string, error) {
	return c.complete(ctx, req, nil)
}

// GenerateJSON requests a JSON-object completion and strips any markdown
// code fences the model wrapped around the payload
func (c *HTTPClient) GenerateJSON(
	ctx context.Context, req Request,
) ([]byte, error) {
	text, err := c.complete(ctx, req, &responseFormat{Type: "json_object"})
	if err != nil {
		return nil, err
	}
	return []byte(StripFences(text)), nil
}

func (c *HTTPClient) complete(
	ctx context.Context, req Request, format *responseFormat,
) (string, error) {
	if c.apiKey == "" {
		return "", ErrAPIKeyMissing
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: format,
	})
	if err != nil {
		return "", err
	}

	return retry.Do(ctx, c.policy,
		func(ctx context.Context) (string, error) {
			return c.post(ctx, body)
		})
}

func (c *HTTPClient) post(ctx context.Context, body []byte) (string, error) {
	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, bytes.NewReader(body),
	)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	dur := time.Since(start)

	if err != nil {
		slog.Error("LLM request failed",
			slog.Duration("duration", dur),
			slog.String("error", err.Error()))
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("LLM returned HTTP error",
			slog.Int("status_code", resp.StatusCode))
		return "", &retry.StatusError{Code: resp.StatusCode, URL: url}
	}

	var response chatResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("failed to decode LLM response: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return response.Choices[0].Message.Content, nil
}

// StripFences removes a surrounding markdown code fence from model output,
// tolerating an optional language tag
func StripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		first := strings.TrimSpace(trimmed[:idx])
		if first == "" || !strings.ContainsAny(first, "{[") {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
