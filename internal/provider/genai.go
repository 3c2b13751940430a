// internal/provider/genai.go
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"evaldash/internal/common/config"
	stderrors "evaldash/internal/common/errors"
	"evaldash/internal/common/logger"
	"evaldash/internal/common/metrics"
)

const systemPrompt = "You are a management coach providing constructive improvement suggestions " +
	"for managers based on their evaluation scores. Be specific and actionable."

// Client is the generative-AI completion client used by the advisor.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	maxRetries  int
	httpClient  *http.Client
	logger      logger.Logger
}

func NewClient(cfg config.GenAIConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     config.GetDuration(cfg.Timeout),
		maxRetries:  cfg.MaxRetries,
		// Rely on the per-call context for timeouts
		httpClient: &http.Client{},
		logger: log.WithFields(map[string]interface{}{
			"component": "genai-provider",
		}),
	}
}

// Enabled reports whether an API key is configured. When false, Complete
// always fails and callers should fall back to non-AI behavior.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends the prompt to the chat-completions endpoint and returns the
// generated text. The call is bounded by the configured timeout; timeouts and
// empty completions map to their own error codes so callers can distinguish
// them from generic failures.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", stderrors.NewConfigurationError("GenAI API key is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", stderrors.NewGenerationFailedError(err)
	}

	start := time.Now()
	text, err := c.doWithRetry(ctx, body)
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if stdErr, ok := err.(*stderrors.StandardError); ok {
			metrics.ProviderErrors.WithLabelValues(string(stdErr.Code)).Inc()
		}
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		metrics.ProviderErrors.WithLabelValues(string(stderrors.ErrCodeEmptyCompletion)).Inc()
		return "", stderrors.NewEmptyCompletionError()
	}

	return text, nil
}

func (c *Client) doWithRetry(ctx context.Context, body []byte) (string, error) {
	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Apply exponential backoff
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
				// Continue with retry
			case <-ctx.Done():
				return "", stderrors.NewGenerationTimeoutError()
			}
		}

		// Build a fresh request each attempt; the body reader is consumed
		// by a failed send.
		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
		if err != nil {
			return "", stderrors.NewGenerationFailedError(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, lastErr = c.httpClient.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return "", stderrors.NewGenerationTimeoutError()
		}

		c.logger.Warn("provider call failed, retrying", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		})
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", stderrors.NewGenerationTimeoutError()
		}
		return "", stderrors.NewGenerationFailedError(lastErr)
	}

	if resp == nil {
		return "", stderrors.NewGenerationFailedError(fmt.Errorf("no successful response after retries"))
	}
	defer resp.Body.Close()

	var apiResponse chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", stderrors.NewGenerationFailedError(fmt.Errorf("decode error: %v", err))
	}

	if apiResponse.Error != nil {
		return "", stderrors.NewGenerationFailedError(fmt.Errorf("%s: %s", apiResponse.Error.Type, apiResponse.Error.Message))
	}
	if len(apiResponse.Choices) == 0 {
		return "", stderrors.NewEmptyCompletionError()
	}

	return apiResponse.Choices[0].Message.Content, nil
}
