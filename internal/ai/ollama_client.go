package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// OllamaClient is a minimal HTTP client for a local Ollama runtime.
type OllamaClient struct {
	httpClient *http.Client
	host       string
	retry      retryPolicy
}

// NewOllamaClient creates a new client targeting the given host (e.g., http://127.0.0.1:11434).
func NewOllamaClient(host string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *OllamaClient {
	if host == "" {
		host = "http://127.0.0.1:11434"
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 2
	}
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 1 * time.Second
	}
	return &OllamaClient{
		httpClient: &http.Client{Timeout: httpTimeout},
		host:       host,
		retry:      retryPolicy{maxAttempts: retryMax, baseDelay: baseDelay, maxDelay: maxDelay},
	}
}

// Structures aligned with Ollama /api/chat (non-streaming)
type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message         Message `json:"message"`
	Done            bool    `json:"done"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

// Generate sends a chat request to Ollama and maps the response to GenerateResponse.
func (c *OllamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}
	oreq := ollamaChatRequest{
		Model:    req.Model,
		Messages: append([]Message(nil), req.Messages...),
		Options:  map[string]any{},
	}
	if req.JSONMode {
		oreq.Format = "json"
	}
	if req.Temperature > 0 {
		oreq.Options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		oreq.Options["num_predict"] = req.MaxTokens
	}
	payload, err := json.Marshal(oreq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := c.host + "/api/chat"
	requestID := "ollama_" + uuid.NewString()

	var out GenerateResponse
	err = c.retry.do(ctx, func(int) attemptResult {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return attemptResult{err: fmt.Errorf("build request: %w", err)}
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("X-Request-Id", requestID)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return attemptResult{err: &UnreachableError{Host: c.host, Err: err}, retry: isRetryableNetErr(err)}
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := readAPIError(resp)
			if apiErr.RequestID == "" {
				apiErr.RequestID = requestID
			}
			var classified error = apiErr
			switch {
			case resp.StatusCode == http.StatusNotFound:
				// a 404 from /api/chat means the model is not pulled
				classified = &ModelNotFoundError{APIError: apiErr}
			case resp.StatusCode >= 500:
				classified = &ServerError{APIError: apiErr}
			case resp.StatusCode == http.StatusBadRequest:
				classified = &BadRequestError{APIError: apiErr}
			}
			return attemptResult{err: classified, retry: resp.StatusCode >= 500}
		}
		var oresp ollamaChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&oresp); err != nil {
			return attemptResult{err: fmt.Errorf("decode response: %w", err)}
		}
		out = GenerateResponse{
			Choices:   []Choice{{Message: Message{Role: "assistant", Content: oresp.Message.Content}}},
			Usage:     Usage{PromptTokens: oresp.PromptEvalCount, CompletionTokens: oresp.EvalCount, TotalTokens: oresp.PromptEvalCount + oresp.EvalCount},
			RequestID: requestID,
		}
		return attemptResult{}
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
