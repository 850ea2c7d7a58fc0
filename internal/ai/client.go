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

// Client talks to the OpenRouter chat completions API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	retry      retryPolicy
}

// openRouterRequest adds the provider-specific fields to GenerateRequest.
type openRouterRequest struct {
	GenerateRequest
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// NewOpenRouterClient returns a client with default timeouts and retry strategy.
func NewOpenRouterClient(apiKey string) *Client {
	return NewClient(apiKey, 60*time.Second, 3, 500*time.Millisecond, 4*time.Second)
}

// NewClient allows customizing HTTP timeout and retry/backoff behavior.
func NewClient(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: httpTimeout},
		apiKey:     apiKey,
		baseURL:    "https://openrouter.ai/api/v1",
		retry:      retryPolicy{maxAttempts: retryMax, baseDelay: baseDelay, maxDelay: maxDelay},
	}
}

// NewClientWithBaseURL allows injecting a custom base URL (used in tests).
func NewClientWithBaseURL(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, baseURL string) *Client {
	c := NewClient(apiKey, httpTimeout, retryMax, baseDelay, maxDelay)
	if baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

// Generate sends a chat completion request, retrying 429/5xx responses and
// transient network errors.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, errors.New("TABLOOM_API_KEY is missing")
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	body := openRouterRequest{GenerateRequest: req}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := c.baseURL + "/chat/completions"
	requestID := uuid.NewString()

	var out GenerateResponse
	err = c.retry.do(ctx, func(int) attemptResult {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return attemptResult{err: fmt.Errorf("build request: %w", err)}
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("X-Request-Id", requestID)
		httpReq.Header.Set("HTTP-Referer", "https://github.com/KaramelBytes/tabloom")
		httpReq.Header.Set("X-Title", "tabloom")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return attemptResult{err: fmt.Errorf("http request: %w", err), retry: isRetryableNetErr(err)}
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := readAPIError(resp)
			if apiErr.RequestID == "" {
				apiErr.RequestID = requestID
			}
			return attemptResult{
				err:   classifyAPIError(apiErr, resp),
				retry: isRetryableStatus(resp.StatusCode),
				wait:  retryAfter(resp),
			}
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return attemptResult{err: fmt.Errorf("decode response: %w", err)}
		}
		out.RequestID = extractRequestID(resp)
		if out.RequestID == "" {
			out.RequestID = requestID
		}
		return attemptResult{}
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
