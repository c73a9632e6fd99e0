// Package inference talks to the Hugging Face Inference API for speech
// recognition, zero-shot classification and token classification.
package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"
	"github.com/yegors/complaint-desk/pkg/logger"
)

// maxResponseBytes caps how much of a response body is read
const maxResponseBytes = 8 << 20

// Config configures a Client
type Config struct {
	BaseURL    string
	APIToken   string
	Timeout    time.Duration
	MaxRetries int // 0 means a single attempt
}

// Client is a Hugging Face Inference API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	maxRetries int
	logger     *logger.Logger
}

// NewClient creates a new inference client
func NewClient(config Config, logger *logger.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiToken:   config.APIToken,
		maxRetries: config.MaxRetries,
		logger:     logger.Named("hf-client"),
	}
}

// APIError is a non-2xx response from the inference API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inference API returned %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the request may succeed if sent again
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// post sends body to the model endpoint and returns the raw response body
func (c *Client) post(ctx context.Context, model, contentType string, body []byte) ([]byte, error) {
	endpoint := c.baseURL + "/" + model

	var b backoff.BackOff = backoff.NewExponentialBackOff()
	b = backoff.WithMaxRetries(b, uint64(c.maxRetries))
	b = backoff.WithContext(b, ctx)

	attempt := 0
	var result []byte
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")
		if c.apiToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiToken)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("Inference request failed",
				logger.String("model", model),
				logger.Int("attempt", attempt),
				logger.Error(err))
			return fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode >= 300 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
			c.logger.Warn("Inference API error",
				logger.String("model", model),
				logger.Int("status", resp.StatusCode),
				logger.Int("attempt", attempt),
				logger.String("message", apiErr.Message))
			if !apiErr.Retryable() {
				return backoff.Permanent(apiErr)
			}
			return apiErr
		}

		if !gjson.ValidBytes(data) {
			return backoff.Permanent(fmt.Errorf("invalid JSON from inference API: %.200s", string(data)))
		}

		result = data
		return nil
	}

	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}

	c.logger.Debug("Inference request completed",
		logger.String("model", model),
		logger.Int("attempt", attempt),
		logger.Int("response_bytes", len(result)))
	return result, nil
}

// errorMessage pulls the "error" field out of an API error body
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "error"); msg.Exists() {
			return msg.String()
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// unwrapNested returns the first element when the API wraps results in an extra array
func unwrapNested(result gjson.Result) gjson.Result {
	if result.IsArray() {
		first := result.Get("0")
		if first.IsArray() {
			return first
		}
	}
	return result
}
