/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package consolesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Logger is the interface for SDK logging. Any logger that implements Printf
// (such as the standard library's *log.Logger) can be used.
type Logger interface {
	Printf(format string, v ...any)
}

// Client is the core HTTP client shared by all console plugins. It talks to
// the console backend (telephony gateway, orders, feedback, call history)
// over plain JSON. The backend manages telephony credentials internally, so
// no caller-supplied auth header is attached.
type Client struct {
	// HTTP client used to communicate with the backend
	httpClient *http.Client

	// Base URL for API requests
	BaseURL *url.URL

	// Configuration for the client
	Config *Config

	// Logger for SDK operations
	logger Logger
}

// GetHTTPClient returns the HTTP client used for API requests
func (c *Client) GetHTTPClient() *http.Client {
	return c.httpClient
}

// GetLogger returns the logger used by the SDK.
func (c *Client) GetLogger() Logger {
	return c.logger
}

// Config holds the configuration for the console client
type Config struct {
	// BaseURL is the base URL of the console backend
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// Default headers to include in API requests
	DefaultHeaders map[string]string

	// Custom HTTP client to use instead of the default one
	// If nil, a default client will be created with the specified Timeout
	HttpClient *http.Client

	// MaxRetries is the maximum number of retries for transient errors (429, 502, 503, 504).
	// Set to 0 to disable retries. Default: 2.
	MaxRetries int

	// RetryBaseDelay is the initial delay between retries. Default: 1s.
	// Subsequent retries use exponential backoff (delay * 2^attempt).
	RetryBaseDelay time.Duration

	// Logger is the logger for SDK operations. If nil, the standard library's
	// default logger (log.Default()) is used.
	Logger Logger
}

// DefaultConfig returns a default configuration for the console client
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "http://localhost:8080/api",
		Timeout:        15 * time.Second,
		DefaultHeaders: make(map[string]string),
		HttpClient:     nil,
		MaxRetries:     2,
		RetryBaseDelay: 1 * time.Second,
	}
}

// NewClient creates a new console client with the given configuration
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, err
	}

	// Create HTTP client - either use the provided custom client or create a default one
	httpClient := config.HttpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	// Set up logger - use provided logger or default
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	client := &Client{
		httpClient: httpClient,
		BaseURL:    baseURL,
		logger:     logger,
		Config:     config,
	}

	return client, nil
}

// Envelope is the backend's uniform response shape. Every endpoint answers
// with a success flag, an optional message, and an operation-specific data
// payload. A 2xx status with Success=false is still a refusal.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// DecodeData unmarshals the envelope's data payload into v
func (e *Envelope) DecodeData(v interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("envelope has no data payload")
	}
	return json.Unmarshal(e.Data, v)
}

// Request performs an HTTP request to the console backend with automatic
// retry for transient errors (429, 502, 503, 504).
// The caller is responsible for closing the response body when done.
func (c *Client) Request(method, path string, params url.Values, body interface{}) (*http.Response, error) {
	return c.RequestWithRetry(context.Background(), method, path, params, body)
}

// RequestWithContext performs an HTTP request with the given context.
// The context can be used for per-request timeouts and cancellation.
// The caller is responsible for closing the response body when done.
func (c *Client) RequestWithContext(ctx context.Context, method, path string, params url.Values, body interface{}) (*http.Response, error) {
	u, err := url.Parse(c.BaseURL.String() + "/" + path)
	if err != nil {
		return nil, err
	}

	if params != nil {
		u.RawQuery = params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	// Add default headers
	for k, v := range c.Config.DefaultHeaders {
		req.Header.Set(k, v)
	}

	return c.httpClient.Do(req)
}

// RequestWithRetry performs an HTTP request with automatic retry for transient
// errors. It retries on HTTP 429 (respecting the Retry-After header) and
// transient server errors (502, 503, 504) using exponential backoff.
// The caller is responsible for closing the response body when done.
func (c *Client) RequestWithRetry(ctx context.Context, method, path string, params url.Values, body interface{}) (*http.Response, error) {
	maxRetries := c.Config.MaxRetries
	baseDelay := c.Config.RetryBaseDelay
	if baseDelay == 0 {
		baseDelay = 1 * time.Second
	}

	var resp *http.Response
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err = c.RequestWithContext(ctx, method, path, params, body)
		if err != nil {
			return nil, err
		}

		// Check if we should retry
		if !isRetryableStatus(resp.StatusCode) || attempt == maxRetries {
			return resp, nil
		}

		// Determine delay
		delay := retryDelay(resp, baseDelay, attempt)

		// Close the response body before retrying
		resp.Body.Close()

		// Wait with context cancellation support
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return resp, err
}

// isRetryableStatus returns true for HTTP status codes that should be retried.
func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusBadGateway ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout
}

// retryDelay calculates the delay before the next retry attempt.
// For 429 responses, it respects the Retry-After header if present.
// Otherwise, it uses exponential backoff: baseDelay * 2^attempt.
func retryDelay(resp *http.Response, baseDelay time.Duration, attempt int) time.Duration {
	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}
	// Exponential backoff
	return baseDelay * (1 << uint(attempt))
}

// ParseResponse parses an HTTP response into the given interface.
// Non-2xx statuses are converted into the shared error taxonomy.
func ParseResponse(resp *http.Response, v interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return NewGatewayError(resp, body)
	}

	return json.Unmarshal(body, v)
}

// ParseEnvelope parses an HTTP response into an Envelope and enforces the
// backend's success flag: a 2xx response with Success=false becomes a
// GatewayError carrying the backend-supplied message.
func ParseEnvelope(resp *http.Response) (*Envelope, error) {
	var env Envelope
	if err := ParseResponse(resp, &env); err != nil {
		return nil, err
	}

	if !env.Success {
		return nil, &GatewayError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    env.Message,
		}
	}

	return &env, nil
}
