// Package llm provides a provider-agnostic completion client for the three
// translation providers (OpenAI, Gemini, Anthropic). Timeouts and token
// budgets scale with prompt length, and provider failures are normalized to a
// small error taxonomy the pipeline can act on.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxResponseSize limits the provider response body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Client is a provider-agnostic completion client.
type Client struct {
	endpoints   map[string]Endpoint
	httpClient  *http.Client
	retryConfig RetryConfig
	logger      *slog.Logger
}

// Endpoint overrides the base URL and model for a provider.
// Zero values fall back to the provider defaults.
type Endpoint struct {
	BaseURL string
	Model   string
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`    // "system" or "user"
	Content string `json:"content"` // Message content
}

// Request defines a completion request.
type Request struct {
	// Provider selects the registered provider ("openai", "gemini", "anthropic").
	Provider string

	// Model overrides the endpoint/provider default model.
	Model string

	// Messages is the prompt to send.
	Messages []Message

	// Temperature controls randomness. nil uses the provider default.
	Temperature *float64

	// MaxTokens limits response length. 0 scales with prompt length.
	MaxTokens int

	// Timeout is the per-call deadline. 0 scales with prompt length.
	Timeout time.Duration
}

// TokenUsage represents token consumption for a call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response contains the completion result.
type Response struct {
	// RequestID uniquely identifies this call for event correlation.
	RequestID string

	// Content is the generated text, trimmed of surrounding whitespace.
	Content string

	// Model is the actual model that was used.
	Model string

	// Usage contains token consumption metrics, when the provider reports them.
	Usage TokenUsage

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Duration is the wall time of the successful attempt.
	Duration time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) ClientOption {
	return func(client *Client) {
		client.retryConfig = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// WithEndpoint overrides the base URL and model for a provider.
func WithEndpoint(provider string, ep Endpoint) ClientOption {
	return func(client *Client) {
		client.endpoints[provider] = ep
	}
}

// NewClient creates a completion client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		endpoints:   make(map[string]Endpoint),
		retryConfig: DefaultRetryConfig(),
		// No transport-level timeout: the per-call deadline is applied via
		// context so it can scale with prompt length.
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Complete sends a completion request, retrying once on retryable failures.
// Each call is idempotent and nothing is cached.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if req.Provider == "" {
		return nil, fmt.Errorf("provider is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}

	provider := GetProvider(req.Provider)
	if provider == nil {
		return nil, &ProviderError{Provider: req.Provider, Kind: KindUnavailable,
			err: fmt.Errorf("unknown provider: %s", req.Provider)}
	}
	if !provider.Available() {
		return nil, &ProviderError{Provider: req.Provider, Kind: KindUnavailable,
			err: fmt.Errorf("credentials missing for provider %s", req.Provider)}
	}

	promptLen := 0
	for _, m := range req.Messages {
		promptLen += len([]rune(m.Content))
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = ScaleTimeout(promptLen)
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = ScaleMaxTokens(promptLen)
	}

	ep := c.endpoints[req.Provider]
	model := req.Model
	if model == "" {
		model = ep.Model
	}
	if model == "" {
		model = provider.DefaultModel()
	}

	requestID := uuid.New().String()

	var lastErr error
	for attempt := 1; attempt <= c.retryConfig.MaxAttempts; attempt++ {
		start := time.Now()
		resp, err := c.doRequest(ctx, provider, ep.BaseURL, model, req, maxTokens, timeout)
		if err == nil {
			resp.RequestID = requestID
			resp.Duration = time.Since(start)
			resp.Content = strings.TrimSpace(resp.Content)
			return resp, nil
		}

		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}

		if attempt < c.retryConfig.MaxAttempts {
			c.logger.Warn("Provider call failed, retrying",
				"provider", req.Provider,
				"model", model,
				"attempt", attempt,
				"backoff", c.retryConfig.Backoff,
				"error", err)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryConfig.Backoff):
			}
		}
	}

	return nil, lastErr
}

// doRequest executes a single HTTP request against the provider.
func (c *Client) doRequest(ctx context.Context, provider Provider, baseURL, model string,
	req Request, maxTokens int, timeout time.Duration) (*Response, error) {

	url := provider.BuildURL(baseURL, model)

	body, err := provider.BuildRequestBody(model, req.Messages, req.Temperature, maxTokens)
	if err != nil {
		return nil, &ProviderError{Provider: provider.Name(), Kind: KindBadRequest,
			err: fmt.Errorf("build request body: %w", err)}
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.logger.Debug("Sending provider request",
		"provider", provider.Name(),
		"model", model,
		"timeout", timeout,
		"max_tokens", maxTokens)

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Provider: provider.Name(), Kind: KindBadRequest,
			err: fmt.Errorf("create HTTP request: %w", err)}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	provider.SetHeaders(httpReq)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, &ProviderError{Provider: provider.Name(), Kind: KindTimeout,
				err: fmt.Errorf("deadline %s exceeded: %w", timeout, err)}
		}
		// Other network errors are transient.
		return nil, &ProviderError{Provider: provider.Name(), Kind: KindTransient,
			err: fmt.Errorf("HTTP request failed: %w", err)}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, &ProviderError{Provider: provider.Name(), Kind: KindTransient,
			err: fmt.Errorf("read response body: %w", err)}
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(provider.Name(), httpResp.StatusCode, respBody)
	}

	return provider.ParseResponse(respBody, model)
}

// isTimeout reports whether err is a deadline/timeout failure.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classifyHTTPError maps an HTTP status to the provider error taxonomy.
// 429 and 5xx are retry-eligible; other 4xx are not.
func classifyHTTPError(provider string, statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	err := fmt.Errorf("provider API error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &ProviderError{Provider: provider, Kind: KindTransient, err: err}
	case statusCode >= 500:
		return &ProviderError{Provider: provider, Kind: KindTransient, err: err}
	default:
		return &ProviderError{Provider: provider, Kind: KindBadRequest, err: err}
	}
}
