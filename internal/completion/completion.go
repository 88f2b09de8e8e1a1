// Package completion wraps the external chat-completion HTTP API: request
// construction, retry with exponential backoff, and streaming response
// handling.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default retry and timeout policy.
const (
	DefaultMaxAttempts = 3
	DefaultBaseBackoff = 3 * time.Second
	DefaultTimeout     = 240 * time.Second
)

// ErrUpstream indicates a transport-level failure (network error or 5xx)
// that persisted through the retry schedule.
var ErrUpstream = errors.New("completion: upstream unavailable")

// ErrProtocol indicates the upstream replied but the response shape did not
// match the expected contract. Never retried.
var ErrProtocol = errors.New("completion: malformed upstream response")

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged block of a prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options selects the model and sampling parameters for one call.
type Options struct {
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Client is the chat-completion API client. Construct once at process start
// and share; the underlying http.Client is safe for concurrent use.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	maxAttempts int
	baseBackoff time.Duration
}

// ClientOpts holds parameters for creating a Client.
type ClientOpts struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration // overall per-call bound; defaults to DefaultTimeout
	MaxAttempts int           // defaults to DefaultMaxAttempts
	BaseBackoff time.Duration // defaults to DefaultBaseBackoff, doubles per retry
}

// NewClient creates a Client.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("completion: base URL is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	backoff := opts.BaseBackoff
	if backoff <= 0 {
		backoff = DefaultBaseBackoff
	}
	return &Client{
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: attempts,
		baseBackoff: backoff,
	}, nil
}

// chatRequest is the outbound chat-completions body.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

// chatResponse is the non-streaming response body.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete issues a non-streaming completion call and returns the reply
// text. Transient failures are retried with exponential backoff.
func (c *Client) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	resp, err := c.post(ctx, messages, opts, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: missing choices[0].message.content", ErrProtocol)
	}
	return parsed.Choices[0].Message.Content, nil
}

// post sends the request, retrying on network errors and 5xx responses up to
// the attempt bound. On success the caller owns the response body. Retries
// apply only before any response body is consumed.
func (c *Client) post(ctx context.Context, messages []Message, opts Options, stream bool) (*http.Response, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("completion: marshal request: %w", err)
	}

	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("completion: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode >= 500:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		case resp.StatusCode != http.StatusOK:
			// 4xx is not transient; surface immediately.
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
		default:
			return resp, nil
		}

		if attempt < c.maxAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("%w: %d attempts: %v", ErrUpstream, c.maxAttempts, lastErr)
}
