package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBaseURL is the DashScope OpenAI-compatible endpoint.
	DefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

	defaultTimeout   = 60 * time.Second
	keyLookupTimeout = 10 * time.Second
	maxResponseSize  = 4 << 20
)

// chatRequest carries only model and messages. No sampling parameters are
// forwarded. Messages are relayed as received.
type chatRequest struct {
	Model    string            `json:"model"`
	Messages []json.RawMessage `json:"messages"`
}

// KeySource resolves the provider API key by name, e.g. from SSM.
type KeySource interface {
	Secret(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client calls an OpenAI-compatible chat completions endpoint and hands the
// provider's JSON back untouched.
type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	keySource  KeySource
	keyName    string

	keyMu       sync.Mutex
	resolvedKey string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithAPIKey sets a static API key. An empty key is allowed; the provider
// then rejects the call.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithKeySource makes the client fetch its key from src on first use. A
// fetched key is kept for the life of the client; failures are retried on the
// next request. It takes precedence over WithAPIKey.
func WithKeySource(src KeySource, name string) Option {
	return func(c *Client) {
		c.keySource = src
		c.keyName = strings.TrimSpace(name)
	}
}

func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.keySource != nil && c.keyName == "" {
		return nil, errors.New("openai: key source requires a parameter name")
	}
	return c, nil
}

// resolveAPIKey returns the static key, or the key fetched from the key
// source. Only a successful lookup is cached. The lookup ignores the caller's
// cancellation so one dropped request cannot fail the fetch for the rest.
func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	if c.keySource == nil {
		return c.apiKey, nil
	}
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	if c.resolvedKey != "" {
		return c.resolvedKey, nil
	}

	lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), keyLookupTimeout)
	defer cancel()
	key, err := c.keySource.Secret(lookupCtx, c.keyName)
	if err != nil {
		return "", fmt.Errorf("openai: resolve api key: %w", err)
	}
	c.resolvedKey = key
	return key, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

// chatURL appends /chat/completions to the base URL as given; the base
// carries any version segment itself.
func chatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/chat/completions"
}

// CreateChatCompletion posts {model, messages} and returns the provider's
// completion object as raw JSON. Each message is sent byte for byte.
func (c *Client) CreateChatCompletion(ctx context.Context, model string, messages []json.RawMessage) (json.RawMessage, error) {
	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return nil, err
	}

	if messages == nil {
		messages = []json.RawMessage{}
	}
	body, err := json.Marshal(chatRequest{Model: model, Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	url := chatURL(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return nil, fmt.Errorf("openai: request failed: %w", err)
	}
	if !json.Valid(raw) {
		return nil, errors.New("openai: decode response: body is not valid JSON")
	}
	return json.RawMessage(raw), nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       strings.TrimSpace(string(buf)),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
