package findata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quanta/internal/interfaces"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the financial datasets API.
	DefaultBaseURL = "https://api.financialdatasets.ai"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 5
)

// Client is a financial datasets API client. Responses are cached by
// request signature when a cache store is attached; cache failures degrade
// to live fetches and never fail a call.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	logger       arbor.ILogger
	limiter      *rate.Limiter
	cache        interfaces.CacheStorage
	cacheEnabled bool
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithCache attaches a response cache.
func WithCache(cache interfaces.CacheStorage) ClientOption {
	return func(c *Client) {
		c.cache = cache
		c.cacheEnabled = cache != nil
	}
}

// NewClient creates a new financial datasets API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// cacheAwareGet performs a GET request, consulting the cache first.
func (c *Client) cacheAwareGet(ctx context.Context, path string, params url.Values, result interface{}) error {
	key := cacheDigest(canonicalKey(path, params))
	if c.readCache(ctx, key, result) {
		return nil
	}

	body, err := c.do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	c.writeCache(ctx, key, body)
	return nil
}

// cacheAwarePost performs a POST request with a JSON body, consulting the
// cache first. The body participates in the cache signature.
func (c *Client) cacheAwarePost(ctx context.Context, path string, reqBody interface{}, result interface{}) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	key := cacheDigest(canonicalPostKey(path, nil, payload))
	if c.readCache(ctx, key, result) {
		return nil
	}

	body, err := c.do(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	c.writeCache(ctx, key, body)
	return nil
}

// readCache attempts to satisfy a request from the cache. A corrupt or
// missing entry is a miss, never an error.
func (c *Client) readCache(ctx context.Context, key string, result interface{}) bool {
	if !c.cacheEnabled || !c.cache.Exists(ctx, key) {
		return false
	}
	payload, err := c.cache.Get(ctx, key)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn().Err(err).Str("key_hash", key).Msg("Unable to read value from cache")
		}
		return false
	}
	if err := json.Unmarshal(payload, result); err != nil {
		if c.logger != nil {
			c.logger.Warn().Err(err).Str("key_hash", key).Msg("Unable to decode cached value")
		}
		return false
	}
	return true
}

// writeCache persists a response payload. Failures are logged and dropped.
func (c *Client) writeCache(ctx context.Context, key string, payload []byte) {
	if !c.cacheEnabled {
		return
	}
	if err := c.cache.Put(ctx, key, payload); err != nil && c.logger != nil {
		c.logger.Warn().Err(err).Str("key_hash", key).Msg("Unable to persist response to cache")
	}
}

// do executes one HTTP request against the API and returns the raw body.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &RateLimitError{RetryAfter: time.Second}
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Msg("Financial datasets API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
			Endpoint:   path,
		}
	}

	return respBody, nil
}
