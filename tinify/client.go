package tinify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL      = "https://api.tinify.com"
	shrinkEndpoint      = "/shrink"
	defaultHTTPClientTO = 60 * time.Second
	compressionCountHdr = "Compression-Count"
	// KeyEnv is consulted when no key is supplied explicitly
	KeyEnv = "TINYPNG_API_KEY"
)

// ErrMissingKey is returned when compression is requested without an API key
var ErrMissingKey = errors.New("tinify: missing API key")

// ServiceError represents a non-success response from the compression service
type ServiceError struct {
	StatusCode int    `json:"-"`
	Kind       string `json:"error"`
	Message    string `json:"message"`
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tinify: %s (HTTP %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("tinify: %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
}

// ShrinkResponse represents the shrink endpoint payload
type ShrinkResponse struct {
	Input  ImageInfo  `json:"input"`
	Output OutputInfo `json:"output"`
}

// ImageInfo describes an uploaded image
type ImageInfo struct {
	Size int    `json:"size"`
	Type string `json:"type"`
}

// OutputInfo describes the compressed image
type OutputInfo struct {
	Size   int     `json:"size"`
	Type   string  `json:"type"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Ratio  float64 `json:"ratio"`
	URL    string  `json:"url"`
}

// Client calls the TinyPNG compression API
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	count      atomic.Int64
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API endpoint
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.BaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets the http client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.HTTPClient = client }
}

// WithRate limits compression calls per second, zero or less disables limiting
func WithRate(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.Limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewClient creates a client, empty apiKey falls back to TINYPNG_API_KEY
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    defaultBaseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: defaultHTTPClientTO},
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv(KeyEnv)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompressionCount returns the last monthly compression count reported by the service
func (c *Client) CompressionCount() int {
	return int(c.count.Load())
}

// Compress uploads data and returns the compressed image
func (c *Client) Compress(ctx context.Context, data []byte) ([]byte, error) {
	if c.APIKey == "" {
		return nil, ErrMissingKey
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	location, err := c.shrink(ctx, data)
	if err != nil {
		return nil, err
	}
	return c.download(ctx, location)
}

func (c *Client) shrink(ctx context.Context, data []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+shrinkEndpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.SetBasicAuth("api", c.APIKey)
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	c.updateCount(resp.Header)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", newServiceError(resp)
	}
	if location := resp.Header.Get("Location"); location != "" {
		return c.resolve(location), nil
	}
	var shrinkResp ShrinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&shrinkResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if shrinkResp.Output.URL == "" {
		return "", fmt.Errorf("decode response: missing output url")
	}
	return c.resolve(shrinkResp.Output.URL), nil
}

func (c *Client) download(ctx context.Context, location string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.SetBasicAuth("api", c.APIKey)
	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	c.updateCount(resp.Header)
	if resp.StatusCode != http.StatusOK {
		return nil, newServiceError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

func (c *Client) resolve(location string) string {
	if strings.HasPrefix(location, "/") {
		return c.BaseURL + location
	}
	return location
}

func (c *Client) updateCount(header http.Header) {
	value := header.Get(compressionCountHdr)
	if value == "" {
		return
	}
	if n, err := strconv.Atoi(value); err == nil {
		c.count.Store(int64(n))
	}
}

func newServiceError(resp *http.Response) error {
	svcErr := &ServiceError{StatusCode: resp.StatusCode}
	_ = json.NewDecoder(resp.Body).Decode(svcErr)
	if svcErr.Kind == "" {
		svcErr.Kind = http.StatusText(resp.StatusCode)
	}
	return svcErr
}
