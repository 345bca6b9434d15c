// Package api is the JSON-over-HTTPS transport to the SIEM service.
//
// A Client wraps an authorized *http.Client, resolves request paths against
// the region base URL and decodes every response body into a generic JSON
// object. Non-2xx responses are not turned into errors: callers classify the
// status code themselves because the wording of the user-facing message
// depends on the operation.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/CliForge/siemctl/pkg/progress"
	"github.com/pterm/pterm"
)

// DefaultTimeout bounds each call. Validation endpoints can be slow.
const DefaultTimeout = 1200 * time.Second

var (
	// ErrUnreachable is returned when the request never produced a response.
	ErrUnreachable = errors.New("URL is not reachable")

	// ErrInvalidResponse is returned when a successful response is not JSON.
	ErrInvalidResponse = errors.New("response is not valid JSON")
)

// Client issues requests against one base URL.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *pterm.Logger
	progress   progress.Indicator
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *pterm.Logger
	Progress   progress.Indicator
}

// NewClient creates a new Client.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("client config is required")
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
	}

	indicator := config.Progress
	if indicator == nil {
		indicator = progress.NewSpinner(progress.Disabled())
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		logger:     logger,
		progress:   indicator,
	}, nil
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes one call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	// Activity is shown next to the spinner while the call is in flight.
	Activity string
}

// Get issues a GET request for path.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path})
}

// Do executes the request and decodes the response.
func (c *Client) Do(ctx context.Context, r *Request) (*Response, error) {
	target := c.baseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	activity := r.Activity
	if activity == "" {
		activity = "Waiting for the server"
	}
	_ = c.progress.Start(activity)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	_ = c.progress.Stop()
	if err != nil {
		c.logger.Debug("request failed", c.logger.Args("method", r.Method, "url", target, "error", err.Error()))
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("request completed", c.logger.Args(
		"method", r.Method,
		"url", target,
		"status", resp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond).String(),
	))

	return decodeResponse(resp.StatusCode, raw)
}
