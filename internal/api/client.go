// Package api provides an HTTP client for the backend under test.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/probekit/backendcheck/internal/config"
	"github.com/probekit/backendcheck/internal/observability"
	"github.com/probekit/backendcheck/internal/output"
	"github.com/probekit/backendcheck/internal/version"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 << 20

// Client issues single, unretried requests against one backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiPrefix  string
	timeout    time.Duration
	logger     *slog.Logger
	collector  *observability.Collector
}

// Request describes one call. A zero Timeout uses the client default.
type Request struct {
	Method  string
	URL     string
	Body    any
	Timeout time.Duration
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Decode unmarshals the body into v. what names the payload in the error.
func (r *Response) Decode(what string, v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return output.ErrMalformed(what, err)
	}
	return nil
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// ExpectStatus returns an unexpected-status error unless resp has code.
func ExpectStatus(resp *Response, code int) error {
	if resp.StatusCode != code {
		return output.ErrStatus(resp.StatusCode, resp.Text())
	}
	return nil
}

// NewClient creates a client for the configured backend. collector may be nil.
func NewClient(cfg *config.Config, collector *observability.Collector) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiPrefix: "/" + strings.Trim(cfg.APIPrefix, "/"),
		timeout:   cfg.Timeout,
		logger:    slog.New(slog.DiscardHandler),
		collector: collector,
	}
}

// SetLogger sets the debug logger for request tracing.
func (c *Client) SetLogger(l *slog.Logger) {
	if l != nil {
		c.logger = l
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + ensureSlash(path)
}

// APIURL joins path onto the base URL plus API prefix.
func (c *Client) APIURL(path string) string {
	if c.apiPrefix == "/" {
		return c.URL(path)
	}
	return c.baseURL + c.apiPrefix + ensureSlash(path)
}

// APIPath returns path under the API prefix, without the base URL.
func (c *Client) APIPath(path string) string {
	if c.apiPrefix == "/" {
		return ensureSlash(path)
	}
	return c.apiPrefix + ensureSlash(path)
}

func ensureSlash(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}

// Get performs a GET request with the default timeout.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: url})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, url string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, URL: url, Body: body})
}

// Options performs an OPTIONS request.
func (c *Client) Options(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodOptions, URL: url})
}

// Do performs one request. Transport failures and timeouts come back as
// network errors; any status code is a successful response.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, bodyReader)
	if err != nil {
		return nil, output.ErrUsageHint("Invalid request URL", err.Error())
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(r, 0, time.Since(start), err)
		return nil, output.ErrNetwork(unwrapURLError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	duration := time.Since(start)
	if err != nil {
		c.record(r, resp.StatusCode, duration, err)
		return nil, output.ErrNetwork(err)
	}
	c.record(r, resp.StatusCode, duration, nil)

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

func (c *Client) record(r Request, status int, d time.Duration, err error) {
	c.logger.Debug("request",
		"method", r.Method,
		"url", observability.ScrubURL(r.URL),
		"status", status,
		"duration", d,
		"error", err,
	)
	if c.collector != nil {
		c.collector.RecordRequest(observability.RequestMetrics{
			Method:     r.Method,
			URL:        r.URL,
			StatusCode: status,
			Duration:   d,
			Error:      err,
		})
	}
}

// unwrapURLError drops the "Get "http://...": " prefix net/http adds, since
// log lines already name the request.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
