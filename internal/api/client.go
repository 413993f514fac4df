// Package api implements the resilient HTTP request client: bounded timeouts,
// exponential-backoff retry for transient server failures, and offline
// wait-and-resume driven by a network availability monitor.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/nextlevelbuilder/tetherlink/internal/netmon"
)

// DefaultTimeout bounds a single request attempt unless overridden per call.
const DefaultTimeout = 30 * time.Second

// offlineWaitFactor caps how long an offline request waits for connectivity:
// the client polls every RetryPolicy.BaseDelay up to this many polls.
const offlineWaitFactor = 10

// TokenSource resolves the bearer credential attached to requests.
// An empty token means "unauthenticated".
type TokenSource interface {
	Token() string
}

// RetryPolicy controls DoWithRetry. The zero value disables retry.
type RetryPolicy struct {
	Enabled    bool
	MaxRetries int           // attempts after the first (default 3)
	BaseDelay  time.Duration // backoff base and offline poll interval (default 1s)
}

// Options describes one request. The zero value is a GET with defaults.
type Options struct {
	Method  string
	Body    any // nil, *Multipart, or a JSON-marshalable value
	Headers map[string]string
	Timeout time.Duration // 0 = DefaultTimeout

	// Per-call retry overrides for DoWithRetry.
	DisableRetry bool
	MaxRetries   int           // 0 = policy default
	RetryDelay   time.Duration // 0 = policy default
}

// Multipart is an encoded multipart/form-data body. It holds the full bytes
// rather than a reader so each retry attempt re-sends the form intact.
type Multipart struct {
	ContentType string
	Body        []byte
}

// NewMultipart builds a multipart body from string fields plus one file part.
func NewMultipart(fields map[string]string, fileField, fileName string, file io.Reader) (*Multipart, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("multipart field %s: %w", k, err)
		}
	}
	part, err := w.CreateFormFile(fileField, fileName)
	if err != nil {
		return nil, fmt.Errorf("multipart file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("multipart copy: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return &Multipart{ContentType: w.FormDataContentType(), Body: buf.Bytes()}, nil
}

// Response is a successful (2xx) response.
type Response struct {
	Status int
	JSON   bool
	Body   []byte
}

// Decode unmarshals a JSON response body into v. Non-JSON responses decode
// into *string only.
func (r *Response) Decode(v any) error {
	if !r.JSON {
		if s, ok := v.(*string); ok {
			*s = string(r.Body)
			return nil
		}
		return fmt.Errorf("response is not JSON (status %d)", r.Status)
	}
	return json.Unmarshal(r.Body, v)
}

// Client executes HTTP requests against a single base URL.
type Client struct {
	base    string
	http    *http.Client
	tokens  TokenSource
	network netmon.Monitor
	policy  RetryPolicy
	clock   clock.Clock
}

// NewClient creates a request client. tokens may be nil for unauthenticated
// use; network may be nil to assume the network is always available.
func NewClient(baseURL string, tokens TokenSource, network netmon.Monitor, policy RetryPolicy) *Client {
	if network == nil {
		network = netmon.Static(true)
	}
	if policy.MaxRetries <= 0 {
		policy.MaxRetries = 3
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = time.Second
	}
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
		network: network,
		policy:  policy,
		clock:   clock.New(),
	}
}

// Do executes a single attempt: offline fail-fast, bearer attach, body
// serialization, timeout-bounded execution, and response classification.
func (c *Client) Do(ctx context.Context, path string, opts Options) (*Response, error) {
	if c.policy.Enabled && !c.network.Available() {
		return nil, &OfflineError{}
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	contentType := ""
	switch b := opts.Body.(type) {
	case nil:
	case *Multipart:
		body = bytes.NewReader(b.Body)
		contentType = b.ContentType
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{Path: path, Timeout: timeout}
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{Path: path, Timeout: timeout}
		}
		return nil, fmt.Errorf("read response: %w", err)
	}

	isJSON := strings.Contains(resp.Header.Get("Content-Type"), "application/json")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload map[string]any
		raw := ""
		if isJSON {
			if err := json.Unmarshal(data, &payload); err != nil {
				payload = nil
				raw = string(data)
			}
		} else {
			raw = string(data)
		}
		return nil, newError(resp.StatusCode, payload, raw)
	}

	return &Response{Status: resp.StatusCode, JSON: isJSON, Body: data}, nil
}

// DoWithRetry wraps Do with bounded retry. Retryable server failures back off
// exponentially (base * 2^attempt); offline failures instead poll network
// availability every base delay for up to offlineWaitFactor polls and resume
// as soon as connectivity returns. Terminal failures propagate immediately.
func (c *Client) DoWithRetry(ctx context.Context, path string, opts Options) (*Response, error) {
	maxRetries := c.policy.MaxRetries
	if opts.MaxRetries > 0 {
		maxRetries = opts.MaxRetries
	}
	baseDelay := c.policy.BaseDelay
	if opts.RetryDelay > 0 {
		baseDelay = opts.RetryDelay
	}
	retryEnabled := c.policy.Enabled && !opts.DisableRetry

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := c.Do(ctx, path, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryEnabled || attempt >= maxRetries || !recoverable(err) {
			return nil, err
		}

		var offline *OfflineError
		if errors.As(err, &offline) {
			if err := c.awaitNetwork(ctx, baseDelay); err != nil {
				return nil, err
			}
		} else {
			if err := c.sleep(ctx, baseDelay<<uint(attempt)); err != nil {
				return nil, err
			}
		}

		slog.Info("api: retrying request", "path", path, "attempt", attempt+1, "max", maxRetries)
	}
	return nil, lastErr
}

// recoverable reports whether a failure may succeed on retry: retryable
// server statuses and offline conditions. Transport and timeout failures are
// terminal, matching the response-status-driven retry contract.
func recoverable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	var offline *OfflineError
	return errors.As(err, &offline)
}

// awaitNetwork polls availability every delay, up to offlineWaitFactor polls.
// Returns nil as soon as the network is back, or OfflineError if it never is.
func (c *Client) awaitNetwork(ctx context.Context, delay time.Duration) error {
	waited := delay
	for !c.network.Available() && waited < delay*offlineWaitFactor {
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
		waited += delay
	}
	if !c.network.Available() {
		return &OfflineError{}
	}
	return nil
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	t := c.clock.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
