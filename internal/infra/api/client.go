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

	"storefront/internal/domain/shared/apperr"
)

// ErrBaseURLMissing is returned by every call when no API URL is configured.
var ErrBaseURLMissing = errors.New("api: base url not configured")

const errorSnippetLimit = 512

// Config defines gateway client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client performs authenticated calls against the storefront REST API. It never retries;
// a failed call is surfaced to the caller as-is.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	metrics *Metrics
}

// NewClient builds a gateway client. An empty base URL is allowed so the BFF can start
// and report the missing configuration instead of crashing.
func NewClient(cfg Config, logger *slog.Logger, metrics *Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: metrics,
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.http = hc
	}
	return c
}

// Configured reports whether a base URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

type request struct {
	endpoint   string
	method     string
	path       string
	query      url.Values
	body       any
	credential string
	auth       bool
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	if !c.Configured() {
		return &apperr.NetworkError{Message: "storefront api is not configured", Err: ErrBaseURLMissing}
	}
	credential := strings.TrimSpace(req.credential)
	if req.auth && credential == "" {
		return apperr.Unauthenticated("credential missing")
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("api: encode %s body: %w", req.endpoint, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return fmt.Errorf("api: build %s request: %w", req.endpoint, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		httpReq.Header.Set("Authorization", "Bearer "+credential)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.observe(req.endpoint, 0, time.Since(start))
		c.logError("storefront api request failed", req, 0, err)
		return &apperr.NetworkError{Err: err}
	}
	defer resp.Body.Close()
	c.metrics.observe(req.endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippetLimit))
		msg := backendMessage(snippet)
		c.logError("storefront api returned error", req, resp.StatusCode, errors.New(msg))
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return apperr.Unauthenticated(msg)
		}
		return &apperr.NetworkError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		c.logError("storefront api decode failed", req, resp.StatusCode, err)
		return &apperr.NetworkError{Status: resp.StatusCode, Message: "invalid response from storefront api", Err: err}
	}
	return nil
}

// backendMessage extracts {"error": ...} or {"message": ...}; plain-text bodies are used
// as-is. An empty result lets callers fall back to the generic message.
func backendMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := rawErrorText(payload.Error); msg != "" {
			return msg
		}
		return strings.TrimSpace(payload.Message)
	}
	if strings.HasPrefix(trimmed, "<") {
		return ""
	}
	return trimmed
}

// rawErrorText accepts both "error": "text" and "error": {"message": "text"}.
func rawErrorText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}

func (c *Client) logError(msg string, req request, status int, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Error(msg, "endpoint", req.endpoint, "method", req.method, "path", req.path, "status", status, "error", err)
}

func (c *Client) logWarn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func escape(segment string) string {
	return url.PathEscape(strings.TrimSpace(segment))
}
