package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer name for client spans. The tracer uses the global OpenTelemetry
// tracer provider; configure it in main() before making calls.
const tracerName = "sweetshop/api"

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 15 * time.Second

// Client talks to the sweet-shop REST backend. Create one with New.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *clientMetrics

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Useful for tests
// and for callers that need custom transports.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// WithLogger sets the logger used for request-level debug logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout sets the per-request timeout (default: DefaultTimeout).
// Ignored if WithHTTPClient is also given.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpc.Timeout = d
		}
	}
}

// New creates a Client for the backend at baseURL, e.g.
// "http://localhost:8000/api". A trailing slash is tolerated.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default().With("component", "api"),
		tracer:  otel.Tracer(tracerName),
		metrics: sharedMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken attaches a bearer token to all subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the bearer token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the currently attached bearer token, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do performs a single backend request. body and out may be nil. The
// operation name labels the span and the metrics for this call.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	ctx, span := c.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	))
	defer span.End()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindValidation, Message: "invalid request payload", Wrapped: err}
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "invalid request", Wrapped: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	c.metrics.requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.requestsTotal.WithLabelValues(op, "network_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.logger.Debug("request failed", "operation", op, "error", err)
		return &Error{Kind: KindNetwork, Message: "could not reach the server", Wrapped: err}
	}
	defer resp.Body.Close()

	c.metrics.requestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode >= 400 {
		apiErr := decodeError(resp, fallbackMessage(op))
		span.SetStatus(codes.Error, apiErr.Kind.String())
		c.logger.Debug("request rejected",
			"operation", op, "status", resp.StatusCode, "kind", apiErr.Kind.String())
		return apiErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			span.RecordError(err)
			return &Error{Kind: KindServer, Message: "malformed server response", Status: resp.StatusCode, Wrapped: err}
		}
	}
	return nil
}

// fallbackMessage is used when the backend sends no detail text.
func fallbackMessage(op string) string {
	return fmt.Sprintf("%s failed", strings.ReplaceAll(op, "_", " "))
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
