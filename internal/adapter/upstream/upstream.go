// Package upstream holds the HTTP plumbing shared by the clients of the
// incident, postcode, prediction and account services.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/crimewatch-service/internal/domain"
	"github.com/couchcryptid/crimewatch-service/internal/observability"
)

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 8 << 20

// ErrResponseTooLarge is wrapped when a response body exceeds the read limit.
var ErrResponseTooLarge = errors.New("response body too large")

// Response is a fully read upstream reply.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Client performs JSON requests against one named upstream and records
// latency and outcome metrics for each call.
type Client struct {
	name       string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
	maxBody    int64
}

// New creates a client for the upstream identified by name.
func New(name string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return NewWithHTTPClient(name, &http.Client{Timeout: timeout}, metrics, logger)
}

// NewWithHTTPClient creates a client that sends requests through hc.
func NewWithHTTPClient(name string, hc *http.Client, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		name:       name,
		httpClient: hc,
		metrics:    metrics,
		logger:     logger.With("upstream", name),
		maxBody:    maxBodyBytes,
	}
}

// Do sends one request and hands the reply to handle. A nil payload sends no
// body. Transport faults become a domain network failure carrying
// transportMsg. Exactly one attempt is made.
func (c *Client) Do(ctx context.Context, method, url string, payload any, transportMsg string, handle func(Response) error) error {
	start := time.Now()
	err := c.do(ctx, method, url, payload, transportMsg, handle)
	c.observe(start, method, url, err)
	return err
}

func (c *Client) do(ctx context.Context, method, url string, payload any, transportMsg string, handle func(Response) error) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return domain.Invalid(fmt.Sprintf("encode request: %v", err))
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return domain.NetworkFailure(transportMsg, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NetworkFailure(transportMsg, fmt.Errorf("%s %s request: %w", c.name, method, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return domain.NetworkFailure(transportMsg, fmt.Errorf("read %s response: %w", c.name, err))
	}
	if int64(len(data)) > c.maxBody {
		return domain.Malformed(transportMsg, resp.StatusCode,
			fmt.Errorf("read %s response: %w (limit %d bytes)", c.name, ErrResponseTooLarge, c.maxBody))
	}

	return handle(Response{Status: resp.StatusCode, Body: data})
}

func (c *Client) observe(start time.Time, method, url string, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(domain.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
		c.metrics.UpstreamRequests.WithLabelValues(c.name, outcome).Inc()
	}
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		c.logger.Debug("upstream request canceled", "method", method, "url", url)
		return
	}
	c.logger.Warn("upstream request failed", "method", method, "url", url, "outcome", outcome, "error", err)
}

// DecodeMessage extracts a human-readable message from an error body. It
// checks the "message" and "error" fields, in that order, and returns "" when
// neither is a non-blank string.
func DecodeMessage(body []byte, fields ...string) string {
	if len(fields) == 0 {
		fields = []string{"message", "error"}
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	for _, f := range fields {
		raw, ok := m[f]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}
