// Package client talks to the ledger backend REST API.
package client

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

	"github.com/boddenberg/ledger-client-go/internal/domain"
	"github.com/boddenberg/ledger-client-go/internal/infra/observability"
	"github.com/boddenberg/ledger-client-go/internal/infra/resilience"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 1 << 20

// RequestOptions describes one call. The zero value is an anonymous GET.
type RequestOptions struct {
	Method    string
	Body      any
	Token     string
	Operation string // metrics/tracing label; defaults to Method
}

// Client wraps HTTP calls to the ledger backend. All paths are resolved
// against {baseURL}/api.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewClient creates a backend client.
func NewClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
	}
}

// NewCircuitBreaker returns a breaker that only counts transport failures
// and 5xx answers; a rejected login must not open the circuit.
func NewCircuitBreaker() *gobreaker.CircuitBreaker {
	return resilience.NewCircuitBreaker("ledger-api", countsAsSuccess)
}

func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var httpErr *domain.ErrHTTP
	return errors.As(err, &httpErr) && httpErr.Status < http.StatusInternalServerError
}

// URL returns the absolute URL for an API path.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(c.baseURL, "/") + "/api" + path
}

// Do performs one API call and decodes a JSON response into out.
// It reports whether the response carried a JSON body: 204 and non-JSON
// responses return false with a nil error.
func (c *Client) Do(ctx context.Context, path string, opts RequestOptions, out any) (bool, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	operation := opts.Operation
	if operation == "" {
		operation = method
	}

	ctx, span := tracer.Start(ctx, "Client.Do")
	defer span.End()
	span.SetAttributes(
		attribute.String("api.operation", operation),
		attribute.String("http.method", method),
	)

	var payload []byte
	if opts.Body != nil {
		var err error
		if payload, err = json.Marshal(opts.Body); err != nil {
			return false, fmt.Errorf("encode request body: %w", err)
		}
	}

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return false, &domain.ErrNetwork{Err: err}
	}
	defer c.bulkhead.Release()

	retryCfg := c.cfg
	if method != http.MethodGet {
		retryCfg.MaxRetries = 0
	}

	start := time.Now()
	var decoded bool
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryIf(ctx, retryCfg, isRetryable, func() error {
			var innerErr error
			decoded, innerErr = c.roundTrip(ctx, method, path, payload, opts.Token, out)
			return innerErr
		})
	})
	c.metrics.RecordAPIDuration(operation, time.Since(start))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &domain.ErrNetwork{Err: err}
		}
		c.metrics.IncrAPIError(errorKind(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	return decoded, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, token string, out any) (bool, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	traceID := trace.SpanContextFromContext(ctx).TraceID().String()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("api: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.String("trace_id", traceID),
			zap.Error(err),
		)
		return false, &domain.ErrNetwork{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := readHTTPError(resp)
		c.logger.Debug("api: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.String("trace_id", traceID),
			zap.Int("status", resp.StatusCode),
			zap.String("message", httpErr.Message),
		)
		return false, httpErr
	}

	c.logger.Debug("api: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.String("trace_id", traceID),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode == http.StatusNoContent || !isJSON(resp.Header) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}

	if out == nil {
		out = new(json.RawMessage)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, &domain.ErrUnexpectedResponse{Operation: method + " " + path, Err: err}
	}
	return true, nil
}

// readHTTPError turns a non-2xx response into an ErrHTTP whose message
// comes from the JSON "error" field, else the raw body text.
func readHTTPError(resp *http.Response) *domain.ErrHTTP {
	httpErr := &domain.ErrHTTP{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("Request failed (%d)", resp.StatusCode),
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return httpErr
	}

	if isJSON(resp.Header) {
		var data struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &data) == nil && data.Error != "" {
			httpErr.Message = data.Error
		}
		return httpErr
	}

	if len(raw) > 0 {
		httpErr.Message = string(raw)
	}
	return httpErr
}

func isJSON(h http.Header) bool {
	return strings.Contains(h.Get("Content-Type"), "application/json")
}

// isRetryable allows another attempt for transport failures and 5xx.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr *domain.ErrNetwork
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr *domain.ErrHTTP
	return errors.As(err, &httpErr) && httpErr.Status >= http.StatusInternalServerError
}

func errorKind(err error) string {
	var netErr *domain.ErrNetwork
	var httpErr *domain.ErrHTTP
	switch {
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &httpErr):
		return "http"
	default:
		return "other"
	}
}
