package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"3tcapital/ms_emision_dian/internal/core/audit"
	ctxutil "3tcapital/ms_emision_dian/internal/infrastructure/context"
	"3tcapital/ms_emision_dian/internal/infrastructure/security"
)

const auditSaveTimeout = 10 * time.Second

// TracedClient logs every outbound exchange with the authority and persists a
// sanitized copy of it in the audit trail.
type TracedClient struct {
	client       *http.Client
	log          *slog.Logger
	auditRepo    audit.Repository
	auditEnabled bool
	logReqBody   bool
	logRespBody  bool
	maxBodySize  int
}

// TracedClientConfig holds configuration for the traced HTTP client.
type TracedClientConfig struct {
	Timeout         time.Duration
	AuditEnabled    bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
	MaxConnsPerHost int
}

// NewTracedClient creates a traced client with its own pooled transport.
// A nil auditRepo disables persistence.
func NewTracedClient(cfg TracedClientConfig, log *slog.Logger, auditRepo audit.Repository) *TracedClient {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 102400
	}
	return &TracedClient{
		client:       NewPooledClient(PoolSettings{Timeout: cfg.Timeout, MaxConnsPerHost: cfg.MaxConnsPerHost}),
		log:          log,
		auditRepo:    auditRepo,
		auditEnabled: cfg.AuditEnabled,
		logReqBody:   cfg.LogRequestBody,
		logRespBody:  cfg.LogResponseBody,
		maxBodySize:  cfg.MaxBodySize,
	}
}

// Do executes req, logging both sides and auditing the exchange asynchronously.
func (c *TracedClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	correlationID := ctxutil.GetCorrelationID(ctx)
	exchange := c.exchange(req)
	start := time.Now()

	if correlationID != "" {
		req.Header.Set(ctxutil.CorrelationHeader, correlationID)
	}

	var requestBody []byte
	if req.Body != nil {
		var err error
		requestBody, err = io.ReadAll(req.Body)
		if err != nil {
			c.log.ErrorContext(ctx, "Failed to read request body for tracing", "error", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(requestBody))
	}

	c.logRequest(ctx, exchange, req, requestBody)

	resp, err := c.client.Do(req)
	duration := time.Since(start)

	var responseBody []byte
	if resp != nil && resp.Body != nil {
		var readErr error
		responseBody, readErr = io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(&replayBody{data: bytes.NewReader(responseBody), err: readErr})
		if readErr != nil {
			c.log.ErrorContext(ctx, "Failed to read authority response body",
				"operation", exchange.Operation,
				"document_number", exchange.DocumentNumber,
				"bytes_read", len(responseBody),
				"error", readErr)
		}
	}

	c.logResponse(ctx, exchange, req, resp, err, duration, responseBody)

	if c.auditEnabled && c.auditRepo != nil {
		entry := c.auditEntry(ctxutil.ResolveCorrelationID(correlationID), exchange, req, resp, err, duration, requestBody, responseBody)
		go c.persist(entry)
	}

	return resp, err
}

func (c *TracedClient) logRequest(ctx context.Context, ex ctxutil.Exchange, req *http.Request, body []byte) {
	attrs := []any{
		"operation", ex.Operation,
		"document_number", ex.DocumentNumber,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
	}
	if c.logReqBody && len(body) > 0 {
		attrs = append(attrs, "request_body", string(security.SanitizeBody(body, c.maxBodySize)))
	}
	c.log.InfoContext(ctx, "authority_request", attrs...)
}

func (c *TracedClient) logResponse(ctx context.Context, ex ctxutil.Exchange, req *http.Request, resp *http.Response, err error, duration time.Duration, body []byte) {
	attrs := []any{
		"operation", ex.Operation,
		"document_number", ex.DocumentNumber,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		attrs = append(attrs, "error", err.Error())
		c.log.ErrorContext(ctx, "authority_request_failed", attrs...)
		return
	}

	attrs = append(attrs, "status", resp.StatusCode, "response_size_bytes", len(body))
	if c.logRespBody && len(body) > 0 {
		attrs = append(attrs, "response_body", string(security.SanitizeBody(body, c.maxBodySize)))
	}

	switch {
	case resp.StatusCode >= 500:
		c.log.ErrorContext(ctx, "authority_response", attrs...)
	case resp.StatusCode >= 400:
		c.log.WarnContext(ctx, "authority_response", attrs...)
	default:
		c.log.InfoContext(ctx, "authority_response", attrs...)
	}
}

func (c *TracedClient) auditEntry(correlationID string, ex ctxutil.Exchange, req *http.Request, resp *http.Response, err error, duration time.Duration, requestBody, responseBody []byte) audit.ExchangeLog {
	entry := audit.ExchangeLog{
		CorrelationID:  correlationID,
		Operation:      ex.Operation,
		DocumentNumber: ex.DocumentNumber,
		RequestMethod:  req.Method,
		RequestURL:     security.SanitizeURL(req.URL.String()),
		RequestHeaders: security.SanitizeHeaders(req.Header),
		RequestBody:    security.SanitizeBody(requestBody, c.maxBodySize),
		DurationMs:     duration.Milliseconds(),
	}
	if resp != nil {
		status := resp.StatusCode
		entry.ResponseStatus = &status
		entry.ResponseHeaders = security.SanitizeHeaders(resp.Header)
		entry.ResponseBody = security.SanitizeBody(responseBody, c.maxBodySize)
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}
	return entry
}

// persist runs detached from the request so the row survives the caller.
func (c *TracedClient) persist(entry audit.ExchangeLog) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Panic in audit log persistence", "panic", r, "correlation_id", entry.CorrelationID)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), auditSaveTimeout)
	defer cancel()

	if err := c.auditRepo.Save(ctx, entry); err != nil {
		c.log.Error("Failed to persist audit log",
			"error", err,
			"correlation_id", entry.CorrelationID,
			"operation", entry.Operation,
			"document_number", entry.DocumentNumber)
	}
}

// exchange returns the labels set by the caller, or the last path segment.
func (c *TracedClient) exchange(req *http.Request) ctxutil.Exchange {
	ex, _ := ctxutil.GetExchange(req.Context())
	if ex.Operation == "" {
		parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
		ex.Operation = req.Method
		if last := parts[len(parts)-1]; last != "" {
			ex.Operation = last
		}
	}
	return ex
}

// replayBody serves the bytes already read from a response and then the error
// that cut the original read short, if any.
type replayBody struct {
	data *bytes.Reader
	err  error
}

func (b *replayBody) Read(p []byte) (int, error) {
	n, err := b.data.Read(p)
	if err == io.EOF && b.err != nil {
		return n, b.err
	}
	return n, err
}
