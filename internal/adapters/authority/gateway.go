package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"3tcapital/ms_emision_dian/internal/core/company"
	"3tcapital/ms_emision_dian/internal/core/document"
	"3tcapital/ms_emision_dian/internal/core/submission"
	ctxutil "3tcapital/ms_emision_dian/internal/infrastructure/context"
	"3tcapital/ms_emision_dian/internal/infrastructure/metrics"
)

// DefaultTimeout bounds a submission when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// HTTPClient allows using both standard and traced HTTP clients.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Gateway posts canonical documents to the e-invoicing API.
type Gateway struct {
	baseURL string
	client  HTTPClient
	timeout time.Duration
	log     *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	slots   *semaphore.Weighted
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithMaxInFlight caps concurrent submissions. Waiting for a slot counts
// against the submission timeout. n <= 0 leaves submissions unbounded.
func WithMaxInFlight(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.slots = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewGateway creates a gateway rooted at baseURL. A nil metrics is allowed.
func NewGateway(baseURL string, client HTTPClient, timeout time.Duration, log *slog.Logger, m *metrics.Metrics, opts ...Option) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: timeout,
		log:     log,
		metrics: m,
		tracer:  otel.Tracer("ms_emision_dian/authority"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Endpoint returns the submission URL for kind, with the test set appended
// when the company is still in habilitación.
func (g *Gateway) Endpoint(kind document.Kind, creds company.Credentials) string {
	url := g.baseURL + "/" + kind.Endpoint()
	if testSet := strings.TrimSpace(creds.TestSetID); testSet != "" {
		url += "/" + testSet
	}
	return url
}

// Submit sends doc once. The caller's cancellation does not abort an
// in-flight submission; only the gateway timeout does.
func (g *Gateway) Submit(ctx context.Context, kind document.Kind, doc document.TaxDocument, creds company.Credentials) (submission.AuthorityResponse, error) {
	ctx, span := g.tracer.Start(ctx, "authority.submit", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("document.kind", kind.String()),
		attribute.String("document.number", doc.DocumentNumber()),
		attribute.Bool("authority.test_set", creds.TestSetID != ""),
	)

	if strings.TrimSpace(creds.APIToken) == "" {
		err := submission.NewValidationError("company has no authority api token")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	body, err := json.Marshal(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "marshal failed")
		return nil, fmt.Errorf("marshal %s: %w", kind, err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()
	ctx = ctxutil.WithExchange(ctx, ctxutil.Exchange{Operation: kind.Endpoint(), DocumentNumber: doc.DocumentNumber()})

	if g.slots != nil {
		if err := g.slots.Acquire(ctx, 1); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "no free slot")
			g.log.ErrorContext(ctx, "No free authority slot",
				"kind", kind.String(),
				"document_number", doc.DocumentNumber())
			return nil, &submission.GatewayError{
				Message: fmt.Sprintf("authority request timed out after %s waiting for a free slot", g.timeout),
				Cause:   err,
			}
		}
		defer g.slots.Release(1)
	}

	url := g.Endpoint(kind, creds)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request build failed")
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.APIToken)

	g.log.InfoContext(ctx, "Submitting document to authority",
		"kind", kind.String(),
		"document_number", doc.DocumentNumber(),
		"url", url)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.metrics.ObserveAuthority(kind.String(), "error", start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		msg := "authority request failed"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("authority request timed out after %s", g.timeout)
		}
		g.log.ErrorContext(ctx, "Authority request failed",
			"kind", kind.String(),
			"document_number", doc.DocumentNumber(),
			"error", err)
		return nil, &submission.GatewayError{Message: msg, Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	g.metrics.ObserveAuthority(kind.String(), strconv.Itoa(resp.StatusCode), start)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, &submission.GatewayError{StatusCode: resp.StatusCode, Message: "read authority response", Cause: err}
	}

	decoded, err := decodeResponse(resp.StatusCode, respBody, kind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unusable reply")
		g.log.ErrorContext(ctx, "Authority reply could not be decoded",
			"kind", kind.String(),
			"document_number", doc.DocumentNumber(),
			"status", resp.StatusCode,
			"error", err)
		return nil, err
	}

	g.log.InfoContext(ctx, "Authority replied",
		"kind", kind.String(),
		"document_number", doc.DocumentNumber(),
		"status", resp.StatusCode,
		"duration", time.Since(start))
	return decoded, nil
}
