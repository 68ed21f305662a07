package context

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// CorrelationHeader carries the correlation id on inbound and outbound requests.
const CorrelationHeader = "X-Correlation-ID"

// maxCorrelationIDLen bounds ids accepted from callers; longer ones are replaced.
const maxCorrelationIDLen = 128

type correlationKey struct{}

func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationKey{}, correlationID)
}

// GetCorrelationID returns the id stored by WithCorrelationID, or "".
func GetCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// ResolveCorrelationID picks the first usable candidate, or mints a uuid.
// Candidates that are blank, too long, or carry non-printable bytes are skipped.
func ResolveCorrelationID(candidates ...string) string {
	for _, c := range candidates {
		if id := strings.TrimSpace(c); usableCorrelationID(id) {
			return id
		}
	}
	return uuid.NewString()
}

func usableCorrelationID(id string) bool {
	if id == "" || len(id) > maxCorrelationIDLen {
		return false
	}
	return strings.IndexFunc(id, func(r rune) bool { return r < 0x21 || r > 0x7e }) < 0
}

type exchangeKey struct{}

// Exchange labels one outbound call for the audit trail.
type Exchange struct {
	Operation      string
	DocumentNumber string
}

// WithExchange attaches the labels of the next outbound call to ctx.
func WithExchange(ctx context.Context, ex Exchange) context.Context {
	return context.WithValue(ctx, exchangeKey{}, ex)
}

// GetExchange returns the labels set by WithExchange, if any.
func GetExchange(ctx context.Context) (Exchange, bool) {
	ex, ok := ctx.Value(exchangeKey{}).(Exchange)
	return ex, ok
}
