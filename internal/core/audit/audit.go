package audit

import (
	"context"
	"encoding/json"
	"time"
)

// ExchangeLog is one request/response exchange with the tax authority.
type ExchangeLog struct {
	ID              int64
	CorrelationID   string
	Operation       string
	DocumentNumber  string
	RequestMethod   string
	RequestURL      string
	RequestHeaders  map[string]string
	RequestBody     json.RawMessage
	ResponseStatus  *int
	ResponseHeaders map[string]string
	ResponseBody    json.RawMessage
	DurationMs      int64
	ErrorMessage    string
	CreatedAt       time.Time
}

// Repository stores exchange logs.
type Repository interface {
	Save(ctx context.Context, log ExchangeLog) error
	FindByCorrelationID(ctx context.Context, correlationID string) ([]ExchangeLog, error)
}
