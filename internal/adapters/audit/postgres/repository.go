package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"3tcapital/ms_emision_dian/internal/core/audit"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the part of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository stores authority exchanges in authority_audit_log.
type Repository struct {
	db  DB
	log *slog.Logger
}

// NewRepository creates a PostgreSQL audit repository. log may be nil.
func NewRepository(db DB, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

var _ audit.Repository = (*Repository)(nil)

const insertExchange = `
	INSERT INTO authority_audit_log (
		correlation_id, operation, document_number, request_method, request_url,
		request_headers, request_body, response_status, response_headers,
		response_body, duration_ms, error_message
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Save persists one exchange.
func (r *Repository) Save(ctx context.Context, entry audit.ExchangeLog) error {
	requestHeaders, err := json.Marshal(entry.RequestHeaders)
	if err != nil {
		return fmt.Errorf("marshal request headers: %w", err)
	}
	responseHeaders, err := json.Marshal(entry.ResponseHeaders)
	if err != nil {
		return fmt.Errorf("marshal response headers: %w", err)
	}

	_, err = r.db.Exec(ctx, insertExchange,
		entry.CorrelationID,
		entry.Operation,
		nullable(entry.DocumentNumber),
		entry.RequestMethod,
		entry.RequestURL,
		requestHeaders,
		jsonBody(entry.RequestBody),
		entry.ResponseStatus,
		responseHeaders,
		jsonBody(entry.ResponseBody),
		entry.DurationMs,
		nullable(entry.ErrorMessage),
	)
	if err != nil {
		if r.log != nil {
			r.log.ErrorContext(ctx, "failed to insert authority audit log",
				"operation", entry.Operation,
				"document_number", entry.DocumentNumber,
				"error", err,
			)
		}
		return fmt.Errorf("insert audit log: %w", err)
	}

	if r.log != nil {
		r.log.DebugContext(ctx, "authority audit log saved",
			"operation", entry.Operation,
			"document_number", entry.DocumentNumber,
			"response_status", entry.ResponseStatus,
			"duration_ms", entry.DurationMs,
		)
	}
	return nil
}

const selectByCorrelation = `
	SELECT id, correlation_id, operation, COALESCE(document_number, ''), request_method,
	       request_url, request_headers, request_body, response_status, response_headers,
	       response_body, duration_ms, COALESCE(error_message, ''), created_at
	FROM authority_audit_log
	WHERE correlation_id = $1
	ORDER BY created_at DESC`

// FindByCorrelationID returns every exchange recorded for a correlation id, newest first.
func (r *Repository) FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.ExchangeLog, error) {
	rows, err := r.db.Query(ctx, selectByCorrelation, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	logs := []audit.ExchangeLog{}
	for rows.Next() {
		var (
			entry                           audit.ExchangeLog
			requestHeaders, responseHeaders []byte
			requestBody, responseBody       []byte
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.CorrelationID,
			&entry.Operation,
			&entry.DocumentNumber,
			&entry.RequestMethod,
			&entry.RequestURL,
			&requestHeaders,
			&requestBody,
			&entry.ResponseStatus,
			&responseHeaders,
			&responseBody,
			&entry.DurationMs,
			&entry.ErrorMessage,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		if err := unmarshalHeaders(requestHeaders, &entry.RequestHeaders); err != nil {
			return nil, fmt.Errorf("unmarshal request headers: %w", err)
		}
		if err := unmarshalHeaders(responseHeaders, &entry.ResponseHeaders); err != nil {
			return nil, fmt.Errorf("unmarshal response headers: %w", err)
		}
		entry.RequestBody = requestBody
		entry.ResponseBody = responseBody
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}
	return logs, nil
}

func unmarshalHeaders(raw []byte, dst *map[string]string) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// jsonBody stores non-JSON payloads (truncated or plain text) as a JSON string.
func jsonBody(body json.RawMessage) any {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return []byte(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return quoted
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
