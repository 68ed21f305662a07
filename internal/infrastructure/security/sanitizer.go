package security

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

const redactedValue = "[REDACTED]"

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
}

// sensitiveFragments redact any field whose lowercased name contains them.
var sensitiveFragments = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"api_key",
	"apikey",
	"private_key",
	"credential",
	"certificate",
}

// bulkyFields hold base64 documents; audit rows keep only their size.
var bulkyFields = map[string]bool{
	"attacheddocument": true,
	"xmlbase64bytes":   true,
	"zipbase64bytes":   true,
	"documento":        true,
	"document":         true,
}

// SanitizeHeaders returns a copy of headers with credentials redacted.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
			continue
		}
		sanitized[key] = strings.Join(values, ", ")
	}
	return sanitized
}

// SanitizeBody prepares a request or response body for the audit trail:
// gzip is inflated, secrets are redacted, signed documents are reduced to
// their size and anything over maxSize is truncated.
func SanitizeBody(body []byte, maxSize int) json.RawMessage {
	if len(body) == 0 {
		return nil
	}

	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		decompressed, err := decompressGzip(body)
		if err != nil {
			return wrapBinary(body, "gzip-compressed (decompression failed)")
		}
		body = decompressed
	}

	if !utf8.Valid(body) {
		return wrapBinary(body, "binary (non-UTF8)")
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return marshalOrNil(map[string]any{"_raw": truncate(string(body), maxSize), "_format": "text"})
	}

	result, err := json.Marshal(sanitizeValue(data))
	if err != nil {
		return marshalOrNil(map[string]any{"_raw": truncate(string(body), maxSize), "_format": "text"})
	}
	if maxSize > 0 && len(result) > maxSize {
		return marshalOrNil(map[string]any{
			"_truncated": true,
			"_size":      len(result),
			"_preview":   string(result[:maxSize]),
		})
	}
	return result
}

func decompressGzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func wrapBinary(data []byte, format string) json.RawMessage {
	return marshalOrNil(map[string]any{
		"_binary": true,
		"_format": format,
		"_size":   len(data),
		"_base64": base64.StdEncoding.EncodeToString(data),
	})
}

func marshalOrNil(v any) json.RawMessage {
	out, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return out
}

func truncate(s string, maxSize int) string {
	if maxSize > 0 && len(s) > maxSize {
		return s[:maxSize]
	}
	return s
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return sanitizeMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return val
	}
}

func sanitizeMap(m map[string]any) map[string]any {
	sanitized := make(map[string]any, len(m))
	for key, value := range m {
		lowerKey := strings.ToLower(key)
		switch {
		case isSensitive(lowerKey):
			sanitized[key] = redactedValue
		case bulkyFields[lowerKey]:
			if s, ok := value.(string); ok && s != "" {
				sanitized[key] = fmt.Sprintf("[OMITTED %d bytes]", len(s))
				continue
			}
			sanitized[key] = sanitizeValue(value)
		default:
			sanitized[key] = sanitizeValue(value)
		}
	}
	return sanitized
}

func isSensitive(lowerKey string) bool {
	for _, fragment := range sensitiveFragments {
		if strings.Contains(lowerKey, fragment) {
			return true
		}
	}
	return false
}

// SanitizeURL redacts sensitive query parameters. The path is kept as-is.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	query := u.Query()
	changed := false
	for param := range query {
		if isSensitive(strings.ToLower(param)) || strings.EqualFold(param, "key") {
			query.Set(param, redactedValue)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = query.Encode()
	return u.String()
}
