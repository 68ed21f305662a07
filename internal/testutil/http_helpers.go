package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// DecodeJSON asserts the recorder holds status and a JSON body, then decodes
// the body into v.
func DecodeJSON(t testing.TB, w *httptest.ResponseRecorder, status int, v any) {
	t.Helper()
	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
	require.Contains(t, w.Header().Get("Content-Type"), "application/json")
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

// ErrorBody decodes the {message, errors} body written for failed requests.
func ErrorBody(t testing.TB, w *httptest.ResponseRecorder, status int) map[string]any {
	t.Helper()
	var body map[string]any
	DecodeJSON(t, w, status, &body)
	return body
}

// JSONRequest builds a request whose body is payload encoded as JSON.
// Strings and byte slices are sent as-is so tests can post malformed input.
func JSONRequest(t testing.TB, method, path string, payload any) *http.Request {
	t.Helper()
	var body io.Reader = http.NoBody
	switch p := payload.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(p)
	case []byte:
		body = bytes.NewReader(p)
	default:
		raw, err := json.Marshal(p)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}
