package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewPooledClient(t *testing.T) {
	tests := []struct {
		name        string
		settings    PoolSettings
		wantTimeout time.Duration
		wantConns   int
	}{
		{"defaults", PoolSettings{}, DefaultClientTimeout, DefaultMaxConnsPerHost},
		{"negative values use defaults", PoolSettings{Timeout: -time.Second, MaxConnsPerHost: -1}, DefaultClientTimeout, DefaultMaxConnsPerHost},
		{"custom", PoolSettings{Timeout: 5 * time.Second, MaxConnsPerHost: 8}, 5 * time.Second, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewPooledClient(tt.settings)
			if client.Timeout != tt.wantTimeout {
				t.Errorf("expected timeout %v, got %v", tt.wantTimeout, client.Timeout)
			}

			transport, ok := client.Transport.(*http.Transport)
			if !ok {
				t.Fatalf("expected *http.Transport, got %T", client.Transport)
			}
			if transport.MaxConnsPerHost != tt.wantConns {
				t.Errorf("expected MaxConnsPerHost %d, got %d", tt.wantConns, transport.MaxConnsPerHost)
			}
			if transport.MaxIdleConnsPerHost != tt.wantConns {
				t.Errorf("expected MaxIdleConnsPerHost %d, got %d", tt.wantConns, transport.MaxIdleConnsPerHost)
			}
			if transport.MaxIdleConns != 2*tt.wantConns {
				t.Errorf("expected MaxIdleConns %d, got %d", 2*tt.wantConns, transport.MaxIdleConns)
			}
			if transport.ResponseHeaderTimeout != tt.wantTimeout {
				t.Errorf("expected ResponseHeaderTimeout %v, got %v", tt.wantTimeout, transport.ResponseHeaderTimeout)
			}
		})
	}
}

func TestNewPooledClient_DoesNotFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/invoice" {
			http.Redirect(w, r, "/elsewhere", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := NewPooledClient(PoolSettings{}).Post(server.URL+"/invoice", "application/json", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected the redirect itself (302), got %d", resp.StatusCode)
	}
}
