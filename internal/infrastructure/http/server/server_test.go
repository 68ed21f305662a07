package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"3tcapital/ms_emision_dian/internal/infrastructure/config"
	ctxutil "3tcapital/ms_emision_dian/internal/infrastructure/context"
	"3tcapital/ms_emision_dian/internal/testutil"

	"github.com/go-chi/chi/v5"
)

func testConfig() config.AppConfig {
	return config.AppConfig{
		HTTP: config.HTTPSettings{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    70 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: time.Second,
		},
		Metrics: config.MetricsSettings{Enabled: true, Path: "/metrics"},
	}
}

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	srv, err := New(opts)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_RequiresLoggerAndHealth(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{"no logger", Options{Config: testConfig(), HealthHandler: okHandler("ok")}, "logger is required"},
		{"no health", Options{Config: testConfig(), Logger: testutil.NewNullLogger()}, "health handler is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("expected error %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNew_Address(t *testing.T) {
	srv := newTestServer(t, Options{Config: testConfig(), Logger: testutil.NewNullLogger(), HealthHandler: okHandler("ok")})

	if srv.httpServer.Addr != ":8080" {
		t.Errorf("expected address ':8080', got %q", srv.httpServer.Addr)
	}
	if srv.httpServer.WriteTimeout != 70*time.Second {
		t.Errorf("expected write timeout 70s, got %v", srv.httpServer.WriteTimeout)
	}
}

func TestServer_Routes(t *testing.T) {
	var typeID string
	documents := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		typeID = chi.URLParam(r, "typeDocumentId")
		w.WriteHeader(http.StatusOK)
	})

	srv := newTestServer(t, Options{
		Config:           testConfig(),
		Logger:           testutil.NewNullLogger(),
		HealthHandler:    okHandler("UP"),
		DocumentsHandler: documents,
		SOAPHandler:      okHandler("<soap/>"),
		MetricsHandler:   okHandler("# metrics"),
	})

	tests := []struct {
		method string
		path   string
		status int
		body   string
	}{
		{http.MethodGet, "/health", http.StatusOK, "UP"},
		{http.MethodGet, "/metrics", http.StatusOK, "# metrics"},
		{http.MethodPost, "/soap/emision", http.StatusOK, "<soap/>"},
		{http.MethodPost, "/api/v1/documentos/11", http.StatusOK, ""},
		{http.MethodGet, "/api/v1/documentos/11", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/unknown", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}")))

			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Errorf("expected body %q, got %q", tt.body, w.Body.String())
			}
			if w.Header().Get(ctxutil.CorrelationHeader) == "" {
				t.Error("expected correlation header on response")
			}
		})
	}
	if typeID != "11" {
		t.Errorf("expected type document id '11', got %q", typeID)
	}
}

func TestServer_MissingSubmissionHandlers(t *testing.T) {
	srv := newTestServer(t, Options{Config: testConfig(), Logger: testutil.NewNullLogger(), HealthHandler: okHandler("ok")})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/documentos/1", nil))

	response := testutil.ErrorBody(t, w, http.StatusServiceUnavailable)
	if response["message"] != "Servicio no disponible" {
		t.Errorf("expected message 'Servicio no disponible', got %v", response["message"])
	}
}

func TestServer_MetricsRouteNeedsHandler(t *testing.T) {
	srv := newTestServer(t, Options{Config: testConfig(), Logger: testutil.NewNullLogger(), HealthHandler: okHandler("ok")})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.Port = 0
	srv := newTestServer(t, Options{Config: cfg, Logger: testutil.NewNullLogger(), HealthHandler: okHandler("ok")})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}
