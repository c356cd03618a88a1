package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/a920604a/to-do-list/internal/adapters/repository"
	"github.com/a920604a/to-do-list/internal/infrastructure/config"
	"github.com/a920604a/to-do-list/internal/infrastructure/logger"
	"github.com/a920604a/to-do-list/internal/ports"
)

func testConfig(t *testing.T, environment string) *config.Config {
	t.Helper()
	return &config.Config{
		App:    config.AppConfig{Name: "todo", Version: "test", Environment: environment, Timezone: "UTC"},
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, RequestTimeout: 5 * time.Second},
		Store: config.StoreConfig{
			Driver:    repository.BackendLocal,
			LocalPath: t.TempDir() + "/todos.json",
		},
		JWT:      config.JWTConfig{Secret: "test-secret", ExpiresIn: time.Hour, Issuer: "todo-test"},
		Security: config.SecurityConfig{CORSAllowedOrigins: "*"},
		Metrics:  config.MetricsConfig{Enabled: true},
		Board:    config.BoardConfig{Tags: []string{"work", "other"}, FallbackTag: "other", PageSize: 5},
	}
}

func newTestServer(t *testing.T, environment string) *Server {
	t.Helper()
	cfg := testConfig(t, environment)
	log := logger.NewNop()
	registry := prometheus.NewRegistry()

	backend, err := OpenBackend(cfg, time.UTC, registry, log)
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	srv, err := New(cfg, backend, registry, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func serve(srv *Server, method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, "development")

	for _, path := range []string{"/health", "/health/detailed", "/ready"} {
		if rec := serve(srv, http.MethodGet, path, "", ""); rec.Code != http.StatusOK {
			t.Errorf("%s: status %d, body %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestAuthenticatedTaskFlow(t *testing.T) {
	srv := newTestServer(t, "development")

	if rec := serve(srv, http.MethodGet, "/api/v1/tasks", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", rec.Code)
	}
	if rec := serve(srv, http.MethodGet, "/api/v1/tasks", "", "not-a-jwt"); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status %d, want 401", rec.Code)
	}

	rec := serve(srv, http.MethodPost, "/api/v1/auth/token", `{"owner_id":"alice"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("issue token: status %d, body %s", rec.Code, rec.Body.String())
	}
	var token ports.TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &token); err != nil {
		t.Fatal(err)
	}

	rec = serve(srv, http.MethodPost, "/api/v1/tasks", `{"title":"Ship it","tag":"work"}`, token.AccessToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = serve(srv, http.MethodGet, "/api/v1/tasks", "", token.AccessToken)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Ship it") {
		t.Errorf("list: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = serve(srv, http.MethodGet, "/metrics", "", "")
	if !strings.Contains(rec.Body.String(), `todo_store_operations_total{backend="local",op="create",result="ok"} 1`) {
		t.Errorf("store metrics missing from /metrics output")
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Errorf("http metrics missing from /metrics output")
	}
}

func TestTokenEndpointHiddenInProduction(t *testing.T) {
	srv := newTestServer(t, "production")

	rec := serve(srv, http.MethodPost, "/api/v1/auth/token", `{"owner_id":"alice"}`, "")
	if rec.Code == http.StatusOK {
		t.Errorf("token endpoint should not be served in production")
	}
}

func TestOpenBackendUnknownDriver(t *testing.T) {
	cfg := testConfig(t, "development")
	cfg.Store.Driver = "sqlite"

	if _, err := OpenBackend(cfg, time.UTC, prometheus.NewRegistry(), logger.NewNop()); err == nil {
		t.Error("expected an error for an unknown driver")
	}
}
