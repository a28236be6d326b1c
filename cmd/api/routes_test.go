package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"consult-signaling/internal/audit"
	"consult-signaling/internal/auth"
	"consult-signaling/internal/calls"
	"consult-signaling/internal/config"
	"consult-signaling/internal/gateway/ws"
	"consult-signaling/internal/httpapi"
	"consult-signaling/internal/reporting"
	"consult-signaling/internal/signaling"

	"github.com/gin-gonic/gin"
)

func newRouter(t *testing.T, env string) (*gin.Engine, *auth.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m, err := auth.NewManager(config.AuthConfig{JWTSecret: "secret"})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	reg := calls.NewRegistry()
	hub := signaling.NewHub(nil)
	svc := signaling.NewService(reg, hub, signaling.Options{})

	r := gin.New()
	registerRoutes(r, routeDeps{
		cfg:  config.Config{App: config.AppConfig{Env: env, NodeID: "node-1"}},
		auth: m,
		ws:   ws.NewHandler(svc, ws.Options{Resolver: m}),
		handlers: httpapi.Handlers{
			Auth:    m,
			Calls:   reg,
			Hub:     hub,
			Reports: reporting.NewService(audit.NewMemoryRepo()),
		},
	})
	return r, m
}

func bearer(t *testing.T, m *auth.Manager, role string) string {
	t.Helper()
	tok, err := m.IssueAccess(time.Now(), auth.Identity{ID: "u-" + role, Role: role})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return "Bearer " + tok
}

func serve(r http.Handler, method, path, authz, body string) int {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRoutes_DevTokenOnlyInDevEnvironments(t *testing.T) {
	body := `{"user_id":"u1","role":"patient"}`

	r, _ := newRouter(t, "local")
	if code := serve(r, http.MethodPost, "/v1/auth/dev-token", "", body); code != http.StatusOK {
		t.Fatalf("local: expected 200, got %d", code)
	}

	r, _ = newRouter(t, "production")
	if code := serve(r, http.MethodPost, "/v1/auth/dev-token", "", body); code != http.StatusNotFound {
		t.Fatalf("production: expected 404, got %d", code)
	}
}

func TestRoutes_AuthAndAdminGuards(t *testing.T) {
	r, m := newRouter(t, "staging")

	if code := serve(r, http.MethodGet, "/healthz", "", ""); code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", code)
	}
	if code := serve(r, http.MethodGet, "/v1/me", "", ""); code != http.StatusUnauthorized {
		t.Fatalf("me without token: expected 401, got %d", code)
	}
	if code := serve(r, http.MethodGet, "/v1/users/x/presence", bearer(t, m, "patient"), ""); code != http.StatusOK {
		t.Fatalf("presence: expected 200, got %d", code)
	}
	if code := serve(r, http.MethodGet, "/v1/admin/calls", bearer(t, m, "doctor"), ""); code != http.StatusForbidden {
		t.Fatalf("admin as doctor: expected 403, got %d", code)
	}
	if code := serve(r, http.MethodGet, "/v1/admin/connections", bearer(t, m, "admin"), ""); code != http.StatusOK {
		t.Fatalf("admin connections: expected 200, got %d", code)
	}
	if code := serve(r, http.MethodGet, "/v1/admin/reports/calls", bearer(t, m, "admin"), ""); code != http.StatusOK {
		t.Fatalf("admin report: expected 200, got %d", code)
	}
}
