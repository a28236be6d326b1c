package config

import (
	"testing"
	"time"
)

func validLocal() Config {
	return Config{
		App:  AppConfig{Env: "local", Port: 8080},
		Auth: AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_AppliesSignalingDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Signaling.RequestTimeout != 60*time.Second {
		t.Fatalf("expected 60s request timeout, got %v", c.Signaling.RequestTimeout)
	}
	if c.Signaling.MaxConnectionsPerUser != 5 || c.Signaling.SendBuffer != 64 {
		t.Fatalf("unexpected defaults: %+v", c.Signaling)
	}
	if c.PostgresEnabled() || c.RedisEnabled() {
		t.Fatalf("expected optional backends disabled")
	}
	if !c.DevToolsEnabled() {
		t.Fatalf("expected dev tools in local env")
	}
}

func TestValidate_ProductionRequiresSSLModeAndOrigins(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "production", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "consult"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret", JWTIssuer: "iss", JWTAudience: "aud"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE and origins")
	}

	c.DB.SSLMode = "require"
	c.Signaling.AllowedOrigins = []string{"https://clinic.example"}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DevToolsEnabled() {
		t.Fatalf("dev tools must be off in production")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validLocal()
	c.DB = DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "consult"}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_TURNRequiresCredentials(t *testing.T) {
	c := validLocal()
	c.ICE.TURNURLs = []string{"turn:turn.example:3478"}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for TURN without credentials")
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SIGNAL_REQUEST_TIMEOUT", "45s")
	t.Setenv("WS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ICE_STUN_URLS", "stun:stun.l.google.com:19302")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.App.Port != 9090 || c.Signaling.RequestTimeout != 45*time.Second {
		t.Fatalf("unexpected config: %+v", c)
	}
	if len(c.Signaling.AllowedOrigins) != 2 || c.Signaling.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", c.Signaling.AllowedOrigins)
	}
	if len(c.ICE.STUNURLs) != 1 {
		t.Fatalf("unexpected stun urls: %v", c.ICE.STUNURLs)
	}
}

func TestLoad_ReportsBadDuration(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SIGNAL_REQUEST_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}
