package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, t.TempDir(), "empty.yaml", ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("read timeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("storage type = %q", cfg.Storage.Type)
	}
	if cfg.Auth.Type != "none" {
		t.Errorf("auth type = %q", cfg.Auth.Type)
	}
	if !cfg.Explorer.Enabled || cfg.Explorer.AllowExecute {
		t.Errorf("explorer defaults = %+v", cfg.Explorer)
	}
	if !cfg.Observability.Metrics.Enabled || cfg.Observability.Metrics.Path != "/metrics" {
		t.Errorf("metrics defaults = %+v", cfg.Observability.Metrics)
	}
	if cfg.MCP.Transport != "stdio" {
		t.Errorf("mcp transport = %q", cfg.MCP.Transport)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
server:
  port: 9090
scan:
  include: "^users\\."
explorer:
  allow_execute: true
storage:
  type: postgres
  postgres:
    dsn: postgres://test@localhost/modgate
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Scan.Include != `^users\.` {
		t.Errorf("include = %q", cfg.Scan.Include)
	}
	if !cfg.Explorer.AllowExecute {
		t.Error("allow_execute not applied")
	}
	if cfg.Storage.Type != "postgres" || cfg.Storage.Postgres.DSN == "" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.WriteTimeout != 120*time.Second {
		t.Errorf("write timeout = %v", cfg.Server.WriteTimeout)
	}
	if cfg.Storage.Postgres.MaxConns != 25 {
		t.Errorf("max conns = %d", cfg.Storage.Postgres.MaxConns)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MODGATE_PORT", "7070")
	t.Setenv("MODGATE_SCAN_EXCLUDE", `^internal\.`)
	t.Setenv("MODGATE_AUTH_TYPE", "apikey")
	t.Setenv("MODGATE_API_KEYS", `[{"key":"sk-test","subject":"ci","tenant_id":"acme"}]`)
	t.Setenv("MODGATE_EXPLORER_EXECUTE", "true")

	cfg, err := Load(writeFile(t, t.TempDir(), "empty.yaml", ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Scan.Exclude != `^internal\.` {
		t.Errorf("exclude = %q", cfg.Scan.Exclude)
	}
	if cfg.Auth.Type != "apikey" || len(cfg.Auth.APIKeys) != 1 {
		t.Fatalf("auth = %+v", cfg.Auth)
	}
	if cfg.Auth.APIKeys[0].Subject != "ci" || cfg.Auth.APIKeys[0].TenantID != "acme" {
		t.Errorf("api key entry = %+v", cfg.Auth.APIKeys[0])
	}
	if !cfg.Explorer.AllowExecute {
		t.Error("explorer execute not applied")
	}
}

func TestConfigFileDiscoveryViaEnv(t *testing.T) {
	path := writeFile(t, t.TempDir(), "discovered.yaml", "server:\n  port: 6060\n")
	t.Setenv("MODGATE_CONFIG", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 6060 {
		t.Errorf("port = %d, discovery failed", cfg.Server.Port)
	}
}

func TestFileReferences(t *testing.T) {
	dir := t.TempDir()
	dsnFile := writeFile(t, dir, "dsn", "postgres://secret@db/modgate\n")
	secretFile := writeFile(t, dir, "jwt-secret", "  hmac-secret  \n")
	keyFile := writeFile(t, dir, "apikey", "sk-from-file")

	path := writeFile(t, dir, "config.yaml", `
storage:
  type: postgres
  postgres:
    dsn_file: `+dsnFile+`
auth:
  type: jwt
  jwt:
    secret_file: `+secretFile+`
  api_keys:
    - key_file: `+keyFile+`
      subject: ci
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Storage.Postgres.DSN != "postgres://secret@db/modgate" {
		t.Errorf("dsn = %q", cfg.Storage.Postgres.DSN)
	}
	if cfg.Auth.JWT.Secret != "hmac-secret" {
		t.Errorf("jwt secret = %q (whitespace not trimmed?)", cfg.Auth.JWT.Secret)
	}
	if cfg.Auth.APIKeys[0].Key != "sk-from-file" {
		t.Errorf("api key = %q", cfg.Auth.APIKeys[0].Key)
	}
}

func TestFileReferenceDoesNotOverrideExplicitValue(t *testing.T) {
	dir := t.TempDir()
	secretFile := writeFile(t, dir, "secret", "from-file")
	path := writeFile(t, dir, "config.yaml", `
auth:
  type: jwt
  jwt:
    secret: explicit
    secret_file: `+secretFile+`
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.JWT.Secret != "explicit" {
		t.Errorf("secret = %q, explicit value should win", cfg.Auth.JWT.Secret)
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad include regex", func(c *Config) { c.Scan.Include = "(" }, "scan.include"},
		{"bad storage type", func(c *Config) { c.Storage.Type = "redis" }, "storage.type"},
		{"postgres without dsn", func(c *Config) { c.Storage.Type = "postgres" }, "storage.postgres.dsn"},
		{"bad auth type", func(c *Config) { c.Auth.Type = "oauth" }, "auth.type"},
		{"jwt without secret", func(c *Config) { c.Auth.Type = "jwt" }, "auth.jwt.secret"},
		{"bad mcp transport", func(c *Config) { c.MCP.Transport = "sse" }, "mcp.transport"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}
