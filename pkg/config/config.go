// Package config provides unified configuration for the modgate server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (MODGATE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the modgate server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Scan          ScanConfig          `yaml:"scan"`
	Explorer      ExplorerConfig      `yaml:"explorer"`
	MCP           MCPConfig           `yaml:"mcp"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 120s
}

// ScanConfig holds route scanning settings.
type ScanConfig struct {
	// Include keeps only modules whose id matches this regex.
	Include string `yaml:"include"`

	// Exclude removes modules whose id matches this regex, after Include.
	Exclude string `yaml:"exclude"`
}

// ExplorerConfig holds the module explorer API settings.
type ExplorerConfig struct {
	Enabled bool `yaml:"enabled"` // default: true

	// AllowExecute exposes the module call endpoint. Off by default so a
	// read-only catalog cannot be used to invoke handlers.
	AllowExecute bool `yaml:"allow_execute"`
}

// MCPConfig holds MCP (Model Context Protocol) serving settings.
type MCPConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Transport string `yaml:"transport"` // "stdio" or "streamable-http", default: "stdio"
	Path      string `yaml:"path"`      // HTTP mount path, default: "/mcp"
}

// StorageConfig holds binding persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// AuthConfig holds authentication settings for the explorer API.
type AuthConfig struct {
	Type    string         `yaml:"type"`     // "none", "apikey", "jwt", default: "none"
	APIKeys []APIKeyConfig `yaml:"api_keys"` // API key entries for type=apikey
	JWT     JWTConfig      `yaml:"jwt"`      // JWT settings for type=jwt
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key      string `yaml:"key"`
	KeyFile  string `yaml:"key_file"` // _file variant for key
	Subject  string `yaml:"subject"`
	TenantID string `yaml:"tenant_id"`
}

// JWTConfig holds HMAC JWT verification settings.
type JWTConfig struct {
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"` // _file variant for secret
	Issuer     string `yaml:"issuer"`
	Audience   string `yaml:"audience"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Explorer: ExplorerConfig{
			Enabled: true,
		},
		MCP: MCPConfig{
			Transport: "stdio",
			Path:      "/mcp",
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Auth: AuthConfig{
			Type: "none",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
