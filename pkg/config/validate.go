package config

import (
	"errors"
	"fmt"
	"regexp"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// scan filters must be valid regular expressions.
	if c.Scan.Include != "" {
		if _, err := regexp.Compile(c.Scan.Include); err != nil {
			errs = append(errs, fmt.Errorf("scan.include is not a valid regex: %w", err))
		}
	}
	if c.Scan.Exclude != "" {
		if _, err := regexp.Compile(c.Scan.Exclude); err != nil {
			errs = append(errs, fmt.Errorf("scan.exclude is not a valid regex: %w", err))
		}
	}

	// storage.type must be a known value.
	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	// If storage.type is "postgres", DSN or DSNFile must be set.
	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	// auth.type must be a known value.
	switch c.Auth.Type {
	case "none", "apikey", "jwt":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", c.Auth.Type))
	}

	// auth.type=jwt needs a secret to verify against.
	if c.Auth.Type == "jwt" && c.Auth.JWT.Secret == "" && c.Auth.JWT.SecretFile == "" {
		errs = append(errs, fmt.Errorf("auth.jwt.secret or auth.jwt.secret_file is required when auth.type is \"jwt\""))
	}

	// mcp.transport must be a known value.
	switch c.MCP.Transport {
	case "stdio", "streamable-http", "":
		// valid
	default:
		errs = append(errs, fmt.Errorf("mcp.transport must be \"stdio\" or \"streamable-http\", got %q", c.MCP.Transport))
	}

	return errors.Join(errs...)
}
