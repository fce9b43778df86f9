package cli

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modgate/modgate/pkg/auth"
	"github.com/modgate/modgate/pkg/auth/apikey"
	authjwt "github.com/modgate/modgate/pkg/auth/jwt"
	"github.com/modgate/modgate/pkg/config"
	"github.com/modgate/modgate/pkg/mcpserve"
	"github.com/modgate/modgate/pkg/registry"
	"github.com/modgate/modgate/pkg/routes"
	"github.com/modgate/modgate/pkg/storage"
	"github.com/modgate/modgate/pkg/storage/memory"
	"github.com/modgate/modgate/pkg/storage/postgres"
	"github.com/modgate/modgate/pkg/target"
	"github.com/modgate/modgate/pkg/web"
	"github.com/modgate/modgate/pkg/writer"
)

// runServe scans the route table, registers all modules, and serves the
// explorer API and, when enabled, MCP.
func runServe(ctx context.Context, table routes.Table, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path")
	verbose := fs.Bool("v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setupLogging(*verbose)

	cfg, err := loadConfig(*configPath, "", "")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	modules, err := scanModules(cfg, table)
	if err != nil {
		return err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	resolver := target.NewResolver()
	resolver.AddTable(table)

	reg := registry.New()
	report, err := writer.New(reg, resolver, store).Write(ctx, modules, writer.Options{Tolerant: true})
	if err != nil {
		return fmt.Errorf("registering modules: %w", err)
	}
	for _, issue := range report.Issues {
		slog.Warn("module not registered", "module_id", issue.ModuleID, "error", issue.Err)
	}
	slog.Info("modules registered", "count", len(report.Registered), "issues", len(report.Issues))

	var mcpHandler http.Handler
	mcpStdio := false
	if cfg.MCP.Enabled {
		server := mcpserve.NewServer(mcpserve.Config{Name: "modgate", Version: Version}, reg)
		switch cfg.MCP.Transport {
		case "streamable-http":
			mcpHandler = mcpserve.Handler(server)
		default:
			mcpStdio = true
			go func() {
				if err := mcpserve.RunStdio(ctx, server); err != nil {
					slog.Error("MCP stdio server failed", "error", err)
				}
				stop()
			}()
		}
	}

	runHTTP := cfg.Explorer.Enabled || mcpHandler != nil || cfg.Observability.Metrics.Enabled
	if !runHTTP {
		if !mcpStdio {
			return fmt.Errorf("nothing to serve: explorer, metrics, and MCP are all disabled")
		}
		<-ctx.Done()
		return nil
	}

	webCfg := web.Config{
		Addr:            fmt.Sprintf(":%d", cfg.Server.Port),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: web.DefaultConfig().ShutdownTimeout,
		ExplorerEnabled: cfg.Explorer.Enabled,
		AllowExecute:    cfg.Explorer.AllowExecute,
		OpenAPIInfo:     writer.Info{Title: "modgate", Version: Version},
		MCPHandler:      mcpHandler,
		MCPPath:         cfg.MCP.Path,
	}
	if cfg.Observability.Metrics.Enabled {
		webCfg.MetricsPath = cfg.Observability.Metrics.Path
	}

	srv := web.NewServer(webCfg, reg, store, buildAuthChain(cfg.Auth))
	return srv.ListenAndServe(ctx)
}

// buildStore creates the binding store selected by configuration.
func buildStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Storage.Postgres.DSN,
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		slog.Info("storage enabled", "type", "postgres")
		return store, nil
	default:
		slog.Info("storage enabled", "type", "memory")
		return memory.New(), nil
	}
}

// buildAuthChain creates the auth chain selected by configuration.
// Returns nil for unauthenticated deployments.
func buildAuthChain(cfg config.AuthConfig) *auth.AuthChain {
	switch cfg.Type {
	case "apikey":
		entries := make([]apikey.RawKeyEntry, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			entry := apikey.RawKeyEntry{
				Key:      k.Key,
				Identity: auth.Identity{Subject: k.Subject},
			}
			if k.TenantID != "" {
				entry.Identity.Metadata = map[string]string{"tenant_id": k.TenantID}
			}
			entries = append(entries, entry)
		}
		return &auth.AuthChain{
			Authenticators:  []auth.Authenticator{apikey.New(entries)},
			DefaultDecision: auth.No,
		}
	case "jwt":
		return &auth.AuthChain{
			Authenticators: []auth.Authenticator{authjwt.New(authjwt.Config{
				Secret:   cfg.JWT.Secret,
				Issuer:   cfg.JWT.Issuer,
				Audience: cfg.JWT.Audience,
			})},
			DefaultDecision: auth.No,
		}
	default:
		return nil
	}
}
