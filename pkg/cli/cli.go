// Package cli implements the embeddable modgate command line. Applications
// register their route tables and hand control to Main:
//
//	func main() {
//		os.Exit(cli.Main(table))
//	}
//
// Commands:
//
//	scan    - scan the route table and print detected modules
//	export  - write module bindings as JSON, YAML, or an OpenAPI document
//	serve   - register modules and serve the explorer API and MCP
//	version - print the version
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/modgate/modgate/pkg/api"
	"github.com/modgate/modgate/pkg/config"
	"github.com/modgate/modgate/pkg/debug"
	"github.com/modgate/modgate/pkg/routes"
	"github.com/modgate/modgate/pkg/scanner"
)

// Version is the modgate release version.
const Version = "0.1.0"

// Main runs the command line with os.Args and returns the process exit code.
func Main(table routes.Table) int {
	if err := Run(context.Background(), table, os.Args[1:]); err != nil {
		slog.Error("command failed", "error", err)
		return 1
	}
	return 0
}

// Run dispatches the given arguments against the route table.
func Run(ctx context.Context, table routes.Table, args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "scan":
		return runScan(ctx, table, args[1:])
	case "export":
		return runExport(ctx, table, args[1:])
	case "serve":
		return runServe(ctx, table, args[1:])
	case "version":
		fmt.Println(Version)
		return nil
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: <app> <command> [flags]

Commands:
  scan     Scan the route table and print detected modules
  export   Write module bindings as JSON, YAML, or an OpenAPI document
  serve    Register modules and serve the explorer API and MCP
  version  Print the version

Run '<app> <command> -h' for command flags.
`)
}

// setupLogging installs the default structured logger. Logs go to stderr
// so stdout stays clean for exports and the MCP stdio transport.
// MODGATE_DEBUG and MODGATE_LOG_LEVEL take precedence over the -v flag.
func setupLogging(verbose bool) {
	level := ""
	if verbose {
		level = "DEBUG"
	}
	debug.Init("", level)
}

// loadConfig loads configuration and applies scan filter flag overrides.
func loadConfig(path, include, exclude string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if include != "" {
		cfg.Scan.Include = include
	}
	if exclude != "" {
		cfg.Scan.Exclude = exclude
	}
	return cfg, nil
}

// scanModules runs a scan pass over the route table.
func scanModules(cfg *config.Config, table routes.Table) ([]api.Module, error) {
	sc := scanner.New(nil)
	modules, err := sc.Scan(table, scanner.Options{
		Include: cfg.Scan.Include,
		Exclude: cfg.Scan.Exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("scanning routes: %w", err)
	}
	return modules, nil
}
