package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/modgate/modgate/pkg/routes"
	"github.com/modgate/modgate/pkg/writer"
)

// runScan scans the route table and prints the detected modules.
func runScan(_ context.Context, table routes.Table, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path")
	include := fs.String("include", "", "include filter (regex on module id)")
	exclude := fs.String("exclude", "", "exclude filter (regex on module id)")
	verbose := fs.Bool("v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setupLogging(*verbose)

	cfg, err := loadConfig(*configPath, *include, *exclude)
	if err != nil {
		return err
	}

	modules, err := scanModules(cfg, table)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE ID\tMETHOD\tRULE\tTARGET")
	for _, m := range modules {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ModuleID, m.HTTPMethod, m.URLRule, m.Target)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d modules detected\n", len(modules))
	return nil
}

// runExport writes module bindings to a file or stdout.
func runExport(_ context.Context, table routes.Table, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path")
	include := fs.String("include", "", "include filter (regex on module id)")
	exclude := fs.String("exclude", "", "exclude filter (regex on module id)")
	format := fs.String("format", "json", "output format: json, yaml, or openapi")
	output := fs.String("o", "", "output file (default stdout)")
	title := fs.String("title", "modgate", "OpenAPI document title")
	docVersion := fs.String("doc-version", Version, "OpenAPI document version")
	verbose := fs.Bool("v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setupLogging(*verbose)

	cfg, err := loadConfig(*configPath, *include, *exclude)
	if err != nil {
		return err
	}

	modules, err := scanModules(cfg, table)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch *format {
	case "json":
		return writer.WriteJSON(out, modules)
	case "yaml":
		return writer.WriteYAML(out, modules)
	case "openapi":
		return writer.WriteOpenAPI(out, modules, writer.Info{Title: *title, Version: *docVersion})
	default:
		return fmt.Errorf("unknown format %q (want json, yaml, or openapi)", *format)
	}
}
