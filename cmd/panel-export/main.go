// Command panel-export flattens the consolidated sector document into the
// one-row-per-period panel and writes it as CSV or XLSX.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"finpanel/internal/config"
	"finpanel/internal/exporter"
	"finpanel/internal/infrastructure"
	"finpanel/internal/panel"
	"finpanel/internal/pipeline"
	"finpanel/internal/validation"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("Panel export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("panel-export", flag.ContinueOnError)
	envFile := flags.String("env", ".env", "dotenv file loaded before the configuration")
	docFile := flags.String("doc", "", "sector document path (defaults to paths.document_file)")
	format := flags.String("format", "csv", "output format: csv or xlsx")
	out := flags.String("out", "", "output file; relative paths land in the reports directory")
	sector := flags.String("sector", "", "only export this sector")
	company := flags.String("company", "", "only export this company")
	if err := flags.Parse(args); err != nil {
		return err
	}

	f, err := exporter.ParseFormat(*format)
	if err != nil {
		return err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", *envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *docFile != "" {
		cfg.Paths.DocumentFile = *docFile
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create required directories: %w", err)
	}
	if !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = paths.GetLogPath("panel-export.log")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateDocument(paths.DocumentFile); err != nil {
		return err
	}
	doc, err := pipeline.LoadDocument(paths.DocumentFile)
	if err != nil {
		return err
	}

	rows := panel.Flatten(doc, panel.NewTickerLookup(cfg.Pipeline.TickerKeys()))
	rows = panel.Filter(rows, *sector, *company)
	if len(rows) == 0 {
		return fmt.Errorf("no panel rows to export from %s", paths.DocumentFile)
	}

	target := *out
	if target == "" {
		target = f.FileName("sector_panel")
	}
	if !filepath.IsAbs(target) {
		target = paths.GetReportPath(target)
	}
	if err := validator.ValidateExportTarget(target, string(f)); err != nil {
		return err
	}
	written, err := exporter.NewPanelExporter(paths, logger).Export(target, f, rows)
	if err != nil {
		return err
	}

	logger.Info("Panel exported",
		slog.String("path", written),
		slog.String("format", string(f)),
		slog.Int("rows", len(rows)))
	fmt.Fprintf(stdout, "Wrote %d rows to %s\n", len(rows), written)
	return nil
}
