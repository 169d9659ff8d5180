// Command consolidate reads raw provider statements from the raw directory
// and writes the consolidated sector document plus a run summary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"finpanel/internal/config"
	"finpanel/internal/files"
	"finpanel/internal/infrastructure"
	"finpanel/internal/pipeline"
	"finpanel/internal/statements"
	"finpanel/internal/validation"
	"finpanel/pkg/contracts"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("Consolidation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("consolidate", flag.ContinueOnError)
	envFile := flags.String("env", ".env", "dotenv file loaded before the configuration")
	rawDir := flags.String("raw", "", "raw statements directory (defaults to paths.raw_dir)")
	outFile := flags.String("out", "", "sector document path (defaults to paths.document_file)")
	years := flags.String("years", "", "comma separated fiscal years to keep, e.g. 2023,2024 (defaults to pipeline.years)")
	concurrency := flags.Int("concurrency", 0, "parallel raw file reads (defaults to pipeline.concurrency)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", *envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *rawDir != "" {
		cfg.Paths.RawDir = *rawDir
	}
	if *outFile != "" {
		cfg.Paths.DocumentFile = *outFile
	}
	if *years != "" {
		parsed, err := parseYears(*years)
		if err != nil {
			return err
		}
		cfg.Pipeline.Years = parsed
	}
	if *concurrency > 0 {
		cfg.Pipeline.Concurrency = *concurrency
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create required directories: %w", err)
	}
	if !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = paths.GetLogPath("consolidate.log")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer providers.Shutdown(context.WithoutCancel(ctx))

	var metrics *infrastructure.BusinessMetrics
	if providers.Meter != nil {
		if metrics, err = infrastructure.CreateBusinessMetrics(providers.Meter); err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}
	}

	logger.InfoContext(ctx, "Starting consolidation",
		slog.String("version", contracts.GetVersionString()),
		slog.String("raw_dir", paths.RawDir),
		slog.String("document", paths.DocumentFile),
		slog.Any("years", cfg.Pipeline.Years),
		slog.Int("concurrency", cfg.Pipeline.Concurrency))

	if _, err := validation.NewFileValidator(logger).ValidateRawDirectory(paths.RawDir); err != nil {
		return err
	}
	bundles, err := files.NewDiscovery(paths.BaseDir).FindStatementBundles(paths.RawDir)
	if err != nil {
		return fmt.Errorf("failed to discover raw statements: %w", err)
	}
	logger.InfoContext(ctx, "Raw statements discovered", slog.Int("companies", len(bundles)))

	runner := pipeline.NewRunner(pipeline.Options{
		Filter:      statements.Years(cfg.Pipeline.Years...),
		Concurrency: cfg.Pipeline.Concurrency,
		Logger:      logger,
		Metrics:     metrics,
	})
	res, err := runner.Run(ctx, bundles)
	if err != nil {
		return err
	}

	if err := pipeline.NewStore(paths, logger).Save(res); err != nil {
		return err
	}

	s := res.Summary
	fmt.Fprintf(stdout, "Consolidated %d of %d companies across %d sectors into %s\n",
		s.CompaniesConsolidated, s.CompaniesTotal, s.Sectors, paths.DocumentFile)
	if !s.Clean() {
		fmt.Fprintf(stdout, "Skipped %d companies and %d filings, %d coercion warnings (see %s)\n",
			len(s.SkippedCompanies), len(s.SkippedFilings), s.CoercionWarnings, paths.SummaryFile)
	}
	return nil
}

func parseYears(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", part)
		}
		out = append(out, y)
	}
	return out, nil
}
