package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finpanel/internal/consolidation"
	"finpanel/internal/files"
	"finpanel/internal/infrastructure"
	"finpanel/internal/periods"
	"finpanel/internal/statements"
	"finpanel/pkg/contracts/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of pipeline spans
const TracerName = "finpanel.pipeline"

// Reasons recorded in the run summary
const (
	ReasonNoReports  = "no report list"
	ReasonSuperseded = "superseded by a later filing in the same quarter"
)

// Options configures a Runner
type Options struct {
	Filter      statements.PeriodFilter
	Concurrency int
	Logger      *slog.Logger
	Metrics     *infrastructure.BusinessMetrics
}

// Result is the output of one consolidation run
type Result struct {
	Document domain.SectorDocument
	Summary  domain.RunSummary
}

// Runner drives normalize, index, consolidate and aggregate over a set of
// company bundles. Per-company problems are recorded in the summary and
// never abort the run.
type Runner struct {
	filter  statements.PeriodFilter
	loader  *Loader
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
	tracer  trace.Tracer
	now     func() time.Time
}

// NewRunner creates a runner
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "pipeline")
	filter := opts.Filter
	if filter == nil {
		filter = statements.AllPeriods()
	}
	return &Runner{
		filter:  filter,
		loader:  NewLoader(opts.Concurrency, logger),
		logger:  logger,
		metrics: opts.Metrics,
		tracer:  otel.Tracer(TracerName),
		now:     time.Now,
	}
}

// Run consolidates the bundles into a sector document
func (r *Runner) Run(ctx context.Context, bundles []files.CompanyBundle) (res *Result, err error) {
	ctx, runID := infrastructure.StartRun(ctx)
	ctx, span := r.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("companies.total", len(bundles)),
		))
	defer span.End()

	summary := domain.RunSummary{
		RunID:            runID,
		StartedAt:        r.now().UTC(),
		CompaniesTotal:   len(bundles),
		SkippedCompanies: []domain.SkippedCompany{},
		SkippedFilings:   []domain.SkippedFiling{},
	}

	defer func() {
		infrastructure.RecordRunMetrics(ctx, r.metrics,
			summary.CompaniesConsolidated, len(summary.SkippedCompanies), len(summary.SkippedFilings),
			summary.CoercionWarnings, r.now().Sub(summary.StartedAt), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	r.logger.InfoContext(ctx, "Consolidation run started", slog.Int("companies", len(bundles)))

	inputs, err := r.load(ctx, bundles)
	if err != nil {
		return nil, err
	}

	var entries []consolidation.SectorEntry
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, ok := r.processCompany(ctx, in, &summary)
		if ok {
			entries = append(entries, consolidation.SectorEntry{Sector: in.Sector, Entry: entry})
		}
	}

	_, aggSpan := r.tracer.Start(ctx, "pipeline.aggregate")
	doc, err := consolidation.Aggregate(entries)
	aggSpan.End()
	if err != nil {
		r.logger.ErrorContext(ctx, "Aggregation failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	summary.CompaniesConsolidated = doc.CompanyCount()
	summary.Sectors = len(doc.Sectors)
	summary.FinishedAt = r.now().UTC()

	span.SetAttributes(
		attribute.Int("companies.consolidated", summary.CompaniesConsolidated),
		attribute.Int("companies.skipped", len(summary.SkippedCompanies)),
		attribute.Int("filings.skipped", len(summary.SkippedFilings)),
	)
	r.logger.InfoContext(ctx, "Consolidation run finished",
		slog.Int("sectors", summary.Sectors),
		slog.Int("companies_consolidated", summary.CompaniesConsolidated),
		slog.Int("companies_skipped", len(summary.SkippedCompanies)),
		slog.Int("filings_skipped", len(summary.SkippedFilings)),
		slog.Int("coercion_warnings", summary.CoercionWarnings),
		slog.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)))

	return &Result{Document: doc, Summary: summary}, nil
}

func (r *Runner) load(ctx context.Context, bundles []files.CompanyBundle) ([]CompanyInput, error) {
	ctx, span := r.tracer.Start(ctx, "pipeline.load")
	defer span.End()
	return r.loader.Load(ctx, bundles)
}

// processCompany runs the per-company transforms. It reports false when the
// company is skipped; the reason is appended to the summary.
func (r *Runner) processCompany(ctx context.Context, in CompanyInput, summary *domain.RunSummary) (domain.CompanyEntry, bool) {
	ctx, span := r.tracer.Start(ctx, "pipeline.company",
		trace.WithAttributes(
			attribute.String("sector", in.Sector),
			attribute.String("symbol", in.Symbol),
		))
	defer span.End()

	logger := infrastructure.WithCompany(r.logger, in.Sector, in.Symbol)
	skip := func(reason string) (domain.CompanyEntry, bool) {
		summary.SkippedCompanies = append(summary.SkippedCompanies, domain.SkippedCompany{
			Sector: in.Sector,
			Symbol: in.Symbol,
			Reason: reason,
		})
		span.SetAttributes(attribute.String("skipped", reason))
		logger.WarnContext(ctx, "Company skipped", slog.String("reason", reason))
		return domain.CompanyEntry{}, false
	}

	if in.Err != nil {
		return skip(in.Err.Error())
	}

	norm, err := statements.Normalize(in.Raw, r.filter)
	if errors.Is(err, statements.ErrNoReports) {
		return skip(ReasonNoReports)
	}
	if err != nil {
		return skip(err.Error())
	}

	if n := norm.Stats.CoercionWarnings(); n > 0 {
		summary.CoercionWarnings += n
		for _, w := range norm.Stats.Warnings {
			logger.DebugContext(ctx, "Coercion warning", slog.String("warning", w.String()))
		}
		logger.WarnContext(ctx, "Fields treated as missing", slog.Int("count", n))
	}

	skipFiling := func(date, reason string) {
		summary.SkippedFilings = append(summary.SkippedFilings, domain.SkippedFiling{
			Sector:     in.Sector,
			Symbol:     in.Symbol,
			FiscalDate: date,
			Reason:     reason,
		})
		logger.WarnContext(ctx, "Filing skipped",
			slog.String("fiscal_date", date),
			slog.String("reason", reason))
	}

	for _, s := range norm.Skipped {
		skipFiling(s.FiscalDate, s.Err.Error())
	}

	idx := periods.NewIndex()
	for _, f := range norm.Filings {
		dropped, err := idx.Add(f.FiscalDate, f.Period)
		if err != nil {
			skipFiling(f.FiscalDate, err.Error())
			continue
		}
		if dropped != "" {
			skipFiling(dropped, ReasonSuperseded)
		}
	}

	entry, err := consolidation.Consolidate(in.Symbol, idx, norm.Ratios)
	if err != nil {
		return skip(err.Error())
	}

	profile := norm.Profile
	if profile.Symbol != "" && !strings.EqualFold(profile.Symbol, in.Symbol) {
		logger.WarnContext(ctx, "Overview symbol does not match the file name",
			slog.String("overview_symbol", profile.Symbol))
	}
	summary.Companies = append(summary.Companies, domain.ConsolidatedCompany{
		Sector:   in.Sector,
		Symbol:   in.Symbol,
		Name:     profile.Name,
		Exchange: profile.Exchange,
		Industry: profile.Industry,
	})

	logger.InfoContext(ctx, "Company consolidated",
		slog.String("name", profile.Name),
		slog.String("exchange", profile.Exchange),
		slog.String("overview_sector", profile.Sector),
		slog.String("adapter", norm.Adapter),
		slog.Int("periods", idx.Len()))
	return entry, true
}
