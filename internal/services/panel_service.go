package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"finpanel/internal/exporter"
	"finpanel/internal/infrastructure"
	"finpanel/internal/panel"
	"finpanel/internal/prompt"
	"finpanel/pkg/contracts/domain"
)

// SummaryLoader reads the summary of the last pipeline run
type SummaryLoader interface {
	LoadSummary() (domain.RunSummary, error)
}

// PanelQuery filters panel rows. Empty fields match everything; Company
// matches either the document key or the display ticker.
type PanelQuery struct {
	Sector  string
	Company string
	Years   []int
}

// SectorInfo lists the companies of one sector
type SectorInfo struct {
	Name      string   `json:"name"`
	Companies []string `json:"companies"`
}

// PanelServiceConfig wires a PanelService
type PanelServiceConfig struct {
	DocumentPath string
	Cache        *panel.Cache
	Builder      *prompt.Builder
	Analyzer     prompt.Analyzer
	Summaries    SummaryLoader
	Metrics      *infrastructure.BusinessMetrics
	Logger       *slog.Logger
}

// PanelService serves the read side of the consolidated document
type PanelService struct {
	documentPath string
	cache        *panel.Cache
	builder      *prompt.Builder
	analyzer     prompt.Analyzer
	summaries    SummaryLoader
	metrics      *infrastructure.BusinessMetrics
	logger       *slog.Logger
}

// NewPanelService creates a panel service. A nil cache gets a default one
// without ticker overrides.
func NewPanelService(cfg PanelServiceConfig) *PanelService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cache := cfg.Cache
	if cache == nil {
		cache = panel.NewCache(panel.DefaultCacheExpiration, nil)
	}
	return &PanelService{
		documentPath: cfg.DocumentPath,
		cache:        cache,
		builder:      cfg.Builder,
		analyzer:     cfg.Analyzer,
		summaries:    cfg.Summaries,
		metrics:      cfg.Metrics,
		logger:       infrastructure.WithComponent(logger, "panel_service"),
	}
}

// Snapshot returns the cached document and its rows
func (s *PanelService) Snapshot(ctx context.Context) (*panel.Snapshot, error) {
	before := s.cache.Stats()
	snap, err := s.cache.Load(s.documentPath)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load sector document",
			slog.String("path", s.documentPath),
			slog.String("error", err.Error()))
		return nil, err
	}
	s.recordCache(ctx, before, s.cache.Stats())
	return snap, nil
}

func (s *PanelService) recordCache(ctx context.Context, before, after panel.CacheStats) {
	if s.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("cache", "panel"))
	if d := after.Hits - before.Hits; d > 0 {
		s.metrics.PanelCacheHits.Add(ctx, int64(d), attrs)
	}
	if d := after.Misses - before.Misses; d > 0 {
		s.metrics.PanelCacheMisses.Add(ctx, int64(d), attrs)
	}
}

// Rows returns the panel rows matching q in flatten order
func (s *PanelService) Rows(ctx context.Context, q PanelQuery) ([]domain.PanelRow, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rows := panel.Filter(snap.Rows, q.Sector, q.Company)
	if len(rows) == 0 {
		if q.Sector != "" {
			if _, ok := snap.Document.Sector(q.Sector); !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownSector, q.Sector)
			}
		}
		if q.Company != "" && len(panel.Filter(snap.Rows, "", q.Company)) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCompany, q.Company)
		}
	}
	if len(q.Years) == 0 {
		return rows, nil
	}

	years := make(map[int]bool, len(q.Years))
	for _, y := range q.Years {
		years[y] = true
	}
	out := make([]domain.PanelRow, 0, len(rows))
	for _, r := range rows {
		if years[r.Year] {
			out = append(out, r)
		}
	}
	return out, nil
}

// Sectors lists sectors with their companies in document order
func (s *PanelService) Sectors(ctx context.Context) ([]SectorInfo, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SectorInfo, 0, len(snap.Document.Sectors))
	for _, sector := range snap.Document.Sectors {
		info := SectorInfo{Name: sector.Name, Companies: make([]string, 0, len(sector.Companies))}
		for _, c := range sector.Companies {
			info.Companies = append(info.Companies, c.Symbol)
		}
		out = append(out, info)
	}
	return out, nil
}

// Sector returns the companies of one sector
func (s *PanelService) Sector(ctx context.Context, name string) (SectorInfo, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return SectorInfo{}, err
	}
	sector, ok := snap.Document.Sector(name)
	if !ok {
		return SectorInfo{}, fmt.Errorf("%w: %q", ErrUnknownSector, name)
	}
	info := SectorInfo{Name: sector.Name, Companies: make([]string, 0, len(sector.Companies))}
	for _, c := range sector.Companies {
		info.Companies = append(info.Companies, c.Symbol)
	}
	return info, nil
}

// SectorLatest returns the most recent row of every company in sector
func (s *PanelService) SectorLatest(ctx context.Context, sector string) ([]domain.PanelRow, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := snap.Document.Sector(sector); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSector, sector)
	}
	return panel.SectorLatest(snap.Rows, sector), nil
}

// Series sums the requested columns per period over the filtered rows
func (s *PanelService) Series(ctx context.Context, q PanelQuery, columns []string) ([]panel.SeriesPoint, error) {
	for _, col := range columns {
		if _, ok := (domain.PanelRow{}).Metric(col); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
	}
	rows, err := s.Rows(ctx, q)
	if err != nil {
		return nil, err
	}
	return panel.ScopeSeries(rows, columns), nil
}

// Export writes the filtered rows to w in the given format
func (s *PanelService) Export(ctx context.Context, w io.Writer, format exporter.Format, q PanelQuery) (int, error) {
	rows, err := s.Rows(ctx, q)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, ErrNoRows
	}
	if err := exporter.WritePanel(w, format, rows); err != nil {
		return 0, fmt.Errorf("export panel: %w", err)
	}
	s.logger.InfoContext(ctx, "Exported panel",
		slog.String("format", string(format)),
		slog.Int("rows", len(rows)))
	return len(rows), nil
}

// Prompt assembles the analysis prompt for req
func (s *PanelService) Prompt(ctx context.Context, req prompt.Request) (*prompt.Prompt, error) {
	if s.builder == nil {
		return nil, fmt.Errorf("prompt builder not configured")
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(snap.Document, req)
}

// Analyze builds the prompt for req and hands it to the analyzer
func (s *PanelService) Analyze(ctx context.Context, req prompt.Request) (string, error) {
	if s.analyzer == nil {
		return "", ErrAnalyzerNotConfigured
	}
	p, err := s.Prompt(ctx, req)
	if err != nil {
		return "", err
	}

	start := time.Now()
	out, err := s.analyzer.Analyze(ctx, p.Messages())
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return "", fmt.Errorf("analyze %s/%s: %w", req.Sector, req.Company, err)
	}
	s.logger.InfoContext(ctx, "Analysis completed",
		slog.String("sector", req.Sector),
		slog.String("company", req.Company),
		slog.String("topic", string(req.Topic)),
		slog.Duration("duration", time.Since(start)))
	return out, nil
}

// LastRun returns the summary of the last pipeline run
func (s *PanelService) LastRun(ctx context.Context) (domain.RunSummary, error) {
	if s.summaries == nil {
		return domain.RunSummary{}, fmt.Errorf("run summary not configured")
	}
	return s.summaries.LoadSummary()
}

// Columns lists the numeric panel columns a series can request
func (s *PanelService) Columns() []string {
	cols := append([]string(nil), domain.PanelColumns[6:]...)
	sort.Strings(cols)
	return cols
}

// Invalidate drops every cached snapshot
func (s *PanelService) Invalidate(ctx context.Context) panel.CacheStats {
	s.cache.Invalidate()
	stats := s.cache.Stats()
	s.logger.InfoContext(ctx, "Panel cache invalidated", slog.Int("entries", stats.Entries))
	return stats
}

// CacheStats reports the panel cache counters
func (s *PanelService) CacheStats() panel.CacheStats {
	return s.cache.Stats()
}

// DocumentPath is the sector document served by this service
func (s *PanelService) DocumentPath() string {
	return s.documentPath
}
